// Package api provides the REST API server for melodycodec
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/james-see/melodycodec/pkg/codec"
	"github.com/james-see/melodycodec/pkg/converter"
	"github.com/james-see/melodycodec/pkg/melody"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title MelodyCodec API
// @version 1.0
// @description API for encoding melodies into model inputs and decoding model classes
// @host localhost:8080
// @BasePath /api/v1

// Server serves encode and decode requests with a shared codec
type Server struct {
	codec           *codec.Codec
	stepsPerQuarter int
}

// NewServer creates a server around the default codec
func NewServer(c *codec.Codec, stepsPerQuarter int) *Server {
	return &Server{codec: c, stepsPerQuarter: stepsPerQuarter}
}

// EventsRequest carries a melody as raw event values
type EventsRequest struct {
	Events []int `json:"events" binding:"required"`
}

// ClassesRequest carries predicted class indices
type ClassesRequest struct {
	Classes []int `json:"classes" binding:"required"`
}

// StartServer starts the API server on the specified port
func StartServer(port int, c *codec.Codec, stepsPerQuarter int) error {
	return NewServer(c, stepsPerQuarter).Router().Run(fmt.Sprintf(":%d", port))
}

// Router builds the gin engine
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.Use(corsMiddleware())

	r.GET("/health", healthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/codec", s.codecInfo)
		v1.GET("/presets", listPresets)
		v1.GET("/formats", listFormats)
		v1.POST("/index", s.handleIndex)
		v1.POST("/encode", s.handleEncode)
		v1.POST("/encode/midi", s.handleEncodeMIDI)
		v1.POST("/decode", s.handleDecode)
		v1.POST("/decode/midi", s.handleDecodeMIDI)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "melodycodec",
	})
}

// codecInfo godoc
// @Summary Describe the codec
// @Description Returns the codec configuration, input size and class count
// @Tags info
// @Produce json
// @Param preset query string false "Codec preset (default: server codec)"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/codec [get]
func (s *Server) codecInfo(c *gin.Context) {
	cd, ok := s.resolveCodec(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"config":      cd.Config(),
		"input_size":  cd.InputSize(),
		"num_classes": cd.NumClasses(),
	})
}

// listPresets godoc
// @Summary List codec presets
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]codec.Preset
// @Router /api/v1/presets [get]
func listPresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": codec.Presets()})
}

// listFormats godoc
// @Summary List supported formats
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/formats [get]
func listFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"formats":     []string{"midi", "json"},
		"conversions": converter.GetSupportedConversions(),
	})
}

// handleIndex godoc
// @Summary Map events to class indices
// @Tags encode
// @Accept json
// @Produce json
// @Param request body EventsRequest true "Melody events"
// @Param preset query string false "Codec preset"
// @Success 200 {object} map[string][]int
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/index [post]
func (s *Server) handleIndex(c *gin.Context) {
	cd, m, ok := s.bindEvents(c)
	if !ok {
		return
	}
	indices, err := codec.Indices(cd, m)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"indices": indices})
}

// handleEncode godoc
// @Summary Encode a melody into a training example
// @Tags encode
// @Accept json
// @Produce json
// @Param request body EventsRequest true "Melody events"
// @Param preset query string false "Codec preset"
// @Success 200 {object} codec.Example
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/encode [post]
func (s *Server) handleEncode(c *gin.Context) {
	cd, m, ok := s.bindEvents(c)
	if !ok {
		return
	}
	example, err := codec.Encode(cd, m)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, example)
}

// handleEncodeMIDI godoc
// @Summary Encode a MIDI file into a training example
// @Tags encode
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "MIDI file to encode"
// @Param preset query string false "Codec preset"
// @Success 200 {object} codec.Example
// @Failure 400 {object} map[string]string
// @Router /api/v1/encode/midi [post]
func (s *Server) handleEncodeMIDI(c *gin.Context) {
	cd, ok := s.resolveCodec(c)
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	example, err := s.converter(cd).EncodeMIDI(data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, example)
}

// handleDecode godoc
// @Summary Decode class indices into melody events
// @Tags decode
// @Accept json
// @Produce json
// @Param request body ClassesRequest true "Class indices"
// @Param preset query string false "Codec preset"
// @Success 200 {object} map[string][]int
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/decode [post]
func (s *Server) handleDecode(c *gin.Context) {
	cd, classes, ok := s.bindClasses(c)
	if !ok {
		return
	}
	m, err := codec.DecodeClasses(cd, classes, nil)
	if err != nil {
		respondError(c, err)
		return
	}

	names := make([]string, len(m))
	for i, e := range m {
		names[i] = e.String()
	}
	c.JSON(http.StatusOK, gin.H{"events": m.Ints(), "names": names})
}

// handleDecodeMIDI godoc
// @Summary Decode class indices into a MIDI file
// @Tags decode
// @Accept json
// @Produce audio/midi
// @Param request body ClassesRequest true "Class indices"
// @Param preset query string false "Codec preset"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/decode/midi [post]
func (s *Server) handleDecodeMIDI(c *gin.Context) {
	cd, classes, ok := s.bindClasses(c)
	if !ok {
		return
	}
	data, err := s.converter(cd).DecodeToMIDI(classes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=decoded.mid")
	c.Data(http.StatusOK, "audio/midi", data)
}

func (s *Server) resolveCodec(c *gin.Context) (*codec.Codec, bool) {
	name := strings.TrimSpace(c.Query("preset"))
	if name == "" {
		return s.codec, true
	}
	cd, err := codec.NewFromPreset(name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return cd, true
}

func (s *Server) bindEvents(c *gin.Context) (*codec.Codec, melody.Melody, bool) {
	cd, ok := s.resolveCodec(c)
	if !ok {
		return nil, nil, false
	}

	var req EventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil, false
	}

	m, err := melody.FromInts(req.Events)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil, false
	}
	return cd, m, true
}

func (s *Server) bindClasses(c *gin.Context) (*codec.Codec, []int, bool) {
	cd, ok := s.resolveCodec(c)
	if !ok {
		return nil, nil, false
	}

	var req ClassesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil, false
	}
	return cd, req.Classes, true
}

func (s *Server) converter(cd *codec.Codec) *converter.Converter {
	conv := converter.New(cd)
	conv.SetStepsPerQuarter(s.stepsPerQuarter)
	return conv
}

func respondError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, codec.ErrOutOfRangeEvent) || errors.Is(err, codec.ErrOutOfRangeIndex) {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
