// Package main is the entry point for the melodycodec API server
package main

import (
	"flag"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/james-see/melodycodec/internal/config"
	"github.com/james-see/melodycodec/pkg/api"
)

func main() {
	port := flag.Int("port", 0, "Server port (default from PORT or 8080)")
	flag.Parse()

	cfg, err := config.LoadVerbose()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	if *port > 0 {
		cfg.Port = *port
	}

	c, err := cfg.NewCodec()
	if err != nil {
		log.Fatal("Invalid codec configuration: ", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Printf("Starting melodycodec API server on port %d (preset %s, %d classes)", cfg.Port, cfg.Preset, c.NumClasses())
	log.Printf("Swagger docs available at http://localhost:%d/swagger/index.html", cfg.Port)

	if err := api.StartServer(cfg.Port, c, cfg.StepsPerQuarter); err != nil {
		log.Fatal("Server error: ", err)
	}
}
