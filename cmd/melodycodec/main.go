// Package main is the entry point for the melodycodec CLI
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/james-see/melodycodec/internal/config"
	"github.com/james-see/melodycodec/pkg/api"
	"github.com/james-see/melodycodec/pkg/codec"
	"github.com/james-see/melodycodec/pkg/converter"
	"github.com/james-see/melodycodec/pkg/melody"
	"github.com/james-see/melodycodec/pkg/tui"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	outputFile      string
	presetName      string
	minPitch        int
	maxPitch        int
	strict          bool
	stepsPerQuarter int
	serverPort      int

	cfg         *config.Config
	activeCodec *codec.Codec
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "melodycodec",
	Short: "Encode melodies into model inputs and decode model classes",
	Long: `melodycodec maps monophonic melody events (note-on, note-off, no event)
to the zero-based class indices and one-hot vectors a sequence model uses.

Examples:
  melodycodec info
  melodycodec index -- 60 -1 -2
  melodycodec encode melody.mid -o melody.example.json
  melodycodec decode 14 0 1 -o melody.mid
  melodycodec convert melody.mid -o melody.json
  melodycodec tui
  melodycodec serve --port 8080`,
	Version:           fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:      true,
	PersistentPreRunE: setupCodec,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the codec configuration and class layout",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List codec presets",
	Args:  cobra.NoArgs,
	RunE:  runPresets,
}

var indexCmd = &cobra.Command{
	Use:   "index <event>...",
	Short: "Map melody events to class indices",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIndex,
}

var encodeCmd = &cobra.Command{
	Use:   "encode <input.mid|input.json>",
	Short: "Build a one-hot training example",
	Args:  cobra.ExactArgs(1),
	RunE:  runEncode,
}

var decodeCmd = &cobra.Command{
	Use:   "decode <class>...",
	Short: "Decode class indices into melody events",
	Long:  `Decodes class indices and prints the events, or writes .mid/.json when -o is given.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDecode,
}

var convertCmd = &cobra.Command{
	Use:   "convert <input>",
	Short: "Auto-detect and convert between MIDI and JSON event lists",
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

var midi2eventsCmd = &cobra.Command{
	Use:   "midi2events <input.mid>",
	Short: "Quantize MIDI to a JSON event list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return convertTo(args[0], ".json")
	},
}

var events2midiCmd = &cobra.Command{
	Use:   "events2midi <input.json>",
	Short: "Render a JSON event list as MIDI",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return convertTo(args[0], ".mid")
	},
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&presetName, "preset", "p", codec.PresetBasicRNN, "Codec preset (basic_rnn, full, td3)")
	rootCmd.PersistentFlags().IntVar(&minPitch, "min-pitch", 0, "Lowest encoded pitch, inclusive (overrides preset)")
	rootCmd.PersistentFlags().IntVar(&maxPitch, "max-pitch", 0, "Highest encoded pitch, exclusive (overrides preset)")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", true, "Reject events and classes outside the codec range")
	rootCmd.PersistentFlags().IntVar(&stepsPerQuarter, "steps-per-quarter", converter.DefaultStepsPerQuarter, "MIDI quantization grid")

	encodeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .json file path")
	decodeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mid or .json file path")
	convertCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (required)")
	_ = convertCmd.MarkFlagRequired("output")
	midi2eventsCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .json file path")
	events2midiCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mid file path")

	serveCmd.Flags().IntVar(&serverPort, "port", 0, "Server port (default from PORT or 8080)")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(midi2eventsCmd)
	rootCmd.AddCommand(events2midiCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

// setupCodec merges environment config with flags, flags win
func setupCodec(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("preset") {
		cfg.Preset = presetName
	}
	if flags.Changed("min-pitch") {
		cfg.MinPitch = &minPitch
	}
	if flags.Changed("max-pitch") {
		cfg.MaxPitch = &maxPitch
	}
	if flags.Changed("strict") {
		cfg.Strict = strict
	}
	if flags.Changed("steps-per-quarter") {
		cfg.StepsPerQuarter = stepsPerQuarter
	}

	activeCodec, err = cfg.NewCodec()
	return err
}

func newConverter() *converter.Converter {
	conv := converter.New(activeCodec)
	conv.SetStepsPerQuarter(cfg.StepsPerQuarter)
	return conv
}

func getOutputPath(input, defaultExt string) string {
	if outputFile != "" {
		return outputFile
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + defaultExt
}

func parseInts(args []string) ([]int, error) {
	values := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", a, err)
		}
		values[i] = v
	}
	return values, nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	c := activeCodec.Config()
	fmt.Printf("Preset:        %s\n", cfg.Preset)
	fmt.Printf("Pitch window:  [%d, %d)\n", c.MinPitch, c.MaxPitch)
	fmt.Printf("Special:       %d\n", c.NumSpecialEvents)
	fmt.Printf("Transpose key: %d\n", c.TransposeToKey)
	fmt.Printf("Strict:        %v\n", c.Strict)
	fmt.Printf("Input size:    %d\n", activeCodec.InputSize())
	fmt.Printf("Classes:       %d\n", activeCodec.NumClasses())
	return nil
}

func runPresets(cmd *cobra.Command, args []string) error {
	for _, p := range codec.Presets() {
		fmt.Printf("%-10s [%3d, %3d)  %3d classes  %s\n",
			p.Name, p.Config.MinPitch, p.Config.MaxPitch, p.Config.NumModelClasses(), p.Description)
	}
	return nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	values, err := parseInts(args)
	if err != nil {
		return err
	}
	m, err := melody.FromInts(values)
	if err != nil {
		return err
	}

	for _, e := range m {
		index, err := activeCodec.EventToIndex(e)
		if err != nil {
			return err
		}
		fmt.Printf("%-14s -> %d\n", e, index)
	}
	return nil
}

func runEncode(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := getOutputPath(input, ".example.json")

	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	example, err := newConverter().EncodeData(data)
	if err != nil {
		return err
	}

	result, err := json.Marshal(example)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, result, 0644); err != nil {
		return err
	}

	fmt.Printf("Encoded %s -> %s (%d steps, %d classes)\n", input, output, example.Len(), activeCodec.NumClasses())
	return nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	classes, err := parseInts(args)
	if err != nil {
		return err
	}

	conv := newConverter()
	m, err := conv.DecodeClasses(classes)
	if err != nil {
		return err
	}

	if outputFile == "" {
		fmt.Println(m)
		return nil
	}

	var result []byte
	switch converter.DetectFormat(outputFile) {
	case converter.FormatMIDI:
		result, err = conv.MelodyToMIDI(m)
	case converter.FormatJSON:
		result, err = converter.MarshalMelody(m)
	default:
		return fmt.Errorf("cannot determine output format from %q", outputFile)
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputFile, result, 0644); err != nil {
		return err
	}

	fmt.Printf("Decoded %d classes -> %s\n", len(classes), outputFile)
	return nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]

	fmt.Printf("Converting %s -> %s\n", input, outputFile)
	if err := newConverter().ConvertFile(input, outputFile); err != nil {
		return err
	}
	fmt.Println("Conversion complete!")
	return nil
}

func convertTo(input, ext string) error {
	output := getOutputPath(input, ext)
	if err := newConverter().ConvertFile(input, output); err != nil {
		return err
	}
	fmt.Printf("Converted %s -> %s\n", input, output)
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run(activeCodec, cfg.StepsPerQuarter)
}

func runServe(cmd *cobra.Command, args []string) error {
	port := cfg.Port
	if serverPort > 0 {
		port = serverPort
	}
	fmt.Printf("Starting API server on port %d...\n", port)
	return api.StartServer(port, activeCodec, cfg.StepsPerQuarter)
}
