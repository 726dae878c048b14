package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pcmflow.dev/internal/config"
	"pcmflow.dev/internal/decode"
	"pcmflow.dev/internal/playback"
	"pcmflow.dev/internal/resample"
	"pcmflow.dev/internal/tracking"
)

// newConvertCommand creates the convert subcommand
func newConvertCommand() *cobra.Command {
	var output string
	var play bool
	var rateStr string
	var channelsStr string
	var backend string
	var quality string
	var frameMsStr string

	convertCmd := &cobra.Command{
		Use:   "convert <input-file>",
		Short: "Convert an audio file to the target sample rate and channel layout",
		Long: `Convert an audio file to the target sample rate and channel layout.

The input is decoded (WAV, MP3 and AIFF are supported), fed through the
configured resampling backend frame by frame, and written out as a 16-bit
PCM WAV file. With --play the converted audio is sent to the default
output device instead.

Examples:
  pcmflow convert song.mp3                      # Write song.converted.wav
  pcmflow convert song.wav -o out.wav --rate 48000
  pcmflow convert voice.aiff --channels 1 --backend beep
  pcmflow convert chime.wav --play`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args[0], convertFlags{
				output:      output,
				play:        play,
				rateStr:     rateStr,
				channelsStr: channelsStr,
				backend:     backend,
				quality:     quality,
				frameMsStr:  frameMsStr,
			})
		},
	}

	convertCmd.Flags().StringVarP(&output, "output", "o", "", "Output WAV file path")
	convertCmd.Flags().BoolVar(&play, "play", false, "Play the converted audio instead of writing a file")
	convertCmd.Flags().StringVar(&rateStr, "rate", "", "Target sample rate in Hz")
	convertCmd.Flags().StringVar(&channelsStr, "channels", "", "Target channel count")
	convertCmd.Flags().StringVar(&backend, "backend", "", "Conversion backend (auto, polyphase, beep)")
	convertCmd.Flags().StringVar(&quality, "quality", "", "Resampling quality (quick, low, medium, high, veryhigh)")
	convertCmd.Flags().StringVar(&frameMsStr, "frame-ms", "", "Source frame duration in milliseconds")

	return convertCmd
}

type convertFlags struct {
	output      string
	play        bool
	rateStr     string
	channelsStr string
	backend     string
	quality     string
	frameMsStr  string
}

// applyConvertFlags folds command line overrides into the configuration
func applyConvertFlags(cfg *config.Config, flags convertFlags) error {
	if flags.rateStr != "" {
		rate, err := parsePositiveInt("rate", flags.rateStr)
		if err != nil {
			return err
		}
		cfg.TargetSampleRate = rate
		slog.Debug("rate override applied", "value", rate)
	}
	if flags.channelsStr != "" {
		channels, err := parsePositiveInt("channels", flags.channelsStr)
		if err != nil {
			return err
		}
		cfg.TargetChannels = channels
		slog.Debug("channels override applied", "value", channels)
	}
	if flags.frameMsStr != "" {
		frameMs, err := parsePositiveInt("frame-ms", flags.frameMsStr)
		if err != nil {
			return err
		}
		cfg.FrameMs = frameMs
		slog.Debug("frame-ms override applied", "value", frameMs)
	}
	if flags.backend != "" {
		cfg.Backend = flags.backend
		slog.Debug("backend override applied", "value", flags.backend)
	}
	if flags.quality != "" {
		cfg.Quality = flags.quality
		slog.Debug("quality override applied", "value", flags.quality)
	}
	return nil
}

// runConvert implements the convert subcommand
func runConvert(cmd *cobra.Command, inputPath string, flags convertFlags) error {
	cli := cliFromContext(cmd.Context())
	if cli == nil {
		slog.Error("CLI instance not found in context")
		return fmt.Errorf("CLI instance not found in context")
	}

	cfg, err := loadAndValidateConfig(cmd, cli)
	if err != nil {
		return err
	}

	if err := applyConvertFlags(cfg, flags); err != nil {
		cmd.PrintErrf("Error: %v\n", err)
		return err
	}

	cli.setupLogging(cfg, cmd.ErrOrStderr())
	cli.initializeHistory()

	start := time.Now()
	result, err := cli.convertFile(inputPath, cfg)
	duration := time.Since(start)

	cli.recordRun(inputPath, cfg, result, duration, err)

	if err != nil {
		cmd.PrintErrf("Error: %v\n", err)
		return err
	}

	slog.Info("conversion completed",
		"input", inputPath,
		"output_bytes", len(result.samples),
		"frames", result.stats.Frames,
		"fallbacks", result.stats.Fallbacks,
		"duration", duration)

	if flags.play {
		return cli.playConverted(cmd, result.samples, cfg)
	}

	outputPath := flags.output
	if outputPath == "" {
		outputPath = defaultOutputPath(inputPath)
	}
	return writeConverted(cmd, outputPath, result.samples, cfg)
}

// conversionResult carries converted samples and source details for reporting
type conversionResult struct {
	samples      []byte
	stats        resample.StageStats
	sourceFormat string
	sourceRate   int
	sourceChans  int
	backendName  string
}

// convertFile decodes the input and runs every frame through the
// conversion stage
func (c *CLI) convertFile(inputPath string, cfg *config.Config) (*conversionResult, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		slog.Error("failed to open input file", "path", inputPath, "error", err)
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	registry := decode.NewDefaultRegistry()
	pcm, err := registry.DecodeFile(inputPath, file)
	if err != nil {
		slog.Error("failed to decode input file", "path", inputPath, "error", err)
		return nil, fmt.Errorf("failed to decode input file: %w", err)
	}

	decoder := registry.DetectFormat(inputPath)
	sourceFormat := "unknown"
	if decoder != nil {
		sourceFormat = decoder.FormatName()
	}

	slog.Info("input decoded",
		"path", inputPath,
		"format", sourceFormat,
		"sample_rate", pcm.SampleRate,
		"channels", pcm.Channels,
		"samples", pcm.SampleCount())

	srcSpec, err := pcm.SourceSpec()
	if err != nil {
		return nil, fmt.Errorf("unsupported source shape: %w", err)
	}

	backend, err := c.backendFactory.CreateBackend(cfg.Backend, cfg.Quality)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend '%s': %w", cfg.Backend, err)
	}

	stage, err := resample.NewStage(srcSpec, cfg.TargetChannels, cfg.TargetSampleRate, backend)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversion stage: %w", err)
	}
	defer stage.Close()

	frameSamples := pcm.SampleRate * cfg.FrameMs / 1000
	framer, err := decode.NewFramer(pcm, frameSamples)
	if err != nil {
		return nil, fmt.Errorf("failed to create framer: %w", err)
	}

	var out []byte
	for frame := framer.Next(); frame != nil; frame = framer.Next() {
		converted, err := stage.Convert(frame)
		if err != nil {
			return nil, fmt.Errorf("conversion failed: %w", err)
		}
		out = append(out, converted...)
	}

	return &conversionResult{
		samples:      out,
		stats:        stage.Stats(),
		sourceFormat: sourceFormat,
		sourceRate:   pcm.SampleRate,
		sourceChans:  pcm.Channels,
		backendName:  backend.Name(),
	}, nil
}

// recordRun persists the conversion outcome when history is available
func (c *CLI) recordRun(inputPath string, cfg *config.Config, result *conversionResult, duration time.Duration, convErr error) {
	if c.historyDB == nil {
		return
	}

	recorder, err := tracking.NewRecorder(c.historyDB)
	if err != nil {
		slog.Error("failed to create history recorder", "error", err)
		return
	}

	run := &tracking.ConversionRun{
		Timestamp:      time.Now(),
		SourcePath:     inputPath,
		TargetRate:     cfg.TargetSampleRate,
		TargetChannels: cfg.TargetChannels,
		Backend:        cfg.Backend,
		Duration:       duration,
	}
	if result != nil {
		run.SourceFormat = result.sourceFormat
		run.SourceRate = result.sourceRate
		run.SourceChannels = result.sourceChans
		run.Backend = result.backendName
		run.Frames = result.stats.Frames
		run.OutputBytes = int64(len(result.samples))
		run.Fallbacks = result.stats.Fallbacks
		run.EmptyResults = result.stats.EmptyResults
	} else {
		// Failed before decoding: no source shape to report, the
		// recorder stores the unknown fields as NULL
		run.SourceFormat = "unknown"
	}
	if convErr != nil {
		run.Error = convErr.Error()
	}

	if _, err := recorder.Record(run); err != nil {
		slog.Error("failed to record conversion run", "error", err)
	}
}

// playConverted streams the converted samples to the default output device
func (c *CLI) playConverted(cmd *cobra.Command, samples []byte, cfg *config.Config) error {
	player, err := playback.NewPlayer()
	if err != nil {
		cmd.PrintErrf("Error initializing playback: %v\n", err)
		slog.Error("playback initialization failed", "error", err)
		return fmt.Errorf("error initializing playback: %w", err)
	}
	defer player.Close()

	if err := player.Play(context.Background(), samples, cfg.TargetChannels, cfg.TargetSampleRate); err != nil {
		cmd.PrintErrf("Error during playback: %v\n", err)
		slog.Error("playback failed", "error", err)
		return fmt.Errorf("error during playback: %w", err)
	}

	slog.Info("playback completed", "bytes", len(samples))
	return nil
}

// writeConverted writes the converted samples as a WAV file
func writeConverted(cmd *cobra.Command, outputPath string, samples []byte, cfg *config.Config) error {
	out, err := os.Create(outputPath)
	if err != nil {
		cmd.PrintErrf("Error creating output file: %v\n", err)
		slog.Error("failed to create output file", "path", outputPath, "error", err)
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer out.Close()

	if err := decode.WriteWav(out, samples, cfg.TargetChannels, cfg.TargetSampleRate); err != nil {
		cmd.PrintErrf("Error writing output file: %v\n", err)
		slog.Error("failed to write output file", "path", outputPath, "error", err)
		return fmt.Errorf("error writing output file: %w", err)
	}

	cmd.Printf("wrote %s (%d bytes, %d Hz, %d channels)\n",
		outputPath, len(samples), cfg.TargetSampleRate, cfg.TargetChannels)
	slog.Info("output written", "path", outputPath, "bytes", len(samples))
	return nil
}

// defaultOutputPath derives an output filename from the input path
func defaultOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	stem := strings.TrimSuffix(inputPath, ext)
	return stem + ".converted.wav"
}
