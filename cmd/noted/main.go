// Package main runs the Noted capture client: a voice-driven note taker
// with wake-phrase listening, capture sessions, local persistence, remote
// archival, and an AI assistant for spoken questions.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/notedhq/noted/pkg/archive"
	"github.com/notedhq/noted/pkg/assistant"
	"github.com/notedhq/noted/pkg/capture"
	"github.com/notedhq/noted/pkg/config"
	"github.com/notedhq/noted/pkg/llm"
	"github.com/notedhq/noted/pkg/llm/gemini"
	"github.com/notedhq/noted/pkg/llm/openai"
	"github.com/notedhq/noted/pkg/logging"
	"github.com/notedhq/noted/pkg/storage"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file (optional)")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Noted - a voice-driven capture client\n\n")
		fmt.Fprintf(os.Stderr, "Usage: noted [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  GEMINI_API_KEY        Gemini API key (primary assistant)\n")
		fmt.Fprintf(os.Stderr, "  GOOGLE_API_KEY        Alternative Gemini API key variable\n")
		fmt.Fprintf(os.Stderr, "  OPENAI_API_KEY        OpenAI API key (assistant fallback)\n")
		fmt.Fprintf(os.Stderr, "  NOTED_ARCHIVE_TOKEN   Bearer token for the archive service\n")
		fmt.Fprintf(os.Stderr, "\nConsole commands:\n")
		fmt.Fprintf(os.Stderr, "  Type transcription lines, or /photo, /main, /main-long, /camera-long, /quit\n")
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("Noted v%s\n", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down gracefully...")
		cancel()
	}()

	if err := run(ctx, cfg); err != nil {
		cancel()
		log.Fatalf("Application error: %v", err)
	}
	cancel()
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.NewLogger("main")
	if err != nil {
		// The fallback logger is already writing to stderr; keep going.
		fmt.Fprintf(os.Stderr, "File logging unavailable: %v\n", err)
	}
	defer logger.Close()

	logger.Infof("Noted v%s starting", version)

	store, err := storage.NewStore(cfg.WorkDir, logger)
	if err != nil {
		return fmt.Errorf("failed to open working directory: %w", err)
	}

	var archiveClient *archive.Client
	if cfg.Archive.BaseURL != "" {
		archiveClient = archive.NewClient(cfg.Archive.BaseURL, cfg.Archive.Token, logger)

		notifier, err := archive.NewNotifier(cfg.Archive.BaseURL, cfg.Archive.Token, logger)
		if err != nil {
			logger.Warnf("Archive notifications unavailable: %v", err)
		} else {
			go notifier.Run(ctx, func(event archive.Event) {
				logger.Infof("Archive event %s: %s", event.EventType, event.Message)
			})
		}
	} else {
		logger.Infof("No archive configured, captures stay local")
	}

	dev := newConsoleDevice(os.Stdout)
	orch := capture.New(capture.Options{
		Device:          dev,
		Store:           store,
		Archive:         archiveClient,
		Assistant:       buildAssistant(cfg, logger),
		Logger:          logger,
		WakeWords:       cfg.Capture.WakeWords,
		StopWords:       cfg.Capture.StopWords,
		AutoCapture:     cfg.Capture.AutoCapture,
		CaptureInterval: cfg.Capture.CaptureInterval.Duration(),
		SpeakTimeout:    cfg.Capture.SpeakTimeout.Duration(),
	})

	if err := orch.Start(ctx); err != nil {
		return err
	}
	defer orch.Shutdown()

	return runConsole(ctx, orch)
}

// buildAssistant constructs the answer chain from whatever credentials are
// configured. Missing providers degrade features rather than failing
// startup; a fully unconfigured assistant is nil.
func buildAssistant(cfg *config.Config, logger *logging.Logger) *assistant.Chain {
	var primary llm.Provider
	geminiOpts := []gemini.ProviderOption{}
	if cfg.Assistant.GeminiModel != "" {
		geminiOpts = append(geminiOpts, gemini.WithModel(cfg.Assistant.GeminiModel))
	}
	if p, err := gemini.NewProvider(cfg.Assistant.GeminiAPIKey, geminiOpts...); err != nil {
		logger.Warnf("Gemini provider unavailable: %v", err)
	} else {
		primary = p
	}

	var secondary llm.Provider
	openaiOpts := []openai.ProviderOption{}
	if cfg.Assistant.OpenAIModel != "" {
		openaiOpts = append(openaiOpts, openai.WithModel(cfg.Assistant.OpenAIModel))
	}
	if p, err := openai.NewProvider(cfg.Assistant.OpenAIAPIKey, openaiOpts...); err != nil {
		logger.Warnf("OpenAI provider unavailable: %v", err)
	} else {
		secondary = p
	}

	if primary == nil && secondary == nil {
		logger.Warnf("No assistant providers configured, questions will be apologized away")
		return nil
	}

	fallbackModel := cfg.Assistant.GeminiFallbackModel
	if fallbackModel == "" {
		fallbackModel = gemini.DefaultModel
	}
	return assistant.NewChain(primary, fallbackModel, secondary, logger)
}
