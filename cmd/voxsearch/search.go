package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"voxsearch/config"
	"voxsearch/internal/application"
	"voxsearch/internal/console"
	"voxsearch/internal/infra/audio"
	"voxsearch/internal/infra/gateway"
	"voxsearch/internal/infra/notify"
	"voxsearch/internal/infra/openai"
	"voxsearch/internal/infra/speech"
)

func searchCmd() *cobra.Command {
	var endpoint, source string

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Open the interactive search console",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if endpoint != "" {
				cfg.Client.Endpoint = endpoint
			}
			if source != "" {
				cfg.Speech.Source = source
			}
			// stdout belongs to the console
			return runSearch(cfg, setupLogger(cfg.Log, os.Stderr))
		},
	}

	cmd.Flags().StringVar(&endpoint, "endpoint", "", "relay search URL (overrides client.endpoint)")
	cmd.Flags().StringVar(&source, "source", "", "speech source: microphone, file or none (overrides speech.source)")
	return cmd
}

func runSearch(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signalContext()
	defer stop()

	locales, err := cfg.LocaleSet()
	if err != nil {
		return err
	}

	view := console.NewView(os.Stdout)
	session := application.NewSearchSession(
		newCapability(cfg, logger),
		gateway.NewClient(cfg.Client.Endpoint, durationOr(cfg.Client.Timeout, 60*time.Second), logger),
		newNotifier(cfg, view),
		view,
		locales,
		logger,
	)
	defer session.Close()

	repl, err := console.NewREPL(session, view, cfg.Client.HistoryFile, logger)
	if err != nil {
		return err
	}

	if err := session.Init(ctx); err != nil {
		return fmt.Errorf("initializing voice input: %w", err)
	}

	return repl.Run(ctx)
}

func newCapability(cfg *config.Config, logger *slog.Logger) application.SpeechCapability {
	var source speech.Source
	switch cfg.Speech.Source {
	case "none":
		return application.UnavailableCapability{Why: "voice input disabled (speech.source: none)"}
	case "file":
		source = audio.NewFileSource(cfg.Speech.FileDir)
	default:
		source = audio.NewMicrophoneSource(audio.MicrophoneConfig{
			SampleRate:      cfg.Speech.SampleRate,
			TrailingSilence: durationOr(cfg.Speech.Silence, time.Second),
			MaxDuration:     durationOr(cfg.Speech.MaxDuration, 10*time.Second),
		}, logger)
	}

	if cfg.OpenAI.APIKey == "" {
		return speech.NewCapability(source, nil, logger)
	}

	stt := openai.NewWhisperClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model).
		WithRetry(retryConfig(cfg.Retry))
	return speech.NewCapability(source, stt, logger)
}

func newNotifier(cfg *config.Config, view *console.View) application.Notifier {
	channels := notify.Fanout{view}
	if cfg.Notify.Desktop {
		channels = append(channels, notify.NewDesktop(cfg.Notify.Title))
	}
	if cfg.Notify.Pushover.Enabled {
		channels = append(channels, notify.NewPushover(cfg.Notify.Pushover.Token, cfg.Notify.Pushover.UserKey, cfg.Notify.Title))
	}
	return channels
}
