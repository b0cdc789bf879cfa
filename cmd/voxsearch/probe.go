package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"voxsearch/internal/console"
	"voxsearch/internal/infra/audio"
)

func probeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Report whether voice input works on this host",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.Log, os.Stderr)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "speech source:      %s\n", cfg.Speech.Source)
			fmt.Fprintf(out, "portaudio built in: %t\n", audio.MicrophoneSupported)

			capability := newCapability(cfg, logger)
			if capability.Available() {
				fmt.Fprintln(out, "voice input:        available")
			} else {
				fmt.Fprintf(out, "voice input:        unavailable (%s)\n", capability.Reason())
			}

			locales, err := cfg.LocaleSet()
			if err != nil {
				return err
			}
			for _, l := range locales.All() {
				fmt.Fprintf(out, "locale %-12s%s  %q\n", l, l.DisplayName(), console.Placeholder(l))
			}
			return nil
		},
	}
}
