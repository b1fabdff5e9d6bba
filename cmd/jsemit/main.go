package main

import (
	"context"
	"os"
	"runtime/debug"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	attach_maps "github.com/walteh/jsemit/cmd/jsemit/attach-maps"
	decode_map "github.com/walteh/jsemit/cmd/jsemit/decode-map"
	expand_template "github.com/walteh/jsemit/cmd/jsemit/expand-template"
	jsdebug "github.com/walteh/jsemit/pkg/debug"
	"gitlab.com/tozd/go/errors"
)

func main() {
	if err := run(); err != nil {
		println(err.Error())
		os.Exit(1)
	}
}

type rootFlags struct {
	logLevel string
	caller   bool
	json     bool
}

func run() error {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "jsemit",
		Short:         "Expand inline templates and attach source maps to generated JavaScript",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flags.caller, "log-caller", false, "add the caller to log lines")
	rootCmd.PersistentFlags().BoolVar(&flags.json, "log-json", false, "write logs as JSON")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		ctx, err := jsdebug.WithLogger(cmd.Context(), cmd.ErrOrStderr(), jsdebug.LoggerOptions{
			Level:     flags.logLevel,
			Console:   !flags.json,
			WithColor: !color.NoColor,
			Caller:    flags.caller,
		})
		if err != nil {
			return err
		}
		cmd.SetContext(ctx)
		return nil
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		rootCmd.Version = "unknown"
	} else {
		rootCmd.Version = info.Main.Version
	}

	cmdVersion := &cobra.Command{
		Use: "raw-version",
		Run: func(cmdz *cobra.Command, args []string) {
			cmdz.Println(rootCmd.Version)
		},
		Hidden: true,
	}

	rootCmd.AddCommand(cmdVersion)

	rootCmd.AddCommand(expand_template.NewExpandTemplateCommand())
	rootCmd.AddCommand(attach_maps.NewAttachMapsCommand())
	rootCmd.AddCommand(decode_map.NewDecodeMapCommand())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		return errors.Errorf("failed to execute command: %w", err)
	}

	return nil
}
