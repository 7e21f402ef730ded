// Command hero runs the HERO desktop voice assistant.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-hero/internal/config"
	"github.com/teslashibe/go-hero/internal/log"
	"github.com/teslashibe/go-hero/pkg/hero"
	"github.com/teslashibe/go-hero/pkg/tools"
)

var version = "dev"

type flags struct {
	debug      bool
	envFile    string
	configFile string
	noAudio    bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:     "hero",
		Short:   "HERO - a Hinglish desktop voice assistant",
		Version: version,
		// Running with no subcommand starts the assistant.
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAssistant(cmd.Context(), f)
		},
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.PersistentFlags().BoolVar(&f.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&f.envFile, "env-file", ".env", "Environment file to load")
	root.PersistentFlags().StringVar(&f.configFile, "config", "", "YAML config file (default hero.yaml when present)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start the voice assistant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAssistant(cmd.Context(), f)
		},
	}
	for _, c := range []*cobra.Command{root, runCmd} {
		c.Flags().BoolVar(&f.noAudio, "no-audio", false, "Run without microphone and speaker")
	}

	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the tool manifest declared to the voice runtime",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := registry(f)
			if err != nil {
				return err
			}
			manifest, err := r.ManifestJSON()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(manifest))
			return err
		},
	}

	invokeCmd := &cobra.Command{
		Use:   "invoke <tool> [json-args]",
		Short: "Invoke one tool and print the text it returns",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			callArgs := tools.Args{}
			if len(args) == 2 {
				if err := json.Unmarshal([]byte(args[1]), &callArgs); err != nil {
					return fmt.Errorf("invalid json arguments: %w", err)
				}
			}
			r, err := registry(f)
			if err != nil {
				return err
			}
			out := r.Dispatch(cmd.Context(), tools.NewInvocation(args[0], callArgs))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}

	root.AddCommand(runCmd, toolsCmd, invokeCmd)
	return root
}

func load(f *flags) (*config.Config, error) {
	settings, err := config.Load(f.envFile, f.configFile)
	if err != nil {
		return nil, err
	}
	level := settings.LogLevel
	if f.debug {
		level = "debug"
	}
	log.Init(level)
	return settings, nil
}

func registry(f *flags) (*tools.Registry, error) {
	settings, err := load(f)
	if err != nil {
		return nil, err
	}
	return hero.NewRegistry(hero.ToolsConfig{Settings: settings, Logger: log.L()})
}

func runAssistant(ctx context.Context, f *flags) error {
	settings, err := load(f)
	if err != nil {
		return err
	}

	app := hero.New(hero.Config{Settings: settings, Debug: f.debug, NoAudio: f.noAudio})
	if err := app.Init(); err != nil {
		log.Error("initialisation failed", "error", err)
		return err
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return app.Run(ctx)
}
