// Package cli wires the carecheck commands.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carecheck/attendance-engine/config"
	"github.com/carecheck/attendance-engine/logging"
)

// ErrFindings is returned by check commands run with --fail-on-findings
// when the report is not clean.
var ErrFindings = errors.New("check reported findings")

// App holds what every command needs once flags are parsed.
type App struct {
	Config *config.Config
	Logger *zap.Logger

	configPath string
	format     string
	logLevel   string

	// IsTerminal reports whether stdout is interactive; it decides the
	// default output format.
	IsTerminal func() bool
}

// NewRootCmd creates the top-level "carecheck" command and registers all
// subcommands.
func NewRootCmd() *cobra.Command {
	app := &App{
		IsTerminal: func() bool {
			fd := os.Stdout.Fd()
			return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		},
	}

	root := &cobra.Command{
		Use:           "carecheck",
		Short:         "Reconcile eldercare schedules against attendance logs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Logger != nil {
				_ = app.Logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&app.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&app.format, "format", "auto", "Output format: text, json or auto (text on a terminal)")
	root.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(app),
		newVerifyCmd(app),
		newTimesCmd(app),
		newVehiclesCmd(app),
	)

	return root
}

func (a *App) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	switch a.format {
	case "auto", "text", "json":
	default:
		return fmt.Errorf("unknown --format %q (valid: text, json, auto)", a.format)
	}

	// one-shot commands log for a human; serve keeps the configured format
	format := cfg.Log.Format
	if cmd.Name() != "serve" {
		format = "console"
	}
	logger, err := logging.New(cfg.Log.Level, format)
	if err != nil {
		return err
	}

	a.Config = cfg
	a.Logger = logger
	return nil
}

func (a *App) wantsText() bool {
	switch a.format {
	case "text":
		return true
	case "json":
		return false
	default:
		return a.IsTerminal != nil && a.IsTerminal()
	}
}

// output writes the report as text or indented JSON.
func (a *App) output(w io.Writer, text func(io.Writer) error, data any) error {
	if a.wantsText() {
		return text(w)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
