// Package cli is the docpicker command line: the document server, the
// terminal path picker and a headless uploader.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/BrandonIrizarry/docpicker/internal/client"
	"github.com/BrandonIrizarry/docpicker/internal/config"
	"github.com/BrandonIrizarry/docpicker/internal/logging"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// globals holds the persistent flags and the config they produce.
type globals struct {
	cfgFile   string
	logLevel  string
	serverURL string

	cfg config.Config
}

// load reads the config file, applies flag overrides on top and
// validates the result.
func (g *globals) load() error {
	cfg, err := config.Read(g.cfgFile)
	if err != nil {
		return err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.serverURL != "" {
		cfg.Client.ServerURL = g.serverURL
	}
	if err := cfg.Check(); err != nil {
		return err
	}
	g.cfg = cfg
	return nil
}

func (g *globals) client(log zerolog.Logger, extra ...client.Option) *client.Client {
	opts := []client.Option{
		client.WithRetryMax(g.cfg.Client.RetryMax),
		client.WithTimeout(time.Duration(g.cfg.Client.TimeoutSeconds) * time.Second),
		client.WithLogger(log),
	}
	return client.New(g.cfg.Client.ServerURL, append(opts, extra...)...)
}

// stderrLogger is the logger of commands that own no terminal UI.
func (g *globals) stderrLogger() zerolog.Logger {
	return logging.New(os.Stderr, g.cfg.Log.Level)
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   "docpicker",
		Short: "Document path picker and upload server",
		Long: `docpicker serves and picks documents for document loader nodes.

  docpicker serve             run the getpath and upload/document server
  docpicker pick              open the path autocomplete popup
  docpicker upload FILE...    upload documents as if dropped on a node
  docpicker ls [PATH]         list path suggestions`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&g.cfgFile, "config", "c", "", "configuration file (default "+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&g.serverURL, "server-url", "", "document server URL (overrides config)")

	rootCmd.AddCommand(
		newServeCmd(g),
		newPickCmd(g),
		newUploadCmd(g),
		newLsCmd(g),
	)

	return rootCmd
}

// Execute runs the root command with a context cancelled on SIGINT and
// SIGTERM, and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		stop()
		os.Exit(1)
	}
}
