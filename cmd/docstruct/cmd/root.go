// Package cmd implements the docstruct command line.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/docstruct/internal/config"
	"github.com/MeKo-Tech/docstruct/internal/store"
	"github.com/MeKo-Tech/docstruct/internal/version"
)

// app holds the state shared by one command tree: the config file flag and
// the configuration resolved before any subcommand runs.
type app struct {
	cfgFile string
	loader  *config.Loader
	cfg     *config.Config
}

// NewRootCommand builds the complete docstruct command tree. Every call
// returns an independent tree with its own viper instance.
func NewRootCommand() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "docstruct",
		Short: "Structure OCR output of financial and legal documents",
		Long: `docstruct turns raw OCR tokens of Cyrillic and Latin financial and legal
documents into structured results.

This tool provides:
- Line assembly from positioned OCR tokens
- OCR error correction for mixed Cyrillic/Latin text
- Heading detection with sections and paragraphs
- Normalization and validation of amounts, dates, IBAN, BIC and BIN/IIN
- Both CLI and server modes, plus an MCP tool server

Examples:
  docstruct structure scan.json
  docstruct structure contract.pdf --pages 1-3 --format text
  docstruct batch scans/ --recursive --workers 8
  docstruct serve --port 8080`,
		Version:           version.String(),
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetVersionTemplate("docstruct version {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "",
		"config file (default is search in ., $HOME, /etc/docstruct, $HOME/.config/docstruct)")
	pf.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newStructureCommand(a),
		newCorrectCommand(a),
		newFieldsCommand(a),
		newCropCommand(a),
		newBatchCommand(a),
		newServeCommand(a),
		newMCPCommand(a),
		newEvalCommand(a),
		newConfigCommand(a),
	)
	return rootCmd
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration, applies the global flags and installs the
// default logger. Logs go to stderr so stdout stays clean for results and
// the MCP stdio transport.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	a.loader = config.NewLoaderWithViper(viper.New())
	cfg, err := a.loader.LoadWithFile(a.cfgFile)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	if cmd.Flags().Changed("verbose") {
		cfg.Verbose, _ = cmd.Flags().GetBool("verbose")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	a.cfg = cfg

	slog.SetDefault(newLogger(cmd.ErrOrStderr(), cfg))
	return nil
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: logLevel(cfg)}
	if strings.EqualFold(cfg.Log.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func logLevel(cfg *config.Config) slog.Level {
	if cfg.Verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openStore opens the result store when --store is set or the config
// enables it. It returns nil when storing is off.
func (a *app) openStore(cmd *cobra.Command) (*store.Store, error) {
	enabled := a.cfg.Store.Enabled
	if cmd.Flags().Changed("store") {
		enabled, _ = cmd.Flags().GetBool("store")
	}
	if !enabled {
		return nil, nil
	}

	path := a.cfg.Store.Path
	if cmd.Flags().Changed("store-path") {
		path, _ = cmd.Flags().GetString("store-path")
	}
	if path == "" {
		path = config.DefaultStorePath
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	slog.Debug("Opened result store", "path", path)
	return st, nil
}

func addStoreFlags(fs *pflag.FlagSet) {
	fs.Bool("store", false, "persist results in the SQLite result store")
	fs.String("store-path", config.DefaultStorePath, "SQLite database file for --store")
}

// writeOutput writes out to file, or to the command's stdout when file is empty.
func writeOutput(cmd *cobra.Command, out, file string) error {
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	if file == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), out)
		return err
	}
	if err := os.WriteFile(file, []byte(out), 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	slog.Info("Results written", "file", file)
	return nil
}

// readInput reads the named file, or stdin when name is empty or "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "" || name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(name) //nolint:gosec // G304: reading user-provided input file is expected
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}
