package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/docstruct/internal/config"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and generate configuration files",
		Long: `Configuration is read from docstruct.yaml in the search paths, then from
DOCSTRUCT_* environment variables (for example DOCSTRUCT_SERVER_PORT=9090),
then from command line flags.`,
	}
	cmd.AddCommand(newConfigGenerateCommand(), newConfigShowCommand(a), newConfigPathCommand(a))
	return cmd
}

func newConfigGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [file]",
		Short: "Write a configuration file with the default values",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := firstArg(args)
			if name == "" {
				name = config.ConfigFileName + ".yaml"
			}
			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(name); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", name)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := config.GenerateDefaultConfigFile(name); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", name)
			return err
		},
	}
	cmd.Flags().Bool("force", false, "overwrite an existing file")
	return cmd
}

func newConfigShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			return writeOutput(cmd, string(data), "")
		},
	}
}

func newConfigPathCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the configuration file in use and the search paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			used := a.loader.GetConfigFileUsed()
			if used == "" {
				used = "(none, using defaults)"
			}
			var b strings.Builder
			fmt.Fprintf(&b, "Config file: %s\n", used)
			b.WriteString("Search paths:\n")
			for _, p := range config.GetConfigSearchPaths() {
				fmt.Fprintf(&b, "  %s\n", p)
			}
			return writeOutput(cmd, b.String(), "")
		},
	}
}
