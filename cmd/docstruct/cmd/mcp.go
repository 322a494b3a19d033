package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/docstruct/internal/mcp"
)

func newMCPCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run an MCP tool server on stdio",
		Long: `Serve the structuring operations as Model Context Protocol tools over
stdin and stdout: build_sections, correct_items, fix_fields,
validate_fields and structure_document.

Logs are written to stderr so they never mix with protocol messages.

Example client configuration:
  {"command": "docstruct", "args": ["mcp"]}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			if !cmd.Flags().Changed("name") {
				name = a.cfg.MCP.Name
			}
			srv, err := mcp.NewServer(mcp.Config{
				Name:     name,
				Version:  a.cfg.MCP.Version,
				Pipeline: a.cfg.ToPipelineConfig(),
				Source:   a.cfg.ToSourceOptions(),
			})
			if err != nil {
				return fmt.Errorf("failed to initialize MCP server: %w", err)
			}
			return srv.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().String("name", "docstruct", "server name announced to clients")
	return cmd
}
