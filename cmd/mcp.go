package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ocsf-tools/ocsf-json-schema/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for agent integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets MCP clients look up OCSF schemas and validate events natively.
Configure in Claude Code with:

  {
    "mcpServers": {
      "ocsf-schema": { "command": "ocsf-schema", "args": ["mcp"] }
    }
  }

Available tools: ocsf_list_classes, ocsf_list_objects, ocsf_class_schema,
ocsf_object_schema, ocsf_validate_event`,
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := loadSchema(cmd)
		if err != nil {
			return err
		}
		return mcp.NewServer(schema).ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
