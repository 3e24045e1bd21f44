package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	mcpserver "github.com/lukman83/components-radar/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP stdio server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Fprintln(cmd.ErrOrStderr(), "Starting Components Radar MCP server on stdio...")

	if err := mcpserver.Serve(a); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
