package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xvierd/keeper/internal/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol (MCP) server for integration with AI assistants.
The server provides tools for reading and driving the timer and for querying
the completion log. The timer daemon must be running.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the protocol
		fmt.Fprintln(os.Stderr, "🚀 Starting MCP server on stdio. Press Ctrl+C to stop.")

		server := mcp.NewServer(app.state)
		if err := server.Start(context.Background()); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}

		return nil
	},
}
