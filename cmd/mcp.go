package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/azubihub/internal/app"
	"github.com/josephgoksu/azubihub/internal/logger"
	"github.com/josephgoksu/azubihub/internal/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for AI tool integration",
	Long: `Start a Model Context Protocol (MCP) server so AI assistants can read
and update your tasks and write your weekly report.

The server runs over stdin/stdout until the client disconnects. Tools:
  tasks            list, add or toggle tasks
  report_period    the reporting week for a date
  generate_report  write the weekly report`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		// stdout carries the protocol.
		slog.SetDefault(logger.New(logger.Options{Level: "warn", Format: "json", Out: cmd.ErrOrStderr()}))

		rt, err := openRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		server := mcp.NewServer(func(ctx context.Context) (*app.Session, error) {
			return rt.session(ctx)
		}, mcp.Options{Version: version, Lang: rt.lang, Logger: rt.logger, Now: now})
		return mcp.Run(ctx, server)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
