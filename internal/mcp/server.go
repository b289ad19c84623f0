package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/josephgoksu/azubihub/internal/app"
	"github.com/josephgoksu/azubihub/internal/i18n"
)

// SessionFunc returns the session the tools act on.
type SessionFunc func(ctx context.Context) (*app.Session, error)

// Options configure the MCP server.
type Options struct {
	Version string
	Lang    i18n.Lang
	Logger  *slog.Logger
	Now     func() time.Time
}

// NewServer creates the MCP server with all tools registered.
func NewServer(session SessionFunc, opts Options) *mcp.Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Lang == "" {
		opts.Lang = i18n.Default
	}

	server := mcp.NewServer(&mcp.Implementation{Name: "azubihub", Version: opts.Version}, &mcp.ServerOptions{})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "tasks",
		Description: "List, add or toggle the apprentice's tasks. Completing a task earns 50 XP.",
	}, tasksHandler(session, opts))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "report_period",
		Description: "Show the reporting week (Monday to Saturday) for a date, with the number of completed tasks and whether the report is done.",
	}, reportPeriodHandler(session, opts))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_report",
		Description: "Write the weekly training report (Berichtsheft) from the tasks completed in that week.",
	}, generateReportHandler(session, opts))

	return server
}

// Run serves the tools over stdin/stdout until the client disconnects.
func Run(ctx context.Context, server *mcp.Server) error {
	if err := server.Run(ctx, mcp.NewStdioTransport()); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

func textResult(text string) []mcp.Content {
	return []mcp.Content{&mcp.TextContent{Text: text}}
}

func errorText(content, errMsg string) string {
	if errMsg != "" {
		return "Error: " + errMsg
	}
	return content
}

func tasksHandler(session SessionFunc, opts Options) mcp.ToolHandlerFor[TasksParams, TasksResult] {
	return func(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[TasksParams]) (*mcp.CallToolResultFor[TasksResult], error) {
		opts.Logger.Debug("mcp tool call", "tool", "tasks", "action", params.Arguments.Action)
		sess, err := session(ctx)
		if err != nil {
			return nil, err
		}
		res, err := HandleTasksTool(ctx, sess, params.Arguments)
		if err != nil {
			return nil, err
		}
		return &mcp.CallToolResultFor[TasksResult]{
			Content:           textResult(errorText(res.Content, res.Error)),
			StructuredContent: *res,
			IsError:           res.Error != "",
		}, nil
	}
}

func reportPeriodHandler(session SessionFunc, opts Options) mcp.ToolHandlerFor[ReportPeriodParams, ReportPeriodResult] {
	return func(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[ReportPeriodParams]) (*mcp.CallToolResultFor[ReportPeriodResult], error) {
		opts.Logger.Debug("mcp tool call", "tool", "report_period")
		sess, err := session(ctx)
		if err != nil {
			return nil, err
		}
		res, err := HandleReportPeriod(sess, params.Arguments, opts.Now())
		if err != nil {
			return nil, err
		}
		return &mcp.CallToolResultFor[ReportPeriodResult]{
			Content:           textResult(errorText(res.Content, res.Error)),
			StructuredContent: *res,
			IsError:           res.Error != "",
		}, nil
	}
}

func generateReportHandler(session SessionFunc, opts Options) mcp.ToolHandlerFor[GenerateReportParams, GenerateReportResult] {
	return func(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[GenerateReportParams]) (*mcp.CallToolResultFor[GenerateReportResult], error) {
		opts.Logger.Debug("mcp tool call", "tool", "generate_report")
		sess, err := session(ctx)
		if err != nil {
			return nil, err
		}
		res, err := HandleGenerateReport(ctx, sess, params.Arguments, opts.Now(), opts.Lang)
		if err != nil {
			return nil, err
		}
		return &mcp.CallToolResultFor[GenerateReportResult]{
			Content:           textResult(errorText(res.Content, res.Error)),
			StructuredContent: *res,
			IsError:           res.Error != "",
		}, nil
	}
}
