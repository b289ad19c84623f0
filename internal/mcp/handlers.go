package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/josephgoksu/azubihub/internal/app"
	"github.com/josephgoksu/azubihub/internal/i18n"
	"github.com/josephgoksu/azubihub/internal/report"
	"github.com/josephgoksu/azubihub/internal/task"
)

// Domain failures are reported in the result's Error field so the client
// model can read and correct them. Only infrastructure failures are returned
// as errors.

// HandleTasksTool lists, adds or toggles tasks.
func HandleTasksTool(ctx context.Context, sess *app.Session, params TasksParams) (*TasksResult, error) {
	if params.Action == "" {
		params.Action = TaskActionList
	}
	if !params.Action.IsValid() {
		return &TasksResult{
			Action: string(params.Action),
			Error:  fmt.Sprintf("invalid action %q, must be one of: list, add, toggle", params.Action),
		}, nil
	}

	res := &TasksResult{Action: string(params.Action)}
	switch params.Action {
	case TaskActionList:
		tasks := sess.Tasks().List()
		if params.Category != "" {
			c, err := task.ParseCategory(params.Category)
			if err != nil {
				res.Error = err.Error()
				return res, nil
			}
			tasks = sess.Tasks().Filter(c)
		}
		res.Tasks = tasks
		res.Content = FormatTasks(tasks)

	case TaskActionAdd:
		d := task.Draft{Text: params.Text, DueDate: params.DueDate, Category: task.CategoryWorkplace}
		if params.Category != "" {
			c, err := task.ParseCategory(params.Category)
			if err != nil {
				res.Error = err.Error()
				return res, nil
			}
			d.Category = c
		}
		t, err := sess.Tasks().Add(ctx, d)
		if err != nil {
			res.Error = err.Error()
			return res, nil
		}
		res.Task = &t
		res.Content = "Added " + FormatTask(t)

	case TaskActionToggle:
		if strings.TrimSpace(params.ID) == "" {
			res.Error = "id is required for toggle"
			return res, nil
		}
		t, err := sess.Tasks().Toggle(ctx, params.ID)
		if err != nil {
			res.Error = err.Error()
			return res, nil
		}
		res.Task = &t
		res.Content = FormatTask(t)
	}
	res.XP = sess.Progress().XP
	return res, nil
}

// HandleReportPeriod describes the reporting week containing params.Date.
func HandleReportPeriod(sess *app.Session, params ReportPeriodParams, now time.Time) (*ReportPeriodResult, error) {
	anchor, err := anchorDate(params.Date, now)
	if err != nil {
		return &ReportPeriodResult{Error: err.Error()}, nil
	}
	p := report.PeriodFor(anchor)
	sel := report.Select(sess.Tasks().List(), p)
	res := &ReportPeriodResult{
		Period:    p,
		DateRange: p.DateRange(),
		TaskCount: sel.Count(),
		Done:      sess.Ledger().IsReportDone(p.ID),
	}
	res.Content = FormatPeriod(res)
	return res, nil
}

// HandleGenerateReport writes the report for the week of params.Date.
func HandleGenerateReport(ctx context.Context, sess *app.Session, params GenerateReportParams, now time.Time, lang i18n.Lang) (*GenerateReportResult, error) {
	anchor, err := anchorDate(params.Date, now)
	if err != nil {
		return &GenerateReportResult{Error: err.Error()}, nil
	}
	style, err := report.ParseStyle(params.Style)
	if err != nil {
		return &GenerateReportResult{Error: err.Error()}, nil
	}

	out, err := sess.GenerateReport(ctx, report.Request{
		Anchor: anchor,
		Style:  style,
		Number: params.Number,
		Lang:   lang,
	})
	if err != nil {
		return &GenerateReportResult{Period: report.PeriodFor(anchor), Error: err.Error()}, nil
	}
	return &GenerateReportResult{
		Period:   out.Period,
		Report:   out.Content,
		Fallback: out.Fallback,
		Content:  FormatReport(out),
	}, nil
}

func anchorDate(s string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return now, nil
	}
	return report.ParseDate(s, now.Location())
}
