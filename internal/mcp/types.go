// Package mcp exposes tasks and the weekly report to MCP clients.
package mcp

import (
	"github.com/josephgoksu/azubihub/internal/report"
	"github.com/josephgoksu/azubihub/internal/task"
)

// TaskAction defines the valid actions for the tasks tool.
type TaskAction string

const (
	TaskActionList   TaskAction = "list"
	TaskActionAdd    TaskAction = "add"
	TaskActionToggle TaskAction = "toggle"
)

// ValidTaskActions returns all valid task actions.
func ValidTaskActions() []TaskAction {
	return []TaskAction{TaskActionList, TaskActionAdd, TaskActionToggle}
}

// IsValid checks if the action is a valid task action.
func (a TaskAction) IsValid() bool {
	switch a {
	case TaskActionList, TaskActionAdd, TaskActionToggle:
		return true
	}
	return false
}

// TasksParams defines the parameters for the tasks tool.
type TasksParams struct {
	Action   TaskAction `json:"action" jsonschema:"one of list, add, toggle"`
	Category string     `json:"category,omitempty" jsonschema:"Betrieb, Berufsschule or Sonstiges; filters list and sets the category on add"`
	Text     string     `json:"text,omitempty" jsonschema:"task text, required for add"`
	DueDate  string     `json:"dueDate,omitempty" jsonschema:"optional due date YYYY-MM-DD for add"`
	ID       string     `json:"id,omitempty" jsonschema:"task id, required for toggle"`
}

// TasksResult is the response of the tasks tool.
type TasksResult struct {
	Action  string      `json:"action"`
	Tasks   []task.Task `json:"tasks,omitempty"`
	Task    *task.Task  `json:"task,omitempty"`
	XP      int         `json:"xp"`
	Content string      `json:"content"`
	Error   string      `json:"error,omitempty"`
}

// ReportPeriodParams defines the parameters for the report_period tool.
type ReportPeriodParams struct {
	Date string `json:"date,omitempty" jsonschema:"any day of the week as YYYY-MM-DD, today when empty"`
}

// ReportPeriodResult describes one reporting week.
type ReportPeriodResult struct {
	Period    report.Period `json:"period"`
	DateRange string        `json:"dateRange"`
	TaskCount int           `json:"taskCount"`
	Done      bool          `json:"done"`
	Content   string        `json:"content"`
	Error     string        `json:"error,omitempty"`
}

// GenerateReportParams defines the parameters for the generate_report tool.
type GenerateReportParams struct {
	Date   string `json:"date,omitempty" jsonschema:"any day of the week as YYYY-MM-DD, today when empty"`
	Style  string `json:"style,omitempty" jsonschema:"Formal, Concise or Detailed"`
	Number string `json:"number,omitempty" jsonschema:"optional running report number"`
}

// GenerateReportResult carries the generated report.
type GenerateReportResult struct {
	Period   report.Period  `json:"period"`
	Report   report.Content `json:"report"`
	Fallback bool           `json:"fallback"`
	Content  string         `json:"content"`
	Error    string         `json:"error,omitempty"`
}
