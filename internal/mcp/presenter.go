package mcp

import (
	"fmt"
	"strings"

	"github.com/josephgoksu/azubihub/internal/report"
	"github.com/josephgoksu/azubihub/internal/task"
)

// FormatTasks renders tasks as a Markdown checklist.
func FormatTasks(tasks []task.Task) string {
	if len(tasks) == 0 {
		return "No tasks found."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Tasks (%d)\n", len(tasks)))
	for _, t := range tasks {
		sb.WriteString("- ")
		sb.WriteString(FormatTask(t))
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatTask renders one task on a single line.
// Format: [x] Text (Category, due 2024-03-20) `id`
func FormatTask(t task.Task) string {
	mark := "[ ]"
	if t.Completed {
		mark = "[x]"
	}
	meta := string(t.Category)
	if t.DueDate != "" {
		meta += ", due " + t.DueDate
	}
	return fmt.Sprintf("%s %s (%s) `%s`", mark, t.Text, meta, t.ID)
}

// FormatPeriod renders the reporting week summary.
func FormatPeriod(r *ReportPeriodResult) string {
	status := "open"
	if r.Done {
		status = "done"
	}
	return fmt.Sprintf("**KW %d/%d** (%s): %d completed tasks, report %s", r.Period.Week, r.Period.Year, r.DateRange, r.TaskCount, status)
}

// FormatReport renders a generated report with one section per field.
func FormatReport(res report.Result) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Ausbildungsnachweis KW %d (%s)\n\n", res.Period.Week, res.Period.DateRange()))
	section := func(title, body string) {
		if strings.TrimSpace(body) == "" {
			return
		}
		sb.WriteString("## " + title + "\n")
		sb.WriteString(strings.TrimSpace(body))
		sb.WriteString("\n\n")
	}
	section("Betriebliche Tätigkeiten", res.Content.Workplace)
	section("Unterweisungen", res.Content.Instruction)
	section("Berufsschule", res.Content.School)
	hours := res.Content.TotalHours
	if hours == "" {
		hours = report.DefaultTotalHours
	}
	sb.WriteString("Gesamtstunden: " + hours)
	if res.Fallback {
		sb.WriteString("\n\n_The model answer could not be read; the text above is a placeholder._")
	}
	return sb.String()
}
