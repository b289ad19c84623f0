package ui

import (
	"fmt"
	"strings"

	bar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/josephgoksu/azubihub/internal/i18n"
	"github.com/josephgoksu/azubihub/internal/progress"
	"github.com/josephgoksu/azubihub/internal/report"
)

type sectionTitles struct {
	workplace, instruction, school, hours string
}

func titlesFor(lang i18n.Lang) sectionTitles {
	if lang == i18n.English {
		return sectionTitles{"Company activities", "Instruction", "Vocational school", "Total hours"}
	}
	return sectionTitles{"Betriebliche Tätigkeiten", "Unterweisungen", "Berufsschule", "Gesamtstunden"}
}

// RenderReport shows a generated report with one box per section.
func RenderReport(c report.Content, p report.Period, lang i18n.Lang, width int) string {
	titles := titlesFor(lang)
	if width <= 0 {
		width = 80
	}
	box := StyleReportBox.Width(width - 2)

	week := "KW"
	if lang == i18n.English {
		week = "Week"
	}
	var sb strings.Builder
	sb.WriteString(StyleHeader.Render(fmt.Sprintf("%s %d · %s", week, p.Week, p.DateRange())))
	sb.WriteString("\n")

	section := func(title, body string) {
		if strings.TrimSpace(body) == "" {
			body = StyleSubtle.Render("-")
		}
		sb.WriteString(box.Render(StyleSectionTitle.Render(title) + "\n" + body))
		sb.WriteString("\n")
	}
	section(titles.workplace, c.Workplace)
	section(titles.instruction, c.Instruction)
	section(titles.school, StyleSchool.Render(c.School))

	hours := c.TotalHours
	if hours == "" {
		hours = report.DefaultTotalHours
	}
	sb.WriteString(" " + StyleTitle.Render(titles.hours+": ") + StyleText.Render(hours) + "\n")
	return sb.String()
}

// RenderProgress shows level, xp and a bar toward the next level.
func RenderProgress(s progress.Snapshot, lang i18n.Lang, width int) string {
	if width <= 0 {
		width = 40
	}
	b := bar.New(bar.WithSolidFill(string(ColorPrimary)), bar.WithWidth(width), bar.WithoutPercentage())
	into := s.XP % progress.XPPerLevel
	percent := float64(into) / float64(progress.XPPerLevel)

	left := s.NextLevelAt - s.XP
	next := fmt.Sprintf("noch %d XP bis Level %d", left, s.Level+1)
	reports := fmt.Sprintf("%d Berichte erledigt", len(s.CompletedReports))
	if lang == i18n.English {
		next = fmt.Sprintf("%d XP to level %d", left, s.Level+1)
		reports = fmt.Sprintf("%d reports done", len(s.CompletedReports))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		StyleHeader.Render(fmt.Sprintf("Level %d", s.Level))+StyleSubtle.Render(fmt.Sprintf("%d XP", s.XP)),
		" "+b.ViewAs(percent),
		" "+StyleSubtle.Render(next),
		" "+StyleSubtle.Render(reports),
	) + "\n"
}
