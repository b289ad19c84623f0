package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/josephgoksu/azubihub/internal/i18n"
	"github.com/josephgoksu/azubihub/internal/task"
)

func TestTable_ColumnWidths(t *testing.T) {
	table := &Table{
		Headers: []string{"ID", "Name", "Status"},
		Rows: [][]string{
			{"abc123", "Kasse", "erledigt"},
			{"def456", "Warenannahme Obst und Gemüse", "offen"},
		},
	}

	widths := table.ColumnWidths()

	assert.Equal(t, 6, widths[0])
	assert.Equal(t, 28, widths[1]) // Umlaut counts as one cell
	assert.Equal(t, 8, widths[2])
}

func TestTable_ColumnWidths_MaxWidth(t *testing.T) {
	table := &Table{
		Headers:  []string{"ID", "Description"},
		Rows:     [][]string{{"a", "Inventur im Getränkemarkt mit Zählliste und Nachbestellung"}},
		MaxWidth: 20,
	}

	widths := table.ColumnWidths()

	assert.Equal(t, 2, widths[0])  // "ID" is longest
	assert.Equal(t, 20, widths[1]) // Capped at MaxWidth
}

func TestTable_Render(t *testing.T) {
	table := &Table{
		Headers: []string{"ID", "Name"},
		Rows: [][]string{
			{"1", "Regale"},
			{"2", "Kühlung"},
		},
	}

	output := table.Render()

	// Should contain headers and rows (with ANSI codes)
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "Name")
	assert.Contains(t, output, "Regale")
	assert.Contains(t, output, "Kühlung")
	// Should contain separator line
	assert.Contains(t, output, "─")
}

func TestTable_Render_Empty(t *testing.T) {
	table := &Table{
		Headers: []string{},
		Rows:    [][]string{},
	}

	output := table.Render()
	assert.Empty(t, output)
}

func TestTable_Render_Truncation(t *testing.T) {
	table := &Table{
		Headers:  []string{"Text"},
		Rows:     [][]string{{"Pfandautomat geleert und gereinigt"}},
		MaxWidth: 10,
	}

	output := table.Render()

	// Should contain truncation indicator
	assert.Contains(t, output, "…")
}

func TestTruncateID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"abc123def456", "abc123"},
		{"short", "short"},
		{"abc", "abc"},
		{"", ""},
	}

	for _, tc := range tests {
		result := TruncateID(tc.input)
		assert.Equal(t, tc.expected, result)
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		input    string
		width    int
		expected string
	}{
		{"abc", 5, "abc  "},
		{"hello", 5, "hello"},
		{"longer", 3, "longer"},
		{"", 3, "   "},
	}

	for _, tc := range tests {
		result := padRight(tc.input, tc.width)
		assert.Equal(t, tc.expected, result)
	}
}

func TestTable_UmlautsCountAsOneColumn(t *testing.T) {
	table := &Table{
		Headers: []string{"Aufgabe"},
		Rows:    [][]string{{"Prüfung geübt"}},
	}
	assert.Equal(t, 13, table.ColumnWidths()[0])
	assert.Equal(t, "Prüf…", truncate("Prüfung", 5))
}

func TestTaskTable(t *testing.T) {
	tasks := []task.Task{
		{ID: "1718000000001", Text: "Regale aufgefüllt", Completed: true, Category: task.CategoryWorkplace},
		{ID: "2", Text: "Dreisatz", Category: task.CategorySchool, DueDate: "2024-03-20"},
	}

	de := TaskTable(tasks, i18n.German).Render()
	assert.Contains(t, de, "Kategorie")
	assert.Contains(t, de, "171800")
	assert.Contains(t, de, "✓")
	assert.Contains(t, de, "2024-03-20")

	en := TaskTable(tasks, i18n.English)
	assert.Equal(t, "Category", en.Headers[2])
	assert.Len(t, en.Rows, 2)
}

func TestTable_Render_RowsHaveFewerColumns(t *testing.T) {
	table := &Table{
		Headers: []string{"ID", "Name", "Status"},
		Rows: [][]string{
			{"1", "Alice"}, // Missing Status column
		},
	}

	output := table.Render()

	// Should not panic and should render what's available
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "Alice")
	// Count lines - should have header, separator, and 1 data row
	lines := strings.Split(strings.TrimSpace(output), "\n")
	assert.Equal(t, 3, len(lines))
}
