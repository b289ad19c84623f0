package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestStyles(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI256)
	t.Cleanup(func() { lipgloss.SetColorProfile(termenv.Ascii) })

	out := StyleSuccess.Render("Erledigt")
	assert.Contains(t, out, "Erledigt")
	assert.NotEqual(t, "Erledigt", out, "Style should add ANSI codes when forced")
}

func TestIcon(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI256)
	t.Cleanup(func() { lipgloss.SetColorProfile(termenv.Ascii) })

	out := Icon("✓", StylePrefixDone)
	assert.Contains(t, out, "✓")
	assert.NotEqual(t, "✓", out)
}
