package pdf

import (
	"regexp"
	"strings"
)

// Region is a text box on the form in PDF points with a bottom-left origin.
// Text starts below Top and never goes under MinY.
type Region struct {
	X     float64
	Top   float64
	Width float64
	MinY  float64
}

// Point is a single anchor on the form.
type Point struct {
	X, Y float64
}

// Layout places the report fields on the form.
type Layout struct {
	Padding    float64
	LineHeight float64
	FontSize   float64

	Workplace   Region // Betriebliche Tätigkeiten
	Instruction Region // Unterweisungen
	School      Region // Berufsschule

	Hours         Point // Gesamtstunden in the footer
	HoursFontSize float64
}

// FormLayout returns the field positions of the standard IHK form for a
// page of height h.
func FormLayout(h float64) Layout {
	return Layout{
		Padding:       12,
		LineHeight:    14,
		FontSize:      10,
		Workplace:     Region{X: 60, Top: h - 170, Width: 430, MinY: h - 350},
		Instruction:   Region{X: 60, Top: h - 375, Width: 430, MinY: h - 570},
		School:        Region{X: 60, Top: h - 595, Width: 430, MinY: 130},
		Hours:         Point{X: 520, Y: 55},
		HoursFontSize: 12,
	}
}

// Measurer returns the drawn width of s at the layout font size.
type Measurer interface {
	Width(s string) float64
}

// Line is one positioned line of text, Y being the baseline from the bottom.
type Line struct {
	Text string
	X    float64
	Y    float64
}

var paragraphBreak = regexp.MustCompile(`\r?\n`)

// Wrap breaks text into lines that fit region r. Words are accumulated
// greedily while the line stays within the region width minus padding; a
// single word wider than that gets a line of its own. Blank paragraphs
// advance by half a line. The field stops silently once the cursor falls
// below r.MinY, so no returned line lies under the floor.
func Wrap(text string, r Region, l Layout, m Measurer) []Line {
	x := r.X + l.Padding/2
	y := r.Top - l.Padding
	maxWidth := r.Width - l.Padding

	var lines []Line
	emit := func(s string) {
		lines = append(lines, Line{Text: s, X: x, Y: y})
		y -= l.LineHeight
	}

	for _, paragraph := range paragraphBreak.Split(Sanitize(text), -1) {
		if y < r.MinY {
			break
		}

		line := ""
		for _, word := range strings.Split(paragraph, " ") {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if line != "" && m.Width(candidate) > maxWidth {
				if y < r.MinY {
					return lines
				}
				emit(line)
				line = word
				continue
			}
			line = candidate
		}

		if line != "" {
			if y < r.MinY {
				return lines
			}
			emit(line)
		}
		if strings.TrimSpace(paragraph) == "" {
			y -= l.LineHeight / 2
		}
	}
	return lines
}
