// Package report builds the weekly training report ("Berichtsheft"): the
// reporting period, the task selection, the language-model call and the
// draft lifecycle around it.
package report

import (
	"fmt"
	"strings"
)

// Style is the requested writing tone.
type Style string

const (
	StyleFormal   Style = "Formal"
	StyleConcise  Style = "Concise"
	StyleDetailed Style = "Detailed"
)

// ParseStyle accepts the style names case-insensitively. Empty means Formal.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "formal":
		return StyleFormal, nil
	case "concise":
		return StyleConcise, nil
	case "detailed":
		return StyleDetailed, nil
	}
	return "", fmt.Errorf("unknown report style %q (use Formal, Concise or Detailed)", s)
}

// DefaultTotalHours is used when the model does not state the weekly hours.
const DefaultTotalHours = "40"

// Content is the four-field payload of one report.
type Content struct {
	Workplace   string `json:"betrieblicheTaetigkeiten"`
	Instruction string `json:"unterweisung"`
	School      string `json:"berufsschule"`
	TotalHours  string `json:"gesamtstunden"`
}

// IsEmpty reports whether no report text has been produced yet.
func (c Content) IsEmpty() bool {
	return strings.TrimSpace(c.Workplace) == "" &&
		strings.TrimSpace(c.Instruction) == "" &&
		strings.TrimSpace(c.School) == ""
}

// Edit is a user correction of a generated report. Nil fields are kept.
type Edit struct {
	Workplace   *string `json:"betrieblicheTaetigkeiten,omitempty"`
	Instruction *string `json:"unterweisung,omitempty"`
	School      *string `json:"berufsschule,omitempty"`
	TotalHours  *string `json:"gesamtstunden,omitempty"`
}

func (e Edit) apply(c Content) Content {
	if e.Workplace != nil {
		c.Workplace = *e.Workplace
	}
	if e.Instruction != nil {
		c.Instruction = *e.Instruction
	}
	if e.School != nil {
		c.School = *e.School
	}
	if e.TotalHours != nil {
		c.TotalHours = *e.TotalHours
	}
	return c
}
