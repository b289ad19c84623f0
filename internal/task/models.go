// Package task holds the apprentice's to-do records and the in-memory store
// that keeps them ordered and persisted.
package task

import (
	"fmt"
	"strings"
	"time"
)

// Category is the report section a task belongs to.
type Category string

const (
	CategoryWorkplace Category = "Betrieb"      // Work done in the store
	CategorySchool    Category = "Berufsschule" // Vocational school topics
	CategoryOther     Category = "Sonstiges"    // Reported together with workplace tasks
)

// Categories lists the valid categories in display order.
var Categories = []Category{CategoryWorkplace, CategorySchool, CategoryOther}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	switch c {
	case CategoryWorkplace, CategorySchool, CategoryOther:
		return true
	}
	return false
}

// ParseCategory accepts the stored German names as well as the English
// aliases used on the command line.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "betrieb", "workplace", "work":
		return CategoryWorkplace, nil
	case "berufsschule", "school":
		return CategorySchool, nil
	case "sonstiges", "other":
		return CategoryOther, nil
	}
	return "", fmt.Errorf("unknown category %q (use Betrieb, Berufsschule or Sonstiges)", s)
}

// DueDateLayout is the calendar date format of Task.DueDate.
const DueDateLayout = "2006-01-02"

// Task is one to-do item of the apprentice.
type Task struct {
	ID          string     `json:"id"`
	Text        string     `json:"text" validate:"nonempty,max=500"`
	Completed   bool       `json:"completed"`
	Category    Category   `json:"category" validate:"category"`
	DueDate     string     `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CompletedAt *time.Time `json:"completedAt,omitempty"` // Set exactly while Completed is true
}

// SetCompleted moves the task to the given completion state. It stamps
// CompletedAt on false→true, clears it on true→false, and reports whether
// the task transitioned into the completed state.
func (t *Task) SetCompleted(done bool, now time.Time) bool {
	if t.Completed == done {
		return false
	}
	t.Completed = done
	if done {
		at := now
		t.CompletedAt = &at
		return true
	}
	t.CompletedAt = nil
	return false
}

// Draft carries the user input for a new task.
type Draft struct {
	Text     string   `json:"text"`
	Category Category `json:"category"`
	DueDate  string   `json:"dueDate,omitempty"`
}

// Patch is a partial update of an existing task. Nil fields are left alone.
type Patch struct {
	Text     *string   `json:"text,omitempty"`
	Category *Category `json:"category,omitempty"`
	DueDate  *string   `json:"dueDate,omitempty"`
}
