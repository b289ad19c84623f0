package storage

import (
	"time"

	"github.com/josephgoksu/azubihub/internal/task"
)

// SeedXP is the starting experience of a new local user.
const SeedXP = 150

// SeedData is what a user sees before anything was stored: three example
// tasks, two of them completed now.
func SeedData(now time.Time) *UserData {
	first, second := now, now
	return &UserData{
		Tasks: []task.Task{
			{ID: "1", Text: "Regale aufgefüllt (Molkerei)", Completed: true, Category: task.CategoryWorkplace, CompletedAt: &first},
			{ID: "2", Text: "Kassenschulung absolviert", Category: task.CategoryWorkplace},
			{ID: "3", Text: "Rechnungswesen: Buchungssätze", Completed: true, Category: task.CategorySchool, CompletedAt: &second},
		},
		Files:            []StoredFile{},
		XP:               SeedXP,
		CompletedReports: []string{},
	}
}
