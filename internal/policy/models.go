// Package policy decides whether an uploaded file may be accepted. Rules are
// written in Rego and evaluated locally with OPA.
package policy

import (
	"errors"
	"strings"
	"time"
)

// Purpose says what an upload is used for.
type Purpose string

const (
	PurposeDocument Purpose = "document" // Stored in the apprentice's files
	PurposeTemplate Purpose = "template" // Report form filled by the renderer
)

// Upload size limits.
const (
	MaxObjectBytes = 50 * 1024 * 1024 // with object storage
	MaxInlineBytes = 500 * 1024       // without object storage
)

// MaxUploadBytes returns the size limit for documents.
func MaxUploadBytes(objectStorage bool) int64 {
	if objectStorage {
		return MaxObjectBytes
	}
	return MaxInlineBytes
}

// UploadInput is what the rules see as `input`.
type UploadInput struct {
	Purpose  Purpose `json:"purpose"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Size     int64   `json:"size"`
	MaxBytes int64   `json:"max_bytes"`
}

// Decision is the outcome of one evaluation.
type Decision struct {
	Allowed     bool      `json:"allowed"`
	Violations  []string  `json:"violations,omitempty"`
	EvaluatedAt time.Time `json:"evaluatedAt"`
}

// ErrDenied matches every DeniedError.
var ErrDenied = errors.New("upload rejected")

// DeniedError lists the rules an upload broke.
type DeniedError struct {
	Violations []string
}

func (e *DeniedError) Error() string {
	return ErrDenied.Error() + ": " + strings.Join(e.Violations, "; ")
}

func (e *DeniedError) Is(target error) bool { return target == ErrDenied }
