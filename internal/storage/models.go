// Package storage persists a user's tasks, files and progress. A single
// Backend port hides whether data lives in the hosted database plus object
// storage or only in the local sqlite cache.
package storage

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/josephgoksu/azubihub/internal/task"
)

// ErrNotFound is returned by Load when nothing has been stored for a user.
var ErrNotFound = errors.New("no stored data for user")

// MaxInlineBytes is the largest file kept inline in a row or the local cache
// when object storage is unavailable.
const MaxInlineBytes = 500 * 1024

// Bucket is the object storage bucket for documents.
const Bucket = "azubidocument"

// Identity is the signed-in apprentice.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email" validate:"required,email"`
	Name   string `json:"name"`
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

// LocalKey is the key of the user's document in the local cache.
func (id Identity) LocalKey() string {
	return "vmarkt_user_" + strings.ToLower(nonAlnum.ReplaceAllString(id.Email, "_"))
}

// Normalize fills in a stable user id derived from the email when none is
// set, so local-only sessions get the same id on every start.
func (id Identity) Normalize() Identity {
	id.Email = strings.TrimSpace(id.Email)
	if id.UserID == "" && id.Email != "" {
		id.UserID = uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+strings.ToLower(id.Email))).String()
	}
	if id.Name == "" {
		id.Name = strings.SplitN(id.Email, "@", 2)[0]
	}
	return id
}

// StoredFile is an uploaded document. Content is only set while the bytes
// are held inline.
type StoredFile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	UploadDate time.Time `json:"uploadDate"`
	Content    []byte    `json:"contentBase64,omitempty"`
}

// NewStoredFile wraps freshly uploaded bytes.
func NewStoredFile(name, mimeType string, data []byte, now time.Time) StoredFile {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return StoredFile{
		ID:         uuid.NewString(),
		Name:       name,
		Type:       mimeType,
		Size:       int64(len(data)),
		UploadDate: now.UTC(),
		Content:    data,
	}
}

// Meta returns f without its inline bytes.
func (f StoredFile) Meta() StoredFile {
	f.Content = nil
	return f
}

// FileView is a stored file as presented to the user.
type FileView struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	UploadDate time.Time `json:"uploadDate"`
	Persisted  bool      `json:"isPersisted"` // Bytes can be retrieved
	URL        string    `json:"url,omitempty"`
	Content    []byte    `json:"-"`
}

func viewOf(f StoredFile) FileView {
	return FileView{
		ID:         f.ID,
		Name:       f.Name,
		Type:       f.Type,
		Size:       f.Size,
		UploadDate: f.UploadDate,
		Persisted:  len(f.Content) > 0,
		Content:    f.Content,
	}
}

// UserData is everything stored for one user.
type UserData struct {
	Tasks            []task.Task  `json:"todos"`
	Files            []StoredFile `json:"files"`
	XP               int          `json:"xp"`
	CompletedReports []string     `json:"completedReports"`
}

// Capabilities describes what the selected backend can do.
type Capabilities struct {
	Remote        bool `json:"remote"`
	ObjectStorage bool `json:"objectStorage"`
}
