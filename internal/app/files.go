package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/josephgoksu/azubihub/internal/pdf"
	"github.com/josephgoksu/azubihub/internal/policy"
	"github.com/josephgoksu/azubihub/internal/report"
	"github.com/josephgoksu/azubihub/internal/storage"
	"github.com/josephgoksu/azubihub/internal/telemetry"
)

// ErrFileNotFound is returned for unknown file ids.
var ErrFileNotFound = errors.New("file not found")

// Upload is a file handed in by the user.
type Upload struct {
	Name string
	Type string // Declared MIME type; sniffed when empty
	Data []byte
}

func (u Upload) mimeType() string {
	if t := strings.TrimSpace(u.Type); t != "" && t != "application/octet-stream" {
		return t
	}
	return mimetype.Detect(u.Data).String()
}

// Files returns the stored documents, newest first, with download access
// resolved.
func (s *Session) Files(ctx context.Context) ([]storage.FileView, error) {
	s.mu.Lock()
	files := slices.Clone(s.files)
	s.mu.Unlock()

	slices.SortStableFunc(files, func(a, b storage.StoredFile) int {
		return b.UploadDate.Compare(a.UploadDate)
	})
	return s.binding.HydrateFiles(ctx, files)
}

// UploadFile checks u against the upload policy and stores it.
func (s *Session) UploadFile(ctx context.Context, u Upload) (storage.FileView, error) {
	caps := s.binding.Capabilities()
	mimeType := u.mimeType()

	if s.svc.deps.Policy != nil {
		err := s.svc.deps.Policy.CheckUpload(ctx, policy.UploadInput{
			Purpose:  policy.PurposeDocument,
			Name:     u.Name,
			Type:     mimeType,
			Size:     int64(len(u.Data)),
			MaxBytes: policy.MaxUploadBytes(caps.ObjectStorage),
		})
		if err != nil {
			return storage.FileView{}, err
		}
	}

	f := storage.NewStoredFile(u.Name, mimeType, u.Data, s.svc.deps.Now())
	if err := s.binding.SaveFiles(ctx, []storage.StoredFile{f}); err != nil {
		return storage.FileView{}, fmt.Errorf("save file: %w", err)
	}

	kept := f
	if caps.Remote {
		// Bytes are resolved through the backend from now on.
		kept = f.Meta()
	}
	s.mu.Lock()
	s.files = append(s.files, kept)
	s.mu.Unlock()

	s.svc.deps.Telemetry.Track(telemetry.EventFileUploaded, telemetry.Properties{
		"size":           f.Size,
		"object_storage": caps.ObjectStorage,
	})

	views, err := s.binding.HydrateFiles(ctx, []storage.StoredFile{kept})
	if err != nil || len(views) == 0 {
		s.logger.Warn("could not resolve uploaded file", "file_id", f.ID, "error", err)
		return storage.FileView{ID: f.ID, Name: f.Name, Type: f.Type, Size: f.Size, UploadDate: f.UploadDate}, nil
	}
	return views[0], nil
}

// DeleteFile removes a document and its stored bytes.
func (s *Session) DeleteFile(ctx context.Context, id string) error {
	s.mu.Lock()
	i := slices.IndexFunc(s.files, func(f storage.StoredFile) bool { return f.ID == id })
	if i < 0 {
		s.mu.Unlock()
		return ErrFileNotFound
	}
	s.files = slices.Delete(s.files, i, i+1)
	s.mu.Unlock()

	return s.binding.DeleteFile(ctx, id)
}

// RenderReport fills template with content for calendar week week. A nil
// content uses the session's generated draft.
func (s *Session) RenderReport(ctx context.Context, template Upload, content *report.Content, week int) (*pdf.Document, error) {
	if len(template.Data) == 0 {
		return nil, pdf.ErrTemplateMissing
	}
	c, err := s.reportContent(content)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, pdf.ErrEmptyReport
	}

	if s.svc.deps.Policy != nil {
		err := s.svc.deps.Policy.CheckUpload(ctx, policy.UploadInput{
			Purpose:  policy.PurposeTemplate,
			Name:     template.Name,
			Type:     mimetype.Detect(template.Data).String(),
			Size:     int64(len(template.Data)),
			MaxBytes: policy.MaxObjectBytes,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", pdf.ErrTemplateUnreadable, err)
		}
	}

	doc, err := s.svc.renderer.Render(template.Data, c, week)
	if err != nil {
		return nil, err
	}
	s.svc.deps.Telemetry.Track(telemetry.EventReportRendered, telemetry.Properties{"bytes": len(doc.Data)})
	return doc, nil
}

func (s *Session) reportContent(content *report.Content) (report.Content, error) {
	if content != nil {
		return *content, nil
	}
	c, _, ok := s.draft.Ready()
	if !ok {
		return report.Content{}, pdf.ErrEmptyReport
	}
	return c, nil
}
