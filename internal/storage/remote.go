package storage

import (
	"context"
	"database/sql/driver"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/josephgoksu/azubihub/internal/task"
)

// taskRow maps the todos table.
type taskRow struct {
	ID          string     `gorm:"primaryKey"`
	UserID      string     `gorm:"column:user_id;index;not null"`
	Text        string     `gorm:"not null"`
	Completed   bool       `gorm:"not null;default:false"`
	Category    string     `gorm:"not null"`
	DueDate     *string    `gorm:"column:due_date"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	Position    int        `gorm:"not null;default:0"`
	CreatedAt   time.Time
}

func (taskRow) TableName() string { return "todos" }

// fileRow maps the files table. ContentBase64 holds inline bytes when the
// object upload failed; ObjectKey is set when the bytes live in the bucket.
type fileRow struct {
	ID            string    `gorm:"primaryKey"`
	UserID        string    `gorm:"column:user_id;index;not null"`
	Name          string    `gorm:"not null"`
	Type          string    `gorm:"not null"`
	Size          int64     `gorm:"not null"`
	UploadDate    time.Time `gorm:"column:upload_date"`
	ContentBase64 *string   `gorm:"column:content_base64"`
	ObjectKey     *string   `gorm:"column:object_key"`
}

func (fileRow) TableName() string { return "files" }

// progressRow maps the user_progress table.
type progressRow struct {
	UserID           string     `gorm:"column:user_id;primaryKey"`
	XP               int        `gorm:"column:xp;not null;default:0"`
	CompletedReports reportList `gorm:"column:completed_reports;type:jsonb"`
	UpdatedAt        time.Time
}

func (progressRow) TableName() string { return "user_progress" }

// reportList stores period ids as a JSON array.
type reportList []string

func (r reportList) Value() (driver.Value, error) {
	if r == nil {
		r = reportList{}
	}
	b, err := json.Marshal([]string(r))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *reportList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*r = reportList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan completed_reports: unsupported type %T", src)
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return fmt.Errorf("scan completed_reports: %w", err)
	}
	*r = ids
	return nil
}

// RemoteBackend stores rows in the hosted database and file bytes in object
// storage.
type RemoteBackend struct {
	db      *gorm.DB
	objects ObjectStore // nil when no bucket is configured
	logger  *slog.Logger

	uploadAttempts uint64
	newBackOff     func() backoff.BackOff
}

// NewRemoteBackend wires a database and an optional object store.
func NewRemoteBackend(db *gorm.DB, objects ObjectStore, logger *slog.Logger) *RemoteBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteBackend{
		db:             db,
		objects:        objects,
		logger:         logger,
		uploadAttempts: 3,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 300 * time.Millisecond
			b.MaxElapsedTime = 10 * time.Second
			return b
		},
	}
}

func (r *RemoteBackend) Name() string { return "remote" }

func (r *RemoteBackend) Capabilities() Capabilities {
	return Capabilities{Remote: true, ObjectStorage: r.objects != nil}
}

// Migrate creates or updates the three tables.
func (r *RemoteBackend) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&taskRow{}, &fileRow{}, &progressRow{}); err != nil {
		return fmt.Errorf("migrate remote schema: %w", err)
	}
	return nil
}

// Probe checks the database connection and, when configured, the bucket.
func (r *RemoteBackend) Probe(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	if r.objects != nil {
		if err := r.objects.Probe(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *RemoteBackend) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Load fetches tasks, file metadata and progress concurrently.
func (r *RemoteBackend) Load(ctx context.Context, id Identity) (*UserData, error) {
	var (
		tasks    []taskRow
		files    []fileRow
		progress progressRow
		found    bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := r.db.WithContext(gctx).Where("user_id = ?", id.UserID).Order("position ASC").Order("created_at DESC").Find(&tasks).Error
		if err != nil {
			return fmt.Errorf("load tasks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		err := r.db.WithContext(gctx).Where("user_id = ?", id.UserID).Order("upload_date DESC").Find(&files).Error
		if err != nil {
			return fmt.Errorf("load files: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		err := r.db.WithContext(gctx).Where("user_id = ?", id.UserID).Take(&progress).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil
		case err != nil:
			return fmt.Errorf("load progress: %w", err)
		}
		found = true
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	data := &UserData{
		Tasks:            make([]task.Task, 0, len(tasks)),
		Files:            make([]StoredFile, 0, len(files)),
		CompletedReports: []string{},
	}
	for _, row := range tasks {
		data.Tasks = append(data.Tasks, row.toTask())
	}
	for _, row := range files {
		f, err := row.toFile()
		if err != nil {
			r.logger.Warn("skipping unreadable file row", "file_id", row.ID, "error", err)
			continue
		}
		data.Files = append(data.Files, f)
	}
	if found {
		data.XP = progress.XP
		data.CompletedReports = append(data.CompletedReports, progress.CompletedReports...)
	}
	return data, nil
}

func (r *RemoteBackend) SaveTasks(ctx context.Context, id Identity, tasks []task.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	rows := make([]taskRow, 0, len(tasks))
	for i, t := range tasks {
		row := taskRowOf(id.UserID, t)
		row.Position = i
		rows = append(rows, row)
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"text", "completed", "category", "due_date", "completed_at", "position"}),
		}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("upsert tasks: %w", err)
	}
	return nil
}

func (r *RemoteBackend) DeleteTask(ctx context.Context, id Identity, taskID string) error {
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", taskID, id.UserID).Delete(&taskRow{}).Error
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (r *RemoteBackend) SaveProgress(ctx context.Context, id Identity, xp int, completedReports []string) error {
	row := progressRow{UserID: id.UserID, XP: xp, CompletedReports: reportList(completedReports)}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"xp", "completed_reports", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

// SaveFiles places each file's bytes and upserts its row:
//   - upload succeeded: row without inline content, object key set
//   - upload failed, small file: bytes kept inline in the row
//   - upload failed, large file: metadata only, the bytes are lost
//   - no bytes given: metadata only, stored content is left untouched
func (r *RemoteBackend) SaveFiles(ctx context.Context, id Identity, files []StoredFile) error {
	var placed, metaOnly []fileRow
	for _, f := range files {
		row := fileRow{
			ID:         f.ID,
			UserID:     id.UserID,
			Name:       f.Name,
			Type:       f.Type,
			Size:       f.Size,
			UploadDate: f.UploadDate,
		}
		if len(f.Content) == 0 {
			metaOnly = append(metaOnly, row)
			continue
		}

		key := ObjectKey(id.UserID, f.ID)
		err := r.upload(ctx, key, f)
		switch {
		case err == nil:
			row.ObjectKey = &key
			placed = append(placed, row)
		case len(f.Content) <= MaxInlineBytes:
			r.logger.Warn("object upload failed, keeping file inline", "file_id", f.ID, "size", f.Size, "error", err)
			inline := base64.StdEncoding.EncodeToString(f.Content)
			row.ContentBase64 = &inline
			placed = append(placed, row)
		default:
			r.logger.Error("object upload failed and file too large to keep inline, data lost",
				"file_id", f.ID, "name", f.Name, "size", f.Size, "limit", MaxInlineBytes, "error", err)
			metaOnly = append(metaOnly, row)
		}
	}

	if len(placed) > 0 {
		err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "type", "size", "upload_date", "content_base64", "object_key"}),
			}).
			Create(&placed).Error
		if err != nil {
			return fmt.Errorf("upsert files: %w", err)
		}
	}
	if len(metaOnly) > 0 {
		err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "type", "size", "upload_date"}),
			}).
			Create(&metaOnly).Error
		if err != nil {
			return fmt.Errorf("upsert file metadata: %w", err)
		}
	}
	return nil
}

func (r *RemoteBackend) upload(ctx context.Context, key string, f StoredFile) error {
	if r.objects == nil {
		return errors.New("object storage not configured")
	}
	attempt := 0
	op := func() error {
		attempt++
		err := r.objects.Put(ctx, key, f.Content, f.Type)
		if err != nil {
			r.logger.Debug("object upload attempt failed", "key", key, "attempt", attempt, "error", err)
		}
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), r.uploadAttempts-1), ctx)
	return backoff.Retry(op, policy)
}

func (r *RemoteBackend) DeleteFile(ctx context.Context, id Identity, fileID string) error {
	var row fileRow
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", fileID, id.UserID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find file: %w", err)
	}

	if row.ObjectKey != nil && r.objects != nil {
		if err := r.objects.Delete(ctx, *row.ObjectKey); err != nil {
			r.logger.Warn("could not delete stored object", "key", *row.ObjectKey, "error", err)
		}
	}
	if err := r.db.WithContext(ctx).Delete(&row).Error; err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// HydrateFiles resolves each file to inline bytes or a signed URL. The
// object key is looked up in the database, so callers may pass metadata only.
func (r *RemoteBackend) HydrateFiles(ctx context.Context, id Identity, files []StoredFile) ([]FileView, error) {
	ids := make([]string, 0, len(files))
	for _, f := range files {
		if len(f.Content) == 0 {
			ids = append(ids, f.ID)
		}
	}

	rows := map[string]fileRow{}
	if len(ids) > 0 {
		var found []fileRow
		if err := r.db.WithContext(ctx).Where("user_id = ? AND id IN ?", id.UserID, ids).Find(&found).Error; err != nil {
			return nil, fmt.Errorf("load file rows: %w", err)
		}
		for _, row := range found {
			rows[row.ID] = row
		}
	}

	out := make([]FileView, 0, len(files))
	for _, f := range files {
		if len(f.Content) > 0 {
			out = append(out, viewOf(f))
			continue
		}
		row, ok := rows[f.ID]
		if ok && row.ContentBase64 != nil {
			if stored, err := row.toFile(); err == nil {
				out = append(out, viewOf(stored))
				continue
			}
		}
		v := viewOf(f)
		if ok && row.ObjectKey != nil && r.objects != nil {
			url, err := r.objects.SignedURL(ctx, *row.ObjectKey, f.Name, SignedURLTTL)
			if err != nil {
				r.logger.Warn("could not sign file url", "file_id", f.ID, "error", err)
			} else {
				v.URL = url
				v.Persisted = true
			}
		}
		out = append(out, v)
	}
	return out, nil
}

func taskRowOf(userID string, t task.Task) taskRow {
	row := taskRow{
		ID:          t.ID,
		UserID:      userID,
		Text:        t.Text,
		Completed:   t.Completed,
		Category:    string(t.Category),
		CompletedAt: t.CompletedAt,
	}
	if t.DueDate != "" {
		due := t.DueDate
		row.DueDate = &due
	}
	return row
}

func (row taskRow) toTask() task.Task {
	t := task.Task{
		ID:        row.ID,
		Text:      row.Text,
		Completed: row.Completed,
		Category:  task.Category(row.Category),
	}
	if row.DueDate != nil {
		t.DueDate = *row.DueDate
	}
	if row.CompletedAt != nil {
		at := *row.CompletedAt
		t.CompletedAt = &at
	}
	return t
}

func (row fileRow) toFile() (StoredFile, error) {
	f := StoredFile{
		ID:         row.ID,
		Name:       row.Name,
		Type:       row.Type,
		Size:       row.Size,
		UploadDate: row.UploadDate,
	}
	if row.ContentBase64 != nil {
		data, err := base64.StdEncoding.DecodeString(*row.ContentBase64)
		if err != nil {
			return StoredFile{}, fmt.Errorf("decode inline content: %w", err)
		}
		f.Content = data
	}
	return f, nil
}
