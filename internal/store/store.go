// Package store persists applications as one JSON file per submission plus a
// shared index file used for listing and aggregation.
package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "detox-form-api/internal/common/errors"
	"detox-form-api/internal/common/logger"
	"detox-form-api/internal/models"
)

const (
	indexFileName = "applications_index.json"
	deletedSubdir = "deleted"
)

// Store is the file-backed application repository.
type Store struct {
	dataDir string
	logger  logger.Logger

	// serializes index read-modify-write cycles within this process
	mu sync.Mutex

	now func() time.Time
}

// New creates the data directory (and its deleted/ backup subdirectory) if
// missing and returns a ready Store.
func New(dataDir string, log logger.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dataDir, deletedSubdir), 0o755); err != nil {
		return nil, apperrors.NewIOError("mkdir", err)
	}
	return &Store{
		dataDir: dataDir,
		logger:  log,
		now:     time.Now,
	}, nil
}

// Create assigns an ID, timestamps and the pending status, writes the record
// file and upserts the index entry. The file write and the index update are
// two separate writes, a failure in between is reported but not rolled back.
func (s *Store) Create(form models.SubmissionForm, meta models.Metadata) (*models.Application, error) {
	now := s.now()
	timestamp := now.Format(models.TimestampLayout)

	app := &models.Application{
		ID:             uuid.New().String(),
		CreatedAt:      timestamp,
		UpdatedAt:      timestamp,
		Status:         models.StatusPending,
		SubmissionForm: form,
		Metadata:       meta,
	}
	if app.Metadata.SubmissionTime == "" {
		app.Metadata.SubmissionTime = now.UTC().Format(time.RFC3339)
	}

	fileName := fmt.Sprintf("application_%s_%s.json", app.ID, now.Format(models.DateLayout))
	if err := s.writeRecord(filepath.Join(s.dataDir, fileName), app); err != nil {
		return nil, err
	}

	if err := s.upsertIndex(app); err != nil {
		return nil, err
	}

	s.logger.Info("application record created", map[string]interface{}{
		"applicationId": app.ID,
		"fullName":      app.FullName,
	})
	return app, nil
}

// GetByID scans the data directory for the record file whose name contains
// the given ID. UUIDs make substring collisions practically impossible.
func (s *Store) GetByID(id string) (*models.Application, error) {
	fileName, err := s.findRecordFile(id)
	if err != nil {
		return nil, err
	}
	return s.readRecord(filepath.Join(s.dataDir, fileName))
}

// ListFilter narrows and paginates the index listing.
type ListFilter struct {
	Status    string
	StartDate string
	EndDate   string
	Search    string
	Page      int
	Limit     int
}

// Pagination describes the slice of the filtered result set being returned.
type Pagination struct {
	Current int `json:"current"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
	Limit   int `json:"limit"`
}

// ListResult is the paginated index listing.
type ListResult struct {
	Applications []models.IndexEntry `json:"applications"`
	Pagination   Pagination          `json:"pagination"`
}

// ListIndex filters the index by status, creation date range and free-text
// search, then paginates. The total reflects the filtered set before
// pagination.
func (s *Store) ListIndex(f ListFilter) (*ListResult, error) {
	entries := s.ReadIndex()

	filtered := entries[:0:0]
	for _, e := range entries {
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.StartDate != "" && !createdAfter(e.CreatedAt, f.StartDate) {
			continue
		}
		if f.EndDate != "" && !createdBefore(e.CreatedAt, f.EndDate) {
			continue
		}
		if f.Search != "" && !matchesSearch(e, f.Search) {
			continue
		}
		filtered = append(filtered, e)
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = 10
	}

	total := len(filtered)
	pages := (total + limit - 1) / limit

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &ListResult{
		Applications: filtered[start:end],
		Pagination: Pagination{
			Current: page,
			Pages:   pages,
			Total:   total,
			Limit:   limit,
		},
	}, nil
}

// UpdateStatus validates the new status, rewrites the record file and
// refreshes the index entry. AdminNotes is only overwritten when notes is
// non-empty.
func (s *Store) UpdateStatus(id, status, notes string) (*models.Application, error) {
	if !models.IsValidStatus(status) {
		return nil, apperrors.NewInvalidArgumentError(
			"Geçersiz durum. Geçerli durumlar: "+strings.Join(models.ValidStatuses, ", "),
			fmt.Sprintf("status: %s", status),
		)
	}

	fileName, err := s.findRecordFile(id)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(s.dataDir, fileName)
	app, err := s.readRecord(path)
	if err != nil {
		return nil, err
	}

	app.Status = status
	app.UpdatedAt = s.now().Format(models.TimestampLayout)
	if notes != "" {
		app.AdminNotes = notes
	}

	if err := s.writeRecord(path, app); err != nil {
		return nil, err
	}
	if err := s.upsertIndex(app); err != nil {
		return nil, err
	}

	s.logger.Info("application status updated", map[string]interface{}{
		"applicationId": id,
		"status":        status,
	})
	return app, nil
}

// SoftDelete copies the record file into the deleted/ backup subdirectory,
// removes the original and drops the index entry.
func (s *Store) SoftDelete(id string) error {
	fileName, err := s.findRecordFile(id)
	if err != nil {
		return err
	}

	backupDir := filepath.Join(s.dataDir, deletedSubdir)
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return apperrors.NewIOError("mkdir", err)
	}

	src := filepath.Join(s.dataDir, fileName)
	dst := filepath.Join(backupDir, fmt.Sprintf("deleted_%d_%s", s.now().UnixMilli(), fileName))

	if err := copyFile(src, dst); err != nil {
		return apperrors.NewIOError("backup", err)
	}
	if err := os.Remove(src); err != nil {
		return apperrors.NewIOError("remove", err)
	}

	if err := s.removeFromIndex(id); err != nil {
		return err
	}

	s.logger.Info("application deleted", map[string]interface{}{"applicationId": id})
	return nil
}

// LoadFull resolves index entries to their full records. Unreadable records
// are logged and skipped so one corrupt file cannot break an export.
func (s *Store) LoadFull(entries []models.IndexEntry) []*models.Application {
	apps := make([]*models.Application, 0, len(entries))
	for _, e := range entries {
		app, err := s.GetByID(e.ID)
		if err != nil {
			s.logger.WithError(err).Warn("skipping unreadable application", map[string]interface{}{
				"applicationId": e.ID,
			})
			continue
		}
		apps = append(apps, app)
	}
	return apps
}

// ReadIndex returns the current index entries, newest first. A missing or
// corrupt index degrades to an empty listing.
func (s *Store) ReadIndex() []models.IndexEntry {
	data, err := os.ReadFile(filepath.Join(s.dataDir, indexFileName))
	if err != nil {
		return nil
	}
	var entries []models.IndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.WithError(err).Warn("applications index is corrupt, treating as empty", nil)
		return nil
	}
	return entries
}

// DataDir returns the store's base directory.
func (s *Store) DataDir() string {
	return s.dataDir
}

func (s *Store) findRecordFile(id string) (string, error) {
	if id == "" {
		return "", apperrors.NewNotFoundError("Başvuru", "empty id")
	}
	files, err := os.ReadDir(s.dataDir)
	if err != nil {
		return "", apperrors.NewIOError("readdir", err)
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		if strings.Contains(f.Name(), id) {
			return f.Name(), nil
		}
	}
	return "", apperrors.NewNotFoundError("Başvuru", fmt.Sprintf("applicationId: %s", id))
}

func (s *Store) readRecord(path string) (*models.Application, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewIOError("read", err)
	}
	var app models.Application
	if err := json.Unmarshal(data, &app); err != nil {
		return nil, apperrors.NewIOError("decode", err)
	}
	return &app, nil
}

func (s *Store) writeRecord(path string, app *models.Application) error {
	data, err := json.MarshalIndent(app, "", "  ")
	if err != nil {
		return apperrors.NewIOError("encode", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.NewIOError("write", err)
	}
	return nil
}

func (s *Store) upsertIndex(app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.ReadIndex()

	entry := models.IndexEntry{
		ID:        app.ID,
		FullName:  app.FullName,
		Email:     app.Email,
		Phone:     app.Phone,
		CreatedAt: app.CreatedAt,
		UpdatedAt: app.UpdatedAt,
		Status:    app.Status,
	}

	found := false
	for i := range entries {
		if entries[i].ID == app.ID {
			entries[i] = entry
			found = true
			break
		}
	}
	if !found {
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt > entries[j].CreatedAt
	})

	return s.writeIndex(entries)
}

func (s *Store) removeFromIndex(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.ReadIndex()
	kept := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	return s.writeIndex(kept)
}

func (s *Store) writeIndex(entries []models.IndexEntry) error {
	if entries == nil {
		entries = []models.IndexEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return apperrors.NewIOError("encode index", err)
	}
	if err := os.WriteFile(filepath.Join(s.dataDir, indexFileName), data, 0o644); err != nil {
		return apperrors.NewIOError("write index", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

// createdAfter reports whether the record timestamp falls after the filter
// date. Filter values may be a bare date or a full timestamp.
func createdAfter(createdAt, startDate string) bool {
	created, ok := parseRecordTime(createdAt)
	if !ok {
		return false
	}
	start, ok := parseFilterTime(startDate)
	if !ok {
		return true
	}
	return created.After(start)
}

func createdBefore(createdAt, endDate string) bool {
	created, ok := parseRecordTime(createdAt)
	if !ok {
		return false
	}
	end, ok := parseFilterTime(endDate)
	if !ok {
		return true
	}
	return created.Before(end)
}

func parseRecordTime(value string) (time.Time, bool) {
	t, err := time.Parse(models.TimestampLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseFilterTime(value string) (time.Time, bool) {
	for _, layout := range []string{models.TimestampLayout, models.DateLayout} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func matchesSearch(e models.IndexEntry, search string) bool {
	lower := strings.ToLower(search)
	return strings.Contains(strings.ToLower(e.FullName), lower) ||
		strings.Contains(strings.ToLower(e.Email), lower) ||
		strings.Contains(e.Phone, search)
}
