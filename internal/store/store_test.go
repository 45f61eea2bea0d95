package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "detox-form-api/internal/common/errors"
	"detox-form-api/internal/common/logger"
	"detox-form-api/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), logger.NewNoOpLogger())
	require.NoError(t, err)
	return s
}

func testForm(name string) models.SubmissionForm {
	return models.SubmissionForm{
		FullName:   name,
		Age:        30,
		Height:     175,
		Weight:     70,
		Occupation: "Engineer",
		Email:      strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Phone:      "05321234567",
	}
}

func TestCreateAssignsDefaults(t *testing.T) {
	s := newTestStore(t)

	app, err := s.Create(testForm("Ayşe Yılmaz"), models.Metadata{IP: "1.2.3.4", UserAgent: "test"})
	require.NoError(t, err)

	assert.NotEmpty(t, app.ID)
	assert.Equal(t, models.StatusPending, app.Status)
	assert.Equal(t, app.CreatedAt, app.UpdatedAt)

	_, err = time.Parse(models.TimestampLayout, app.CreatedAt)
	assert.NoError(t, err, "createdAt should use the record timestamp layout")

	// record file named application_<id>_<date>.json
	files, err := os.ReadDir(s.DataDir())
	require.NoError(t, err)
	var recordName string
	for _, f := range files {
		if strings.HasPrefix(f.Name(), "application_") {
			recordName = f.Name()
		}
	}
	assert.Contains(t, recordName, app.ID)
	assert.True(t, strings.HasSuffix(recordName, ".json"))

	entries := s.ReadIndex()
	require.Len(t, entries, 1)
	assert.Equal(t, app.ID, entries[0].ID)
	assert.Equal(t, "Ayşe Yılmaz", entries[0].FullName)
}

func TestGetByID(t *testing.T) {
	s := newTestStore(t)

	created, err := s.Create(testForm("Mehmet Demir"), models.Metadata{})
	require.NoError(t, err)

	got, err := s.GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Mehmet Demir", got.FullName)

	_, err = s.GetByID("no-such-id")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestIndexSortedNewestFirst(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		offset := time.Duration(i) * time.Hour
		s.now = func() time.Time { return base.Add(offset) }
		_, err := s.Create(testForm("User "+string(rune('A'+i))), models.Metadata{})
		require.NoError(t, err)
	}

	entries := s.ReadIndex()
	require.Len(t, entries, 3)
	assert.Equal(t, "User C", entries[0].FullName)
	assert.Equal(t, "User A", entries[2].FullName)
}

func TestListIndexFilters(t *testing.T) {
	s := newTestStore(t)

	times := []time.Time{
		time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC),
	}
	names := []string{"Ali Kaya", "Veli Çelik", "Zeynep Arslan"}

	ids := make([]string, 0, 3)
	for i, ts := range times {
		tsCopy := ts
		s.now = func() time.Time { return tsCopy }
		app, err := s.Create(testForm(names[i]), models.Metadata{})
		require.NoError(t, err)
		ids = append(ids, app.ID)
	}

	_, err := s.UpdateStatus(ids[1], models.StatusApproved, "")
	require.NoError(t, err)

	tests := []struct {
		name     string
		filter   ListFilter
		expected []string
	}{
		{
			name:     "status filter",
			filter:   ListFilter{Status: models.StatusApproved},
			expected: []string{"Veli Çelik"},
		},
		{
			name:     "start date excludes earlier",
			filter:   ListFilter{StartDate: "2026-03-04"},
			expected: []string{"Zeynep Arslan", "Veli Çelik"},
		},
		{
			name:     "end date excludes later",
			filter:   ListFilter{EndDate: "2026-03-06"},
			expected: []string{"Veli Çelik", "Ali Kaya"},
		},
		{
			name:     "search by name fragment",
			filter:   ListFilter{Search: "zeynep"},
			expected: []string{"Zeynep Arslan"},
		},
		{
			name:     "search by email fragment",
			filter:   ListFilter{Search: "veli.çelik"},
			expected: []string{"Veli Çelik"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.ListIndex(tt.filter)
			require.NoError(t, err)
			got := make([]string, 0, len(result.Applications))
			for _, e := range result.Applications {
				got = append(got, e.FullName)
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestListIndexPagination(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		offset := time.Duration(i) * time.Minute
		s.now = func() time.Time { return base.Add(offset) }
		_, err := s.Create(testForm("User "+string(rune('A'+i))), models.Metadata{})
		require.NoError(t, err)
	}

	result, err := s.ListIndex(ListFilter{Page: 2, Limit: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Pagination.Current)
	assert.Equal(t, 3, result.Pagination.Pages)
	assert.Equal(t, 5, result.Pagination.Total)
	require.Len(t, result.Applications, 2)
	assert.Equal(t, "User C", result.Applications[0].FullName)

	// page past the end returns an empty slice, not an error
	result, err = s.ListIndex(ListFilter{Page: 9, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, result.Applications)
	assert.Equal(t, 5, result.Pagination.Total)
}

func TestUpdateStatus(t *testing.T) {
	s := newTestStore(t)

	app, err := s.Create(testForm("Fatma Şahin"), models.Metadata{})
	require.NoError(t, err)

	updated, err := s.UpdateStatus(app.ID, models.StatusContacted, "called twice")
	require.NoError(t, err)
	assert.Equal(t, models.StatusContacted, updated.Status)
	assert.Equal(t, "called twice", updated.AdminNotes)

	// empty notes keep the previous value
	updated, err = s.UpdateStatus(app.ID, models.StatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, "called twice", updated.AdminNotes)

	entries := s.ReadIndex()
	require.Len(t, entries, 1)
	assert.Equal(t, models.StatusApproved, entries[0].Status)

	_, err = s.UpdateStatus(app.ID, "archived", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidArgument))

	_, err = s.UpdateStatus("missing", models.StatusApproved, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestSoftDelete(t *testing.T) {
	s := newTestStore(t)

	app, err := s.Create(testForm("Deniz Koç"), models.Metadata{})
	require.NoError(t, err)

	require.NoError(t, s.SoftDelete(app.ID))

	_, err = s.GetByID(app.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))

	assert.Empty(t, s.ReadIndex())

	// backup copy lives under deleted/ with a recoverable name
	backups, err := os.ReadDir(filepath.Join(s.DataDir(), deletedSubdir))
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.True(t, strings.HasPrefix(backups[0].Name(), "deleted_"))
	assert.Contains(t, backups[0].Name(), app.ID)

	err = s.SoftDelete(app.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestReadIndexCorruptDegradesToEmpty(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, os.WriteFile(filepath.Join(s.DataDir(), indexFileName), []byte("{not json"), 0o644))
	assert.Empty(t, s.ReadIndex())

	result, err := s.ListIndex(ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, result.Applications)
}

func TestLoadFullSkipsUnreadable(t *testing.T) {
	s := newTestStore(t)

	a, err := s.Create(testForm("Okur Yazar"), models.Metadata{})
	require.NoError(t, err)
	b, err := s.Create(testForm("Bozuk Kayıt"), models.Metadata{})
	require.NoError(t, err)

	// corrupt b's record file
	fileName, err := s.findRecordFile(b.ID)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(s.DataDir(), fileName), []byte("oops"), 0o644))

	apps := s.LoadFull(s.ReadIndex())
	require.Len(t, apps, 1)
	assert.Equal(t, a.ID, apps[0].ID)
}

func TestToCSV(t *testing.T) {
	assert.Equal(t, "No data available", ToCSV(nil))

	app := &models.Application{
		ID:        "abc-123",
		CreatedAt: "2026-03-01 10:00:00",
		Status:    models.StatusPending,
		SubmissionForm: models.SubmissionForm{
			FullName:   "Ali Kaya",
			Age:        42,
			Height:     180,
			Weight:     82,
			Occupation: "Öğretmen",
			Email:      "ali@example.com",
			Phone:      "05321234567",
		},
	}

	csv := ToCSV([]*models.Application{app})
	lines := strings.Split(csv, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"ID","Ad Soyad","Yaş","Boy","Kilo","Meslek","Email","Telefon","Başvuru Tarihi","Durum"`, lines[0])
	assert.Contains(t, lines[1], `"Ali Kaya"`)
	assert.Contains(t, lines[1], `"42"`)
	assert.Contains(t, lines[1], `"2026-03-01 10:00:00"`)
}

func TestExportDateRange(t *testing.T) {
	s := newTestStore(t)

	times := []time.Time{
		time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC),
	}
	for i, ts := range times {
		tsCopy := ts
		s.now = func() time.Time { return tsCopy }
		_, err := s.Create(testForm("User "+string(rune('A'+i))), models.Metadata{})
		require.NoError(t, err)
	}

	apps := s.Export(ExportFilter{StartDate: "2026-02-10", EndDate: "2026-02-20"})
	require.Len(t, apps, 1)
	assert.Equal(t, "User B", apps[0].FullName)
}
