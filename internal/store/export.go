package store

import (
	"fmt"
	"strings"

	"detox-form-api/internal/models"
)

// ExportFilter narrows an export to a creation date range.
type ExportFilter struct {
	StartDate string
	EndDate   string
}

// Export resolves the filtered index to full records for download.
func (s *Store) Export(f ExportFilter) []*models.Application {
	entries := s.ReadIndex()

	filtered := entries[:0:0]
	for _, e := range entries {
		if f.StartDate != "" && !createdAfter(e.CreatedAt, f.StartDate) {
			continue
		}
		if f.EndDate != "" && !createdBefore(e.CreatedAt, f.EndDate) {
			continue
		}
		filtered = append(filtered, e)
	}

	return s.LoadFull(filtered)
}

var csvHeaders = []string{
	"ID",
	"Ad Soyad",
	"Yaş",
	"Boy",
	"Kilo",
	"Meslek",
	"Email",
	"Telefon",
	"Başvuru Tarihi",
	"Durum",
}

// ToCSV renders applications with the admin panel's column set. Every field
// is quoted, matching what the panel's importer expects.
func ToCSV(apps []*models.Application) string {
	if len(apps) == 0 {
		return "No data available"
	}

	rows := make([][]string, 0, len(apps)+1)
	rows = append(rows, csvHeaders)
	for _, app := range apps {
		rows = append(rows, []string{
			app.ID,
			app.FullName,
			fmt.Sprintf("%d", app.Age.Int()),
			fmt.Sprintf("%d", app.Height.Int()),
			fmt.Sprintf("%d", app.Weight.Int()),
			app.Occupation,
			app.Email,
			app.Phone,
			app.CreatedAt,
			app.Status,
		})
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		quoted := make([]string, len(row))
		for i, field := range row {
			quoted[i] = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
		}
		lines = append(lines, strings.Join(quoted, ","))
	}
	return strings.Join(lines, "\n")
}
