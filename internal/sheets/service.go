// Package sheets mirrors accepted applications into a Google spreadsheet.
// The mirror is best effort, a failed append never fails the submission.
package sheets

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"detox-form-api/internal/common/config"
	apperrors "detox-form-api/internal/common/errors"
	"detox-form-api/internal/common/logger"
	"detox-form-api/internal/models"
)

const headerRange = "A1:Z1"

// Service appends application rows to the configured sheet.
type Service struct {
	svc           *gsheets.Service
	spreadsheetID string
	sheetName     string
	loc           *time.Location
	logger        logger.Logger
}

// NewService builds the sheets client from a service-account credentials
// file and makes sure the target sheet and its header row exist.
func NewService(ctx context.Context, cfg config.SheetsConfig, timezone string, log logger.Logger) (*Service, error) {
	svc, err := gsheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsFile), option.WithScopes(gsheets.SpreadsheetsScope))
	if err != nil {
		return nil, apperrors.NewSheetsSyncFailedError(fmt.Errorf("initialize sheets client: %w", err))
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}

	s := &Service{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		loc:           loc,
		logger:        log,
	}

	if err := s.ensureSheet(ctx); err != nil {
		return nil, err
	}
	if err := s.ensureHeader(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// Append mirrors a single application as a new row.
func (s *Service) Append(ctx context.Context, app *models.Application) error {
	values := &gsheets.ValueRange{Values: [][]interface{}{Row(app, s.loc)}}

	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, s.appendRange(), values).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		s.logger.WithError(err).Error("sheets append failed", map[string]interface{}{
			"applicationId": app.ID,
			"sheet":         s.sheetName,
		})
		return apperrors.NewSheetsSyncFailedError(fmt.Errorf("append row: %w", err))
	}

	s.logger.Debug("application mirrored to sheet", map[string]interface{}{
		"applicationId": app.ID,
		"sheet":         s.sheetName,
	})
	return nil
}

// Rows reads the data rows currently in the sheet, header excluded. An
// empty readRange means the full mirrored column set.
func (s *Service) Rows(ctx context.Context, readRange string) ([][]interface{}, error) {
	if readRange == "" {
		readRange = s.appendRange()
	} else {
		readRange = fmt.Sprintf("%s!%s", s.sheetName, readRange)
	}

	resp, err := s.svc.Spreadsheets.Values.
		Get(s.spreadsheetID, readRange).
		Context(ctx).
		Do()
	if err != nil {
		return nil, apperrors.NewSheetsSyncFailedError(fmt.Errorf("read rows: %w", err))
	}

	if len(resp.Values) <= 1 {
		return nil, nil
	}
	return resp.Values[1:], nil
}

// ConnectionInfo describes the spreadsheet reached by TestConnection.
type ConnectionInfo struct {
	SpreadsheetTitle string `json:"spreadsheetTitle"`
	SheetCount       int    `json:"sheetCount"`
}

// TestConnection fetches spreadsheet metadata to verify credentials and
// the spreadsheet id.
func (s *Service) TestConnection(ctx context.Context) (*ConnectionInfo, error) {
	resp, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, apperrors.NewSheetsSyncFailedError(fmt.Errorf("reach spreadsheet: %w", err))
	}

	info := &ConnectionInfo{SheetCount: len(resp.Sheets)}
	if resp.Properties != nil {
		info.SpreadsheetTitle = resp.Properties.Title
	}
	return info, nil
}

func (s *Service) appendRange() string {
	return fmt.Sprintf("%s!A:X", s.sheetName)
}

// ensureSheet adds the target sheet when the spreadsheet does not have it.
func (s *Service) ensureSheet(ctx context.Context) error {
	resp, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return apperrors.NewSheetsSyncFailedError(fmt.Errorf("inspect spreadsheet: %w", err))
	}

	for _, sheet := range resp.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == s.sheetName {
			return nil
		}
	}

	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{Title: s.sheetName},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return apperrors.NewSheetsSyncFailedError(fmt.Errorf("create sheet: %w", err))
	}

	s.logger.Info("created missing sheet", map[string]interface{}{"sheet": s.sheetName})
	return nil
}

// ensureHeader writes the header row when the first row is empty.
func (s *Service) ensureHeader(ctx context.Context) error {
	rng := fmt.Sprintf("%s!%s", s.sheetName, headerRange)

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return apperrors.NewSheetsSyncFailedError(fmt.Errorf("read header row: %w", err))
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	values := &gsheets.ValueRange{Values: [][]interface{}{headerRow}}
	_, err = s.svc.Spreadsheets.Values.
		Update(s.spreadsheetID, rng, values).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return apperrors.NewSheetsSyncFailedError(fmt.Errorf("write header row: %w", err))
	}

	s.logger.Info("wrote sheet header row", map[string]interface{}{"sheet": s.sheetName})
	return nil
}
