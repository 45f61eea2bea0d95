package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"

	apperrors "detox-form-api/internal/common/errors"
	"detox-form-api/internal/common/logger"
	"detox-form-api/internal/common/metrics"
	"detox-form-api/internal/guard"
	"detox-form-api/internal/models"
	"detox-form-api/internal/notify"
	"detox-form-api/internal/store"
	"detox-form-api/internal/validation"
)

// mirrorTimeout bounds the background sheet append and email send per
// submission.
const mirrorTimeout = 30 * time.Second

// SheetMirror appends an accepted application to the spreadsheet.
type SheetMirror interface {
	Append(ctx context.Context, app *models.Application) error
}

// ApplicationHandler serves the public submission endpoint and the admin
// application management endpoints.
type ApplicationHandler struct {
	store  *store.Store
	guard  guard.Guard
	sheets SheetMirror  // nil when the mirror is disabled
	mailer notify.Mailer // nil when notifications are disabled
	logger logger.Logger
}

func NewApplicationHandler(st *store.Store, g guard.Guard, sheets SheetMirror, mailer notify.Mailer, log logger.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		store:  st,
		guard:  g,
		sheets: sheets,
		mailer: mailer,
		logger: log,
	}
}

// Submit handles a public form submission: duplicate guard, shape check,
// field validation, persist, then best-effort mirroring in the background.
// The guard runs first and records the attempt even when the payload turns
// out to be invalid, so rapid resubmissions are throttled regardless.
func (h *ApplicationHandler) Submit(c *fiber.Ctx) error {
	body := c.Body()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return respondError(c, apperrors.NewInvalidArgumentError("Geçersiz istek gövdesi", err.Error()))
	}
	var fullName string
	if raw, ok := fields["fullName"]; ok {
		_ = json.Unmarshal(raw, &fullName)
	}

	fingerprint := guard.Fingerprint(c.IP(), fullName, c.Get(fiber.HeaderUserAgent))
	allowed, err := h.guard.Allow(c.UserContext(), fingerprint)
	if err != nil {
		h.logger.WithError(err).Warn("duplicate guard unavailable, letting submission through", nil)
		allowed = true
	}
	if !allowed {
		metrics.DuplicatesBlocked.Inc()
		return respondError(c, apperrors.NewDuplicateSubmissionError(fingerprint))
	}

	shapeErrs, err := validation.CheckPayloadShape(body)
	if err != nil {
		return respondError(c, err)
	}
	if len(shapeErrs) > 0 {
		metrics.ValidationFailures.Inc()
		return respondError(c, apperrors.NewValidationFailedError(shapeErrs))
	}

	var form models.SubmissionForm
	if err := json.Unmarshal(body, &form); err != nil {
		return respondError(c, apperrors.NewInvalidArgumentError("Geçersiz istek gövdesi", err.Error()))
	}

	if fieldErrs := validation.ValidateSubmission(&form); len(fieldErrs) > 0 {
		metrics.ValidationFailures.Inc()
		return respondError(c, apperrors.NewValidationFailedError(fieldErrs))
	}

	meta := models.Metadata{
		UserAgent:      c.Get(fiber.HeaderUserAgent),
		IP:             c.IP(),
		Referrer:       c.Get(fiber.HeaderReferer),
		SubmissionTime: time.Now().Format(models.TimestampLayout),
	}

	app, err := h.store.Create(form, meta)
	if err != nil {
		return respondError(c, err)
	}

	metrics.ApplicationsSubmitted.Inc()
	h.logger.Info("application accepted", map[string]interface{}{
		"applicationId": app.ID,
		"email":         app.Email,
	})

	go h.mirror(app)

	return respondMessage(c, fiber.StatusCreated, "Başvurunuz başarıyla alındı!", fiber.Map{
		"applicationId":  app.ID,
		"submissionTime": app.CreatedAt,
		"status":         app.Status,
	})
}

// mirror pushes the accepted application to the sheet and the admin inbox.
// Failures are logged and counted, never surfaced to the submitter.
func (h *ApplicationHandler) mirror(app *models.Application) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()

	if h.sheets != nil {
		if err := h.sheets.Append(ctx, app); err != nil {
			metrics.SheetsSyncFailures.Inc()
		}
	}
	if h.mailer != nil {
		if err := h.mailer.NotifySubmission(ctx, app); err != nil {
			metrics.NotificationFailures.Inc()
		}
	}
}

// List returns the filtered, paginated index.
func (h *ApplicationHandler) List(c *fiber.Ctx) error {
	result, err := h.store.ListIndex(store.ListFilter{
		Status:    c.Query("status"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
		Search:    c.Query("search"),
		Page:      c.QueryInt("page", 1),
		Limit:     c.QueryInt("limit", 10),
	})
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, result)
}

// Get returns a single full record.
func (h *ApplicationHandler) Get(c *fiber.Ctx) error {
	app, err := h.store.GetByID(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, app)
}

type statusUpdateRequest struct {
	Status     string `json:"status"`
	AdminNotes string `json:"adminNotes"`
}

// UpdateStatus moves an application through the review lifecycle.
func (h *ApplicationHandler) UpdateStatus(c *fiber.Ctx) error {
	var req statusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.NewInvalidArgumentError("Geçersiz istek gövdesi", err.Error()))
	}

	app, err := h.store.UpdateStatus(c.Params("id"), req.Status, req.AdminNotes)
	if err != nil {
		return respondError(c, err)
	}

	h.logger.Info("application status updated", map[string]interface{}{
		"applicationId": app.ID,
		"status":        app.Status,
	})
	return respondMessage(c, fiber.StatusOK, "Başvuru durumu güncellendi", app)
}

// Delete soft-deletes a record, the file moves into the deleted area.
func (h *ApplicationHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.store.SoftDelete(id); err != nil {
		return respondError(c, err)
	}

	h.logger.Info("application deleted", map[string]interface{}{"applicationId": id})
	return respondMessage(c, fiber.StatusOK, "Başvuru silindi", nil)
}
