package server

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"

	"detox-form-api/internal/common/auth"
	"detox-form-api/internal/common/config"
	apperrors "detox-form-api/internal/common/errors"
	"detox-form-api/internal/common/logger"
	"detox-form-api/internal/models"
	"detox-form-api/internal/sheets"
	"detox-form-api/internal/stats"
	"detox-form-api/internal/store"
)

// SheetsAdmin exposes the spreadsheet management operations used by the
// admin panel.
type SheetsAdmin interface {
	TestConnection(ctx context.Context) (*sheets.ConnectionInfo, error)
	Rows(ctx context.Context, readRange string) ([][]interface{}, error)
}

// AdminHandler serves login, dashboards, statistics and exports.
type AdminHandler struct {
	cfg        config.AdminConfig
	tokens     *auth.TokenManager
	store      *store.Store
	stats      *stats.Engine
	sheets     SheetsAdmin // nil when the mirror is disabled
	uploadsDir string
	logger     logger.Logger
	started    time.Time
}

func NewAdminHandler(cfg config.AdminConfig, tokens *auth.TokenManager, st *store.Store, engine *stats.Engine, sh SheetsAdmin, uploadsDir string, log logger.Logger) *AdminHandler {
	return &AdminHandler{
		cfg:        cfg,
		tokens:     tokens,
		store:      st,
		stats:      engine,
		sheets:     sh,
		uploadsDir: uploadsDir,
		logger:     log,
		started:    time.Now(),
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks the configured admin credentials and issues a session token.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.NewInvalidArgumentError("Geçersiz istek gövdesi", err.Error()))
	}

	if req.Email != h.cfg.Email || req.Password != h.cfg.Password {
		h.logger.Warn("failed admin login", map[string]interface{}{
			"email": req.Email,
			"ip":    c.IP(),
		})
		return respondError(c, apperrors.NewUnauthorizedError("credential mismatch"))
	}

	token, err := h.tokens.Issue(req.Email)
	if err != nil {
		return respondError(c, err)
	}

	h.logger.Info("admin logged in", map[string]interface{}{"email": req.Email})
	return respondData(c, fiber.StatusOK, fiber.Map{
		"token": token,
		"user": fiber.Map{
			"email": req.Email,
			"role":  auth.RoleAdmin,
		},
	})
}

// Dashboard returns the landing page aggregation.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	entries := h.store.ReadIndex()
	return respondData(c, fiber.StatusOK, h.stats.DashboardSummary(entries))
}

// Statistics returns the period-scoped analytics.
func (h *AdminHandler) Statistics(c *fiber.Ctx) error {
	entries := h.store.ReadIndex()
	return respondData(c, fiber.StatusOK, h.stats.DetailedStatistics(entries, c.Query("period", "30d")))
}

// System reports runtime and storage details.
func (h *AdminHandler) System(c *fiber.Ctx) error {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return respondData(c, fiber.StatusOK, fiber.Map{
		"server": fiber.Map{
			"platform":   runtime.GOOS,
			"arch":       runtime.GOARCH,
			"goVersion":  runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
			"uptime":     time.Since(h.started).String(),
			"memory": fiber.Map{
				"alloc":      stats.FormatFileSize(int64(mem.Alloc)),
				"totalAlloc": stats.FormatFileSize(int64(mem.TotalAlloc)),
				"sys":        stats.FormatFileSize(int64(mem.Sys)),
			},
		},
		"storage": fiber.Map{
			"dataSize":    stats.FormatFileSize(dirSize(h.store.DataDir())),
			"uploadsSize": stats.FormatFileSize(dirSize(h.uploadsDir)),
		},
	})
}

// SheetsTest verifies the spreadsheet connection.
func (h *AdminHandler) SheetsTest(c *fiber.Ctx) error {
	if h.sheets == nil {
		return respondError(c, apperrors.NewInvalidArgumentError("Google Sheets entegrasyonu devre dışı", ""))
	}

	info, err := h.sheets.TestConnection(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return respondMessage(c, fiber.StatusOK, "Bağlantı başarılı", info)
}

// SheetsExport reads the mirrored rows back from the spreadsheet, an
// optional range query narrows the read.
func (h *AdminHandler) SheetsExport(c *fiber.Ctx) error {
	if h.sheets == nil {
		return respondError(c, apperrors.NewInvalidArgumentError("Google Sheets entegrasyonu devre dışı", ""))
	}

	rows, err := h.sheets.Rows(c.UserContext(), c.Query("range"))
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, fiber.Map{
		"rows":  rows,
		"count": len(rows),
	})
}

// Export streams the stored applications as a JSON or CSV download.
func (h *AdminHandler) Export(c *fiber.Ctx) error {
	format := c.Query("format", "json")
	if format != "json" && format != "csv" {
		return respondError(c, apperrors.NewInvalidArgumentError("Geçersiz format. json veya csv kullanın", format))
	}

	apps := h.store.Export(store.ExportFilter{
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
	})

	date := time.Now().Format(models.DateLayout)
	if format == "csv" {
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="applications_%s.csv"`, date))
		return c.SendString(store.ToCSV(apps))
	}

	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="applications_%s.json"`, date))
	return c.JSON(apps)
}
