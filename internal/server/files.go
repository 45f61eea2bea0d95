package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"detox-form-api/internal/common/config"
	apperrors "detox-form-api/internal/common/errors"
	"detox-form-api/internal/common/logger"
	"detox-form-api/internal/models"
	"detox-form-api/internal/stats"
)

const deletedSubdir = "deleted"

// inline content types are shown in the browser, everything else downloads.
var inlineExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
}

// FilesHandler serves the upload area: blood test reports and other
// attachments posted with the form.
type FilesHandler struct {
	uploadsDir string
	cfg        config.UploadsConfig
	logger     logger.Logger
}

func NewFilesHandler(uploadsDir string, cfg config.UploadsConfig, log logger.Logger) *FilesHandler {
	return &FilesHandler{uploadsDir: uploadsDir, cfg: cfg, logger: log}
}

type uploadedFile struct {
	OriginalName string `json:"originalName"`
	Filename     string `json:"filename"`
	Size         int64  `json:"size"`
	Mimetype     string `json:"mimetype"`
	UploadDate   string `json:"uploadDate"`
	URL          string `json:"url"`
}

// Upload stores the multipart "files" field. Each file gets a random name,
// the original name survives only in the response.
func (h *FilesHandler) Upload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return respondError(c, apperrors.NewInvalidArgumentError("Dosya yüklenemedi", err.Error()))
	}

	files := form.File["files"]
	if len(files) == 0 {
		return respondError(c, apperrors.NewInvalidArgumentError("Yüklenecek dosya bulunamadı", ""))
	}
	if len(files) > h.cfg.MaxFiles {
		return respondError(c, apperrors.NewInvalidArgumentError(
			fmt.Sprintf("En fazla %d dosya yükleyebilirsiniz", h.cfg.MaxFiles), ""))
	}

	uploaded := make([]uploadedFile, 0, len(files))
	for _, file := range files {
		if file.Size > h.cfg.MaxFileSize {
			return respondError(c, apperrors.NewInvalidArgumentError(
				fmt.Sprintf("Dosya boyutu en fazla %s olabilir", stats.FormatFileSize(h.cfg.MaxFileSize)), file.Filename))
		}

		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !h.allowedType(ext) {
			return respondError(c, apperrors.NewInvalidArgumentError(
				fmt.Sprintf("Desteklenmeyen dosya türü. İzin verilenler: %s", strings.Join(h.cfg.AllowedTypes, ", ")), file.Filename))
		}

		name := uuid.New().String() + ext
		if err := h.saveFile(file, filepath.Join(h.uploadsDir, name)); err != nil {
			return respondError(c, err)
		}

		uploaded = append(uploaded, uploadedFile{
			OriginalName: file.Filename,
			Filename:     name,
			Size:         file.Size,
			Mimetype:     file.Header.Get(fiber.HeaderContentType),
			UploadDate:   time.Now().Format(models.TimestampLayout),
			URL:          "/api/v1/files/" + name,
		})
	}

	h.logger.Info("files uploaded", map[string]interface{}{"count": len(uploaded)})
	return respondMessage(c, fiber.StatusCreated, "Dosyalar başarıyla yüklendi", fiber.Map{
		"files": uploaded,
		"count": len(uploaded),
	})
}

// Download streams a stored file. Images and PDFs render inline, the rest
// download as attachments.
func (h *FilesHandler) Download(c *fiber.Ctx) error {
	path, err := h.resolve(c.Params("filename"))
	if err != nil {
		return respondError(c, err)
	}

	if inlineExtensions[strings.ToLower(filepath.Ext(path))] {
		c.Set(fiber.HeaderContentDisposition, "inline")
	} else {
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filepath.Base(path)))
	}
	return c.SendFile(path)
}

// Info returns metadata for a stored file.
func (h *FilesHandler) Info(c *fiber.Ctx) error {
	path, err := h.resolve(c.Params("filename"))
	if err != nil {
		return respondError(c, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return respondError(c, apperrors.NewNotFoundError("Dosya", c.Params("filename")))
	}

	return respondData(c, fiber.StatusOK, fiber.Map{
		"filename":      info.Name(),
		"size":          info.Size(),
		"sizeFormatted": stats.FormatFileSize(info.Size()),
		"uploadDate":    info.ModTime().Format(models.TimestampLayout),
		"url":           "/api/v1/files/" + info.Name(),
	})
}

// Delete moves a file into the deleted area, mirroring the record store's
// soft delete.
func (h *FilesHandler) Delete(c *fiber.Ctx) error {
	path, err := h.resolve(c.Params("filename"))
	if err != nil {
		return respondError(c, err)
	}

	name := filepath.Base(path)
	backup := filepath.Join(h.uploadsDir, deletedSubdir, fmt.Sprintf("deleted_%d_%s", time.Now().UnixMilli(), name))
	if err := os.MkdirAll(filepath.Dir(backup), 0o755); err != nil {
		return respondError(c, apperrors.NewIOError("mkdir deleted", err))
	}
	if err := os.Rename(path, backup); err != nil {
		return respondError(c, apperrors.NewIOError("move to deleted", err))
	}

	h.logger.Info("file deleted", map[string]interface{}{"filename": name})
	return respondMessage(c, fiber.StatusOK, "Dosya silindi", nil)
}

// List returns every stored file with the combined size.
func (h *FilesHandler) List(c *fiber.Ctx) error {
	entries, err := os.ReadDir(h.uploadsDir)
	if err != nil {
		return respondError(c, apperrors.NewIOError("read uploads dir", err))
	}

	files := make([]uploadedFile, 0, len(entries))
	var totalSize int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		totalSize += info.Size()
		files = append(files, uploadedFile{
			Filename:   info.Name(),
			Size:       info.Size(),
			UploadDate: info.ModTime().Format(models.TimestampLayout),
			URL:        "/api/v1/files/" + info.Name(),
		})
	}

	return respondData(c, fiber.StatusOK, fiber.Map{
		"files":              files,
		"count":              len(files),
		"totalSize":          totalSize,
		"totalSizeFormatted": stats.FormatFileSize(totalSize),
	})
}

func (h *FilesHandler) allowedType(ext string) bool {
	ext = strings.TrimPrefix(ext, ".")
	for _, allowed := range h.cfg.AllowedTypes {
		if ext == allowed {
			return true
		}
	}
	return false
}

// resolve maps a filename parameter to a path inside the uploads dir and
// rejects traversal attempts.
func (h *FilesHandler) resolve(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", apperrors.NewInvalidArgumentError("Geçersiz dosya adı", filename)
	}

	path := filepath.Join(h.uploadsDir, filename)
	if _, err := os.Stat(path); err != nil {
		return "", apperrors.NewNotFoundError("Dosya", filename)
	}
	return path, nil
}

func (h *FilesHandler) saveFile(file *multipart.FileHeader, dst string) error {
	src, err := file.Open()
	if err != nil {
		return apperrors.NewIOError("open upload", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return apperrors.NewIOError("create upload target", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return apperrors.NewIOError("write upload", err)
	}
	return nil
}

// dirSize walks a directory tree and sums file sizes.
func dirSize(dir string) int64 {
	var size int64
	filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size
}
