package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/fathussalafi/yayasan-api/internal/dto"
	appErrors "github.com/fathussalafi/yayasan-api/pkg/errors"
)

// Folders accepted for dashboard uploads.
var mediaFolders = map[string]struct{}{
	"gallery": {},
	"news":    {},
	"schools": {},
}

const documentFolder = "ppdb"

var mediaExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"image/gif":       ".gif",
	"application/pdf": ".pdf",
}

type mediaStorage interface {
	Save(folder, ext string, r io.Reader) (string, error)
	PublicURL(rel string) string
}

// MediaUpload carries an uploaded file stream.
type MediaUpload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// MediaServiceConfig holds upload limits.
type MediaServiceConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
}

// MediaService stores uploaded images for content and the supporting
// documents of admission applicants.
type MediaService struct {
	storage   mediaStorage
	admission admissionGate
	logger    *zap.Logger
	cfg       MediaServiceConfig
	images    map[string]struct{}
	documents map[string]struct{}
}

// NewMediaService constructs the service with defaults.
func NewMediaService(storage mediaStorage, admission admissionGate, logger *zap.Logger, cfg MediaServiceConfig) *MediaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 5 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"image/jpeg", "image/png", "image/webp"}
	}
	images := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	documents := map[string]struct{}{"application/pdf": {}}
	for _, mt := range cfg.AllowedMIMEs {
		mt = strings.ToLower(strings.TrimSpace(mt))
		images[mt] = struct{}{}
		documents[mt] = struct{}{}
	}
	return &MediaService{storage: storage, admission: admission, logger: logger, cfg: cfg, images: images, documents: documents}
}

// Upload stores a dashboard image under folder.
func (s *MediaService) Upload(ctx context.Context, folder string, upload MediaUpload) (*dto.MediaUploadResponse, error) {
	folder = strings.ToLower(strings.TrimSpace(folder))
	if _, ok := mediaFolders[folder]; !ok {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, map[string]string{"folder": "folder must be gallery, news or schools"})
	}
	return s.store(folder, upload, s.images)
}

// UploadDocument stores a photo or scanned document for an applicant. It is
// only available while the admission window is open.
func (s *MediaService) UploadDocument(ctx context.Context, upload MediaUpload) (*dto.MediaUploadResponse, error) {
	if _, err := s.admission.EnsureOpen(ctx); err != nil {
		return nil, err
	}
	return s.store(documentFolder, upload, s.documents)
}

func (s *MediaService) store(folder string, upload MediaUpload, allowed map[string]struct{}) (*dto.MediaUploadResponse, error) {
	if upload.Content == nil || upload.Size <= 0 {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, map[string]string{"file": "Berkas wajib diunggah"})
	}
	if upload.Size > s.cfg.MaxFileSize {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, map[string]string{"file": fmt.Sprintf("Ukuran berkas maksimal %d KB", s.cfg.MaxFileSize/1024)})
	}
	mimeType, err := sniffMime(upload.Content)
	if err != nil {
		return nil, err
	}
	if _, ok := allowed[mimeType]; !ok {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, map[string]string{"file": fmt.Sprintf("Jenis berkas %s tidak diizinkan", mimeType)})
	}
	ext, ok := mediaExtensions[mimeType]
	if !ok {
		ext = ".bin"
	}
	rel, err := s.storage.Save(folder, ext, io.LimitReader(upload.Content, s.cfg.MaxFileSize))
	if err != nil {
		return nil, internalError(err, "failed to store upload")
	}
	s.logger.Info("media uploaded", zap.String("path", rel), zap.String("content_type", mimeType), zap.Int64("size", upload.Size))
	return &dto.MediaUploadResponse{
		Path:        rel,
		URL:         s.storage.PublicURL(rel),
		ContentType: mimeType,
		Size:        upload.Size,
	}, nil
}

// sniffMime detects the content type from the first bytes and rewinds.
func sniffMime(r io.ReadSeeker) (string, error) {
	header := make([]byte, 512)
	n, err := r.Read(header)
	if err != nil && err != io.EOF {
		return "", internalError(err, "failed to inspect upload")
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", internalError(err, "failed to reset upload stream")
	}
	if n == 0 {
		return "", appErrors.WithDetails(appErrors.ErrValidation, map[string]string{"file": "Berkas kosong"})
	}
	mimeType := http.DetectContentType(header[:n])
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType)), nil
}
