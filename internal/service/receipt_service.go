package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"
	"time"

	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/dafibh/casa/casa-backend/internal/repository/storage"
	"github.com/dafibh/casa/casa-backend/internal/websocket"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"
)

const (
	MaxReceiptSize   = 5 * 1024 * 1024 // 5MB
	MinReceiptWidth  = 50
	MinReceiptHeight = 50
	ThumbnailWidth   = 200
	DisplayWidth     = 1200
	JPEGQuality      = 85
	ReceiptURLExpiry = 15 * time.Minute
)

var (
	ErrReceiptTooLarge      = fmt.Errorf("%w: file too large. Maximum size is 5MB", domain.ErrValidation)
	ErrInvalidFormat        = fmt.Errorf("%w: invalid format. Supported: JPEG, PNG, WebP", domain.ErrValidation)
	ErrReceiptTooSmall      = fmt.Errorf("%w: image too small. Minimum 50x50 pixels", domain.ErrValidation)
	ErrInvalidImageData     = fmt.Errorf("%w: invalid image data", domain.ErrValidation)
	ErrReceiptNotFound      = fmt.Errorf("receipt %w", domain.ErrNotFound)
	ErrStorageNotConfigured = errors.New("receipt storage not configured")
)

// AllowedExtensions maps extensions to content types
var AllowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ReceiptURLs are presigned links to a stored receipt
type ReceiptURLs struct {
	ThumbnailURL string    `json:"thumbnailUrl"`
	DisplayURL   string    `json:"displayUrl"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// ReceiptService stores receipt photos for expenses
type ReceiptService struct {
	eventEmitter
	store       storage.ObjectStore
	expenseRepo domain.ExpenseRepository
}

// NewReceiptService creates a new ReceiptService. store may be nil when
// object storage is not configured.
func NewReceiptService(store storage.ObjectStore, expenseRepo domain.ExpenseRepository) *ReceiptService {
	return &ReceiptService{store: store, expenseRepo: expenseRepo}
}

// IsEnabled indicates whether uploads are supported (storage configured)
func (s *ReceiptService) IsEnabled() bool {
	return s != nil && s.store != nil
}

// ValidateImage validates image format and size
func (s *ReceiptService) ValidateImage(data []byte, filename string) error {
	_, err := s.validateAndDecode(data, filename)
	return err
}

func (s *ReceiptService) validateAndDecode(data []byte, filename string) (image.Image, error) {
	if len(data) > MaxReceiptSize {
		return nil, ErrReceiptTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := AllowedExtensions[ext]; !ok {
		return nil, ErrInvalidFormat
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImageData
	}

	bounds := img.Bounds()
	if bounds.Dx() < MinReceiptWidth || bounds.Dy() < MinReceiptHeight {
		return nil, ErrReceiptTooSmall
	}

	return img, nil
}

// Upload re-encodes the image as JPEG in display and thumbnail sizes, stores
// both and records the display path on the expense. A previous receipt is removed.
func (s *ReceiptService) Upload(ctx context.Context, ownerID uuid.UUID, expenseID string, data []byte, filename string) (*domain.Expense, error) {
	if !s.IsEnabled() {
		return nil, ErrStorageNotConfigured
	}
	if ownerID == uuid.Nil {
		return nil, nil
	}

	img, err := s.validateAndDecode(data, filename)
	if err != nil {
		return nil, err
	}

	expense, err := s.expenseRepo.GetByID(ctx, ownerID, expenseID)
	if err != nil {
		return nil, err
	}

	uploadID := uuid.New().String()
	variants := []struct {
		name     string
		maxWidth int
	}{
		{"thumb", ThumbnailWidth},
		{"display", DisplayWidth},
	}

	uploaded := make([]string, 0, len(variants))
	for _, variant := range variants {
		processed := img
		if img.Bounds().Dx() > variant.maxWidth {
			processed = imaging.Resize(img, variant.maxWidth, 0, imaging.Lanczos)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, processed, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			s.cleanup(ctx, uploaded)
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}

		objectPath := storage.ReceiptPath(ownerID.String(), expenseID, uploadID, variant.name)
		if _, err := s.store.Upload(ctx, objectPath, bytes.NewReader(buf.Bytes()), "image/jpeg", int64(buf.Len())); err != nil {
			s.cleanup(ctx, uploaded)
			return nil, fmt.Errorf("failed to upload %s variant: %w", variant.name, err)
		}
		uploaded = append(uploaded, objectPath)
	}

	displayPath := storage.ReceiptPath(ownerID.String(), expenseID, uploadID, "display")
	if err := s.expenseRepo.Update(ctx, ownerID, expenseID, domain.ExpensePatch{ReceiptPath: &displayPath}); err != nil {
		s.cleanup(ctx, uploaded)
		return nil, err
	}

	if expense.ReceiptPath != nil {
		s.cleanup(ctx, variantPaths(*expense.ReceiptPath))
	}

	expense.ReceiptPath = &displayPath
	s.publishEvent(ownerID, websocket.ExpenseUpdated(expense))
	return expense, nil
}

// URLs returns presigned links to an expense's receipt
func (s *ReceiptService) URLs(ctx context.Context, ownerID uuid.UUID, expenseID string) (*ReceiptURLs, error) {
	if !s.IsEnabled() {
		return nil, ErrStorageNotConfigured
	}
	if ownerID == uuid.Nil {
		return nil, nil
	}

	expense, err := s.expenseRepo.GetByID(ctx, ownerID, expenseID)
	if err != nil {
		return nil, err
	}
	if expense.ReceiptPath == nil {
		return nil, ErrReceiptNotFound
	}

	paths := variantPaths(*expense.ReceiptPath)
	if len(paths) != 2 {
		return nil, ErrReceiptNotFound
	}

	thumb, err := s.store.GeneratePresignedURL(ctx, paths[0], ReceiptURLExpiry)
	if err != nil {
		return nil, err
	}
	display, err := s.store.GeneratePresignedURL(ctx, paths[1], ReceiptURLExpiry)
	if err != nil {
		return nil, err
	}

	return &ReceiptURLs{
		ThumbnailURL: thumb,
		DisplayURL:   display,
		ExpiresAt:    time.Now().Add(ReceiptURLExpiry),
	}, nil
}

// cleanup removes stored objects, ignoring failures
func (s *ReceiptService) cleanup(ctx context.Context, paths []string) {
	for _, p := range paths {
		if err := s.store.Delete(ctx, p); err != nil {
			log.Warn().Err(err).Str("object_path", p).Msg("Failed to delete receipt object")
		}
	}
}

// variantPaths derives the thumbnail and display paths from a display path
func variantPaths(displayPath string) []string {
	base, ok := strings.CutSuffix(displayPath, "_display.jpg")
	if !ok {
		return nil
	}
	return []string{base + "_thumb.jpg", displayPath}
}

// GetContentType returns the content type for a file extension
func GetContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := AllowedExtensions[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}
