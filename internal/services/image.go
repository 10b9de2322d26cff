package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"strings"
	"time"

	"city-tours/internal/models"
	"city-tours/internal/storage"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"
)

// DefaultMaxImageBytes is the upload limit when none is configured
const DefaultMaxImageBytes = 5 << 20

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
	"image/heic": "heic",
}

// ImageUpload is an image sent as base64 or as a data URL
type ImageUpload struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Data        string `json:"data"`
}

// ImageService stores tour images and records them
type ImageService struct {
	images   ImageStore
	tours    TourStore
	files    storage.Storage
	maxBytes int64
	now      func() time.Time
	metrics  Recorder
}

// NewImageService creates a new image service
func NewImageService(images ImageStore, tours TourStore, files storage.Storage, maxBytes int64) *ImageService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &ImageService{
		images:   images,
		tours:    tours,
		files:    files,
		maxBytes: maxBytes,
		now:      time.Now,
		metrics:  nopRecorder{},
	}
}

// WithRecorder sets the metrics recorder
func (s *ImageService) WithRecorder(r Recorder) *ImageService {
	s.metrics = r
	return s
}

// MaxBytes returns the decoded size limit of one image
func (s *ImageService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload stores the image and attaches it to the tour. The first image becomes the tour cover.
func (s *ImageService) Upload(ctx context.Context, tourID string, upload ImageUpload) (*models.TourImage, error) {
	tour, err := s.tours.GetByID(ctx, tourID)
	if err != nil {
		return nil, err
	}

	contentType, data, err := s.decode(upload)
	if err != nil {
		return nil, err
	}

	key := s.objectKey(upload.FileName, contentType)
	url, err := s.files.Upload(ctx, key, data, contentType)
	if err != nil {
		return nil, models.NewRemoteError("failed to upload image", err)
	}

	img := &models.TourImage{TourID: tour.ID, Imagen: url}
	if err := s.images.Create(ctx, img); err != nil {
		return nil, fmt.Errorf("failed to record image: %w", err)
	}

	if tour.Imagenes == "" {
		if _, err := s.tours.Update(ctx, tour.ID, models.TourUpdate{Imagenes: &url}); err != nil {
			return nil, fmt.Errorf("failed to set tour cover: %w", err)
		}
	}

	s.metrics.RecordUpload(len(data))
	log.Info().Str("tour_id", tour.ID).Str("key", key).Int("bytes", len(data)).Msg("Tour image uploaded")
	return img, nil
}

func (s *ImageService) decode(upload ImageUpload) (string, []byte, error) {
	contentType := strings.ToLower(strings.TrimSpace(upload.ContentType))
	raw := strings.TrimSpace(upload.Data)

	// data:image/png;base64,....
	if strings.HasPrefix(raw, "data:") {
		meta, payload, ok := strings.Cut(raw, ",")
		if !ok || !strings.HasSuffix(meta, ";base64") {
			return "", nil, models.NewValidationError("image data URL must be base64 encoded")
		}
		if contentType == "" {
			contentType = strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(meta, "data:"), ";base64"))
		}
		raw = payload
	}

	if !strings.HasPrefix(contentType, "image/") {
		return "", nil, models.NewValidationError("content type must be an image")
	}
	if raw == "" {
		return "", nil, models.NewValidationError("image data is required")
	}
	if int64(base64.StdEncoding.DecodedLen(len(raw))) > s.maxBytes+2 {
		return "", nil, models.NewValidationError("image exceeds %d bytes", s.maxBytes)
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", nil, models.NewValidationError("image data is not valid base64")
	}
	if len(data) == 0 {
		return "", nil, models.NewValidationError("image data is required")
	}
	if int64(len(data)) > s.maxBytes {
		return "", nil, models.NewValidationError("image exceeds %d bytes", s.maxBytes)
	}
	return contentType, data, nil
}

// objectKey builds tours/<unix-ms>_<slug>.<ext>
func (s *ImageService) objectKey(fileName, contentType string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(fileName)), ".")
	if ext == "" {
		ext = imageExtensions[contentType]
	}
	if ext == "" {
		ext = strings.TrimPrefix(contentType, "image/")
	}

	name := slug.Make(strings.TrimSuffix(path.Base(fileName), path.Ext(fileName)))
	if name == "" {
		name = "imagen"
	}
	return fmt.Sprintf("tours/%d_%s.%s", s.now().UnixMilli(), name, ext)
}

// List returns the images of a tour
func (s *ImageService) List(ctx context.Context, tourID string) ([]*models.TourImage, error) {
	images, err := s.images.ListByTour(ctx, tourID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tour images: %w", err)
	}
	if images == nil {
		images = []*models.TourImage{}
	}
	return images, nil
}

// Get returns one image
func (s *ImageService) Get(ctx context.Context, id string) (*models.TourImage, error) {
	return s.images.GetByID(ctx, id)
}

// Delete removes an image; when it was the tour cover the next image (or none) takes its place
func (s *ImageService) Delete(ctx context.Context, id string) error {
	img, err := s.images.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.images.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	if key, ok := storage.KeyFromURL(s.files, img.Imagen); ok {
		if err := s.files.Delete(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to delete image object")
		}
	}

	tour, err := s.tours.GetByID(ctx, img.TourID)
	if err != nil || tour.Imagenes != img.Imagen {
		return nil
	}
	remaining, err := s.images.ListByTour(ctx, tour.ID)
	if err != nil {
		return fmt.Errorf("failed to list tour images: %w", err)
	}
	cover := ""
	if len(remaining) > 0 {
		cover = remaining[0].Imagen
	}
	if _, err := s.tours.Update(ctx, tour.ID, models.TourUpdate{Imagenes: &cover}); err != nil {
		return fmt.Errorf("failed to reset tour cover: %w", err)
	}
	return nil
}
