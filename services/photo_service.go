package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kendall-kelly/maintenance-orders-api/models"
	"github.com/kendall-kelly/maintenance-orders-api/utils"
)

// PhotoUpload is a photo as submitted by the order form
type PhotoUpload struct {
	OriginalName string `json:"originalName" binding:"required"`
	DataURI      string `json:"dataUri" binding:"required"`
}

// PhotoService validates uploaded photos and turns them into order photos
type PhotoService struct {
	now func() time.Time
}

// NewPhotoService creates a photo service stamping uploads with now
func NewPhotoService(now func() time.Time) *PhotoService {
	if now == nil {
		now = time.Now
	}
	return &PhotoService{now: now}
}

// NewPhoto validates one upload and returns the photo to store
func (s *PhotoService) NewPhoto(upload PhotoUpload) (models.Photo, error) {
	uri, err := utils.ParseDataURI(upload.DataURI)
	if err != nil {
		return models.Photo{}, err
	}
	if err := utils.ValidatePhoto(uri); err != nil {
		return models.Photo{}, err
	}

	return models.Photo{
		ID:           uuid.NewString(),
		OriginalName: upload.OriginalName,
		MimeType:     uri.MimeType,
		SizeBytes:    int64(len(uri.Data)),
		DataURI:      upload.DataURI,
		UploadedAt:   s.now().UTC().Truncate(time.Millisecond),
	}, nil
}

// Attach appends uploads to existing in upload order. Nothing is attached
// when any upload is invalid or the total would exceed models.MaxPhotos.
func (s *PhotoService) Attach(existing []models.Photo, uploads []PhotoUpload) ([]models.Photo, error) {
	if len(existing)+len(uploads) > models.MaxPhotos {
		return nil, &utils.PhotoUploadError{
			Code:    "TOO_MANY_PHOTOS",
			Message: fmt.Sprintf("最多只能上傳 %d 張照片", models.MaxPhotos),
		}
	}

	photos := append(make([]models.Photo, 0, len(existing)+len(uploads)), existing...)
	for _, upload := range uploads {
		photo, err := s.NewPhoto(upload)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", upload.OriginalName, err)
		}
		photos = append(photos, photo)
	}
	return photos, nil
}

// Verify checks photo records submitted with an order or an import. Each data
// URI is decoded and validated like an upload, and the mime type and size are
// recomputed from it. Missing or repeated ids are replaced with fresh ones.
func (s *PhotoService) Verify(photos []models.Photo) ([]models.Photo, error) {
	if photos == nil {
		return nil, nil
	}

	verified := make([]models.Photo, 0, len(photos))
	seen := make(map[string]bool, len(photos))
	for _, p := range photos {
		uri, err := utils.ParseDataURI(p.DataURI)
		if err == nil {
			err = utils.ValidatePhoto(uri)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.OriginalName, err)
		}

		if p.ID == "" || seen[p.ID] {
			p.ID = uuid.NewString()
		}
		seen[p.ID] = true

		p.MimeType = uri.MimeType
		p.SizeBytes = int64(len(uri.Data))
		if p.UploadedAt.IsZero() {
			p.UploadedAt = s.now()
		}
		p.UploadedAt = p.UploadedAt.UTC().Truncate(time.Millisecond)
		verified = append(verified, p)
	}
	return verified, nil
}

// Remove returns photos without the photo with the given id
func (s *PhotoService) Remove(photos []models.Photo, photoID string) ([]models.Photo, bool) {
	kept := make([]models.Photo, 0, len(photos))
	found := false
	for _, p := range photos {
		if p.ID == photoID {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	return kept, found
}
