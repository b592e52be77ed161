package services

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/kendall-kelly/maintenance-orders-api/models"
	"github.com/kendall-kelly/maintenance-orders-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngUpload(name string) PhotoUpload {
	return PhotoUpload{
		OriginalName: name,
		DataURI:      "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("fake png content")),
	}
}

func TestPhotoService_NewPhoto(t *testing.T) {
	at := time.Date(2024, 3, 5, 9, 0, 0, 123456789, time.UTC)
	svc := NewPhotoService(func() time.Time { return at })

	photo, err := svc.NewPhoto(pngUpload("crack.png"))
	require.NoError(t, err)

	assert.NotEmpty(t, photo.ID)
	assert.Equal(t, "crack.png", photo.OriginalName)
	assert.Equal(t, "image/png", photo.MimeType)
	assert.Equal(t, int64(len("fake png content")), photo.SizeBytes)
	assert.Equal(t, at.Truncate(time.Millisecond), photo.UploadedAt)
}

func TestPhotoService_NewPhotoRejectsInvalidType(t *testing.T) {
	svc := NewPhotoService(nil)

	_, err := svc.NewPhoto(PhotoUpload{OriginalName: "doc.pdf", DataURI: "data:application/pdf;base64,JVBERg=="})
	var photoErr *utils.PhotoUploadError
	require.True(t, errors.As(err, &photoErr))
	assert.Equal(t, "INVALID_FILE_FORMAT", photoErr.Code)
}

func TestPhotoService_AttachKeepsOrderAndIDsUnique(t *testing.T) {
	svc := NewPhotoService(nil)

	photos, err := svc.Attach([]models.Photo{{ID: "existing"}}, []PhotoUpload{pngUpload("a.png"), pngUpload("b.png")})
	require.NoError(t, err)
	require.Len(t, photos, 3)

	assert.Equal(t, "existing", photos[0].ID)
	assert.Equal(t, "a.png", photos[1].OriginalName)
	assert.Equal(t, "b.png", photos[2].OriginalName)
	assert.NotEqual(t, photos[1].ID, photos[2].ID)
}

func TestPhotoService_AttachTooMany(t *testing.T) {
	svc := NewPhotoService(nil)
	existing := make([]models.Photo, models.MaxPhotos)

	_, err := svc.Attach(existing, []PhotoUpload{pngUpload("one-too-many.png")})
	var photoErr *utils.PhotoUploadError
	require.True(t, errors.As(err, &photoErr))
	assert.Equal(t, "TOO_MANY_PHOTOS", photoErr.Code)
}

func TestPhotoService_AttachIsAllOrNothing(t *testing.T) {
	svc := NewPhotoService(nil)

	photos, err := svc.Attach(nil, []PhotoUpload{pngUpload("ok.png"), {OriginalName: "bad.png", DataURI: "not a data uri"}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bad.png")
	assert.Nil(t, photos)
}

func TestPhotoService_Remove(t *testing.T) {
	svc := NewPhotoService(nil)
	photos := []models.Photo{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	kept, found := svc.Remove(photos, "b")
	assert.True(t, found)
	assert.Equal(t, []models.Photo{{ID: "a"}, {ID: "c"}}, kept)

	_, found = svc.Remove(photos, "missing")
	assert.False(t, found)
}
