package utils

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	// MaxPhotoSize is 5MB in bytes
	MaxPhotoSize = 5 * 1024 * 1024
)

// AllowedPhotoTypes lists the accepted photo mime types
var AllowedPhotoTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// PhotoUploadError represents a photo validation error
type PhotoUploadError struct {
	Code    string
	Message string
}

func (e *PhotoUploadError) Error() string {
	return e.Message
}

// DataURI is a decoded base64 data URI
type DataURI struct {
	MimeType string
	Data     []byte
}

// ParseDataURI decodes a "data:<mime>;base64,<payload>" string
func ParseDataURI(uri string) (*DataURI, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, &PhotoUploadError{Code: "INVALID_DATA_URI", Message: "照片資料格式不正確"}
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, &PhotoUploadError{Code: "INVALID_DATA_URI", Message: "照片資料格式不正確"}
	}

	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, &PhotoUploadError{Code: "INVALID_DATA_URI", Message: "照片資料必須為 base64 編碼"}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, &PhotoUploadError{Code: "INVALID_DATA_URI", Message: fmt.Sprintf("照片資料無法解碼: %v", err)}
	}

	return &DataURI{MimeType: strings.ToLower(mimeType), Data: data}, nil
}

// ValidatePhoto validates the photo mime type and decoded size
func ValidatePhoto(uri *DataURI) error {
	if len(uri.Data) > MaxPhotoSize {
		return &PhotoUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("檔案大小不能超過%dMB", MaxPhotoSize/(1024*1024)),
		}
	}

	for _, allowed := range AllowedPhotoTypes {
		if uri.MimeType == allowed {
			return nil
		}
	}

	return &PhotoUploadError{
		Code:    "INVALID_FILE_FORMAT",
		Message: "不支援的檔案格式，請上傳 JPG、PNG、GIF 或 WebP 格式的圖片",
	}
}
