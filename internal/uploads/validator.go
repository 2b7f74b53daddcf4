// Package uploads handles image intake: multipart upload validation,
// Cloudinary delivery, remote URL re-validation and storage cleanup.
package uploads

import "errors"

const maxFileSize = 5 << 20 // 5MB

var (
	ErrFileType = errors.New("Invalid file type. Only JPEG, PNG, GIF, and WebP are allowed.")
	ErrFileSize = errors.New("File too large. Maximum size is 5MB.")
)

// uploadTypes is the multipart allow-list. It admits GIF, unlike the URL
// re-validator, which doesn't.
var uploadTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ValidateUpload checks an incoming file's declared type and size.
func ValidateUpload(contentType string, size int64) error {
	if !uploadTypes[contentType] {
		return ErrFileType
	}
	if size > maxFileSize {
		return ErrFileSize
	}
	return nil
}
