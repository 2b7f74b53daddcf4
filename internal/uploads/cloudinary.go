package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// Result describes a stored image.
type Result struct {
	URL      string
	PublicID string
}

// Uploader stores image files. The production implementation talks to
// Cloudinary; tests substitute a fake.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, originalName string) (*Result, error)
}

// CloudinaryUploader uploads into a fixed folder with random public ids so
// re-uploads of the same file never collide.
type CloudinaryUploader struct {
	client *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryUploader(cloudinaryURL, folder string) (*CloudinaryUploader, error) {
	client, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &CloudinaryUploader{client: client, folder: folder}, nil
}

// Disabled stands in when no Cloudinary URL is configured.
type Disabled struct{}

func (Disabled) Upload(ctx context.Context, r io.Reader, originalName string) (*Result, error) {
	return nil, errors.New("image uploads are not configured")
}

func (u *CloudinaryUploader) Upload(ctx context.Context, r io.Reader, originalName string) (*Result, error) {
	resp, err := u.client.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID: uuid.NewString(),
		Folder:   u.folder,
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload of %s: %w", originalName, err)
	}
	return &Result{URL: resp.SecureURL, PublicID: resp.PublicID}, nil
}
