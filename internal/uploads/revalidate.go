package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

const maxImageDimension = 2000

var (
	ErrImageType      = errors.New("Invalid image type. Only JPEG, PNG, and WebP are allowed.")
	ErrImageSize      = errors.New("Image too large. Maximum size is 5MB.")
	ErrImageDimension = errors.New("Image dimensions too large. Maximum is 2000x2000.")
	ErrImageFetch     = errors.New("Image URL could not be fetched.")
)

// remoteTypes is the allow-list for re-validated URLs. Stricter than the
// upload path: no GIF.
var remoteTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// URLValidator re-checks externally hosted image URLs before they are
// accepted into a project document. Outbound fetches are throttled so a
// gallery-heavy payload cannot hammer the remote host.
type URLValidator struct {
	http    *http.Client
	limiter *rate.Limiter
}

func NewURLValidator() *URLValidator {
	return &URLValidator{
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(2), 4),
	}
}

// Validate fetches url and checks type, byte size, and pixel dimensions.
func (v *URLValidator) Validate(ctx context.Context, url string) error {
	if err := v.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ErrImageFetch
	}
	resp, err := v.http.Do(req)
	if err != nil {
		return ErrImageFetch
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ErrImageFetch
	}

	contentType := strings.TrimSpace(strings.SplitN(resp.Header.Get("Content-Type"), ";", 2)[0])
	if !remoteTypes[contentType] {
		return ErrImageType
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFileSize+1))
	if err != nil {
		return fmt.Errorf("read image body: %w", err)
	}
	if len(body) > maxFileSize {
		return ErrImageSize
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		return ErrImageType
	}
	if cfg.Width > maxImageDimension || cfg.Height > maxImageDimension {
		return ErrImageDimension
	}
	return nil
}
