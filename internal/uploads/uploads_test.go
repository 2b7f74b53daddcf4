package uploads

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUpload(t *testing.T) {
	t.Run("accepts the allow-list", func(t *testing.T) {
		for _, ct := range []string{"image/jpeg", "image/png", "image/gif", "image/webp"} {
			assert.NoError(t, ValidateUpload(ct, 1024), ct)
		}
	})

	t.Run("rejects other types", func(t *testing.T) {
		for _, ct := range []string{"image/svg+xml", "application/pdf", "text/html", ""} {
			err := ValidateUpload(ct, 1024)
			assert.ErrorIs(t, err, ErrFileType, ct)
		}
		assert.EqualError(t, ValidateUpload("image/svg+xml", 1), "Invalid file type. Only JPEG, PNG, GIF, and WebP are allowed.")
	})

	t.Run("rejects oversized files", func(t *testing.T) {
		assert.NoError(t, ValidateUpload("image/png", 5<<20))
		err := ValidateUpload("image/png", 5<<20+1)
		assert.ErrorIs(t, err, ErrFileSize)
		assert.EqualError(t, err, "File too large. Maximum size is 5MB.")
	})
}

func TestStorageObjectPath(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
		ok   bool
	}{
		{
			name: "standard download url",
			url:  "https://firebasestorage.googleapis.com/v0/b/demo.appspot.com/o/projects%2Fcover.png?alt=media&token=abc",
			want: "projects/cover.png",
			ok:   true,
		},
		{
			name: "nested path",
			url:  "https://firebasestorage.googleapis.com/v0/b/demo.appspot.com/o/a%2Fb%2Fc.jpg?alt=media",
			want: "a/b/c.jpg",
			ok:   true,
		},
		{
			name: "foreign host is skipped",
			url:  "https://res.cloudinary.com/demo/image/upload/v1/garayn-projects/x.png",
			ok:   false,
		},
		{
			name: "no object segment",
			url:  "https://firebasestorage.googleapis.com/v0/b/demo.appspot.com/",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := storageObjectPath(tt.url)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

type fakeRemover struct {
	deleted []string
	err     error
}

func (f *fakeRemover) Delete(ctx context.Context, objectPath string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, objectPath)
	return nil
}

func TestCleaner_Remove(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes storage-hosted objects", func(t *testing.T) {
		remover := &fakeRemover{}
		c := NewCleaner(remover)

		err := c.Remove(ctx, "https://firebasestorage.googleapis.com/v0/b/demo.appspot.com/o/projects%2Fcover.png?alt=media")
		require.NoError(t, err)
		assert.Equal(t, []string{"projects/cover.png"}, remover.deleted)
	})

	t.Run("skips urls it does not own", func(t *testing.T) {
		remover := &fakeRemover{}
		c := NewCleaner(remover)

		require.NoError(t, c.Remove(ctx, "https://res.cloudinary.com/demo/x.png"))
		assert.Empty(t, remover.deleted)
	})

	t.Run("propagates remover failures", func(t *testing.T) {
		c := NewCleaner(&fakeRemover{err: assert.AnError})
		err := c.Remove(ctx, "https://firebasestorage.googleapis.com/v0/b/demo.appspot.com/o/x.png")
		assert.Error(t, err)
	})
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func imageServer(t *testing.T, contentType string, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestURLValidator(t *testing.T) {
	ctx := context.Background()
	v := NewURLValidator()

	t.Run("accepts a small png", func(t *testing.T) {
		srv := imageServer(t, "image/png", pngBytes(t, 10, 10))
		assert.NoError(t, v.Validate(ctx, srv.URL))
	})

	t.Run("rejects disallowed content type", func(t *testing.T) {
		srv := imageServer(t, "image/gif", pngBytes(t, 10, 10))
		assert.ErrorIs(t, v.Validate(ctx, srv.URL), ErrImageType)
	})

	t.Run("rejects oversize body", func(t *testing.T) {
		srv := imageServer(t, "image/png", make([]byte, maxFileSize+1))
		assert.ErrorIs(t, v.Validate(ctx, srv.URL), ErrImageSize)
	})

	t.Run("rejects oversized dimensions", func(t *testing.T) {
		srv := imageServer(t, "image/png", pngBytes(t, maxImageDimension+1, 1))
		assert.ErrorIs(t, v.Validate(ctx, srv.URL), ErrImageDimension)
	})

	t.Run("rejects undecodable body", func(t *testing.T) {
		srv := imageServer(t, "image/png", []byte("not an image"))
		assert.ErrorIs(t, v.Validate(ctx, srv.URL), ErrImageType)
	})

	t.Run("rejects unreachable urls", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		t.Cleanup(srv.Close)
		assert.ErrorIs(t, v.Validate(ctx, srv.URL), ErrImageFetch)
	})
}
