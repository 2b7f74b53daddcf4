package uploads

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
)

// ObjectRemover deletes a single object from the storage bucket.
type ObjectRemover interface {
	Delete(ctx context.Context, objectPath string) error
}

// BucketRemover deletes objects from a Firebase Storage bucket.
type BucketRemover struct {
	bucket *storage.BucketHandle
}

func NewBucketRemover(bucket *storage.BucketHandle) *BucketRemover {
	return &BucketRemover{bucket: bucket}
}

func (b *BucketRemover) Delete(ctx context.Context, objectPath string) error {
	err := b.bucket.Object(objectPath).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return err
	}
	return nil
}

// Cleaner removes project images referenced by Firebase Storage download
// URLs. URLs hosted anywhere else are skipped silently.
type Cleaner struct {
	remover ObjectRemover
}

func NewCleaner(remover ObjectRemover) *Cleaner {
	return &Cleaner{remover: remover}
}

func (c *Cleaner) Remove(ctx context.Context, rawURL string) error {
	path, ok := storageObjectPath(rawURL)
	if !ok {
		return nil
	}
	if err := c.remover.Delete(ctx, path); err != nil {
		return fmt.Errorf("delete storage object %s: %w", path, err)
	}
	return nil
}

// storageObjectPath extracts the percent-decoded object path from a Firebase
// Storage download URL (".../o/<path>?alt=media").
func storageObjectPath(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || !strings.Contains(u.Host, "firebasestorage") {
		return "", false
	}

	_, after, found := strings.Cut(u.EscapedPath(), "/o/")
	if !found || after == "" {
		return "", false
	}
	decoded, err := url.PathUnescape(after)
	if err != nil {
		return "", false
	}
	return decoded, true
}

// NopCleaner is used when no storage bucket is configured.
type NopCleaner struct{}

func (NopCleaner) Remove(ctx context.Context, rawURL string) error { return nil }
