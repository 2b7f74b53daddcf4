package bootstrap

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

type FirebaseOptions struct {
	CredentialsPath string
	ProjectID       string
	StorageBucket   string
}

// Firebase bundles the admin SDK clients the service uses.
type Firebase struct {
	App       *firebase.App
	Auth      *fbauth.Client
	Firestore *firestore.Client
	// Bucket is nil when no storage bucket is configured; image cleanup is
	// then disabled.
	Bucket *storage.BucketHandle
}

func InitFirebase(ctx context.Context, opt FirebaseOptions) (*Firebase, error) {
	conf := &firebase.Config{
		ProjectID:     opt.ProjectID,
		StorageBucket: opt.StorageBucket,
	}

	var opts []option.ClientOption
	if opt.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(opt.CredentialsPath))
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase init: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}

	fsClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}

	fb := &Firebase{App: app, Auth: authClient, Firestore: fsClient}

	if opt.StorageBucket != "" {
		storageClient, err := app.Storage(ctx)
		if err != nil {
			return nil, fmt.Errorf("firebase storage client: %w", err)
		}
		bucket, err := storageClient.DefaultBucket()
		if err != nil {
			return nil, fmt.Errorf("storage bucket: %w", err)
		}
		fb.Bucket = bucket
	}

	return fb, nil
}
