// Package blob uploads message assets and profile pictures to the app's
// default bucket and hands back download URLs. The message codec only ever
// consumes the URL string; raw bytes stop here.
package blob

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"

	"github.com/ypereira/messenger/logger"
)

var (
	ErrUploadFailed      = errors.New("failed to upload")
	ErrDownloadURLFailed = errors.New("failed to get download url")
)

const (
	profilePicturePrefix = "images/"
	messagePhotoPrefix   = "message_images/"
	messageVideoPrefix   = "message_videos/"

	downloadURLTTL = 7 * 24 * time.Hour
)

// Storage wraps the Firebase app's default bucket.
type Storage struct {
	bucket *gcs.BucketHandle
}

func New(ctx context.Context, app *firebase.App) (*Storage, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, err
	}
	bucket, err := client.DefaultBucket()
	if err != nil {
		return nil, err
	}
	return &Storage{bucket: bucket}, nil
}

// UploadProfilePicture stores a user's avatar and returns its download URL.
func (s *Storage) UploadProfilePicture(ctx context.Context, data []byte, fileName string) (string, error) {
	return s.upload(ctx, data, profilePicturePrefix+fileName)
}

// UploadMessagePhoto stores a photo that will be referenced by a photo
// message and returns its download URL.
func (s *Storage) UploadMessagePhoto(ctx context.Context, data []byte, fileName string) (string, error) {
	return s.upload(ctx, data, messagePhotoPrefix+fileName)
}

// UploadMessageVideo stores a video that will be referenced by a video
// message and returns its download URL.
func (s *Storage) UploadMessageVideo(ctx context.Context, data []byte, fileName string) (string, error) {
	return s.upload(ctx, data, messageVideoPrefix+fileName)
}

func (s *Storage) upload(ctx context.Context, data []byte, object string) (string, error) {
	w := s.bucket.Object(object).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("%w: %s: %v", ErrUploadFailed, object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUploadFailed, object, err)
	}
	logger.FromContext(ctx).Printf("uploaded %s (%d bytes)", object, len(data))
	return s.DownloadURL(ctx, object)
}

// DownloadURL returns a time-limited signed URL for an already-uploaded
// object.
func (s *Storage) DownloadURL(_ context.Context, object string) (string, error) {
	url, err := s.bucket.SignedURL(object, &gcs.SignedURLOptions{
		Method:  http.MethodGet,
		Expires: time.Now().Add(downloadURLTTL),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDownloadURLFailed, object, err)
	}
	return url, nil
}
