package assetstore

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DriveStore stores images in a Google Drive folder. Uploaded files are given
// a uuid-prefixed name so client filenames can never collide; the Drive file
// id doubles as the deletion reference.
type DriveStore struct {
	client   *drive.Service
	folderID string
}

// NewDriveStore builds a Drive-backed store from a service-account
// credentials file and the folder that holds catalog images.
func NewDriveStore(ctx context.Context, credentialsPath, folderID string) (*DriveStore, error) {
	client, err := drive.NewService(ctx, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &DriveStore{client: client, folderID: folderID}, nil
}

func (s *DriveStore) Upload(ctx context.Context, filename, contentType string, r io.Reader) (Asset, error) {
	name := uuid.NewString() + path.Ext(filename)
	meta := &drive.File{
		Name:     name,
		MimeType: contentType,
		Parents:  []string{s.folderID},
	}

	created, err := s.client.Files.Create(meta).
		Media(r, googleapi.ContentType(contentType)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return Asset{}, fmt.Errorf("failed to upload %s: %w", filename, err)
	}

	return Asset{
		URL:     fmt.Sprintf("https://drive.google.com/uc?id=%s", created.Id),
		AssetID: created.Id,
	}, nil
}

func (s *DriveStore) Delete(ctx context.Context, assetID string) error {
	err := s.client.Files.Delete(assetID).Context(ctx).Do()
	if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == 404 {
		return ErrNotFound
	}
	return err
}

func (s *DriveStore) DeleteMany(ctx context.Context, assetIDs []string) error {
	return deleteMany(ctx, s, assetIDs)
}
