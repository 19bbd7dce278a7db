package attachments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/jai-platform/jai-api/config"
)

// CloudinaryStore keeps attachments in a Cloudinary folder
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryStore creates a client for the configured cloud
func NewCloudinaryStore(conf config.CloudinaryConfig) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(conf.CloudName, conf.APIKey, conf.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}
	return &CloudinaryStore{cld: cld, folder: conf.Folder}, nil
}

// Upload stores the object as a raw or image asset and returns its secure URL
func (s *CloudinaryStore) Upload(ctx context.Context, key, _ string, r io.Reader, _ int64) (string, error) {
	res, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID:     strings.ReplaceAll(key, "/", "_"),
		Folder:       s.folder,
		ResourceType: "auto",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	if res.Error.Message != "" {
		return "", errors.New("cloudinary: " + res.Error.Message)
	}
	return res.SecureURL, nil
}
