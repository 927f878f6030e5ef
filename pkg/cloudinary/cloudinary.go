package cloudinary

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// Config holds Cloudinary credentials (from env or config).
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
}

// Client uploads payment proof screenshots.
type Client interface {
	UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (url, thumbnailURL string, err error)
}

// Proof screenshots are receipts, so keep them legible: no crop, bounded width.
const (
	ImageWidth = 1200
	ThumbWidth = 240
)

const imageEager = "q_auto,f_auto,w_240,c_limit"

var eagerAsyncFalse = false

// BuildImageURL returns a delivery URL for an uploaded public id at the given width.
func BuildImageURL(cloudName, publicID string, width int) string {
	if width <= 0 {
		width = ImageWidth
	}
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/q_auto,f_auto,w_%d,c_limit/%s",
		cloudName, width, publicID)
}

type clientImpl struct {
	cloudName string
	uploader  *uploader.API
}

func (c *clientImpl) UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (url, thumbnailURL string, err error) {
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:       folder,
		PublicID:     publicID,
		ResourceType: "image",
		Eager:        imageEager,
		EagerAsync:   &eagerAsyncFalse,
	})
	if err != nil {
		return "", "", err
	}
	if result.SecureURL == "" {
		return "", "", fmt.Errorf("cloudinary: upload of %s returned no url", publicID)
	}
	url = result.SecureURL
	if len(result.Eager) > 0 {
		thumbnailURL = result.Eager[0].SecureURL
	}
	if thumbnailURL == "" {
		thumbnailURL = BuildImageURL(c.cloudName, result.PublicID, ThumbWidth)
	}
	return url, thumbnailURL, nil
}

// NewClientFromParams builds a Client from Cloudinary cloud name, API key, and secret.
func NewClientFromParams(cloudName, apiKey, apiSecret string) (Client, error) {
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &clientImpl{
		cloudName: cloudName,
		uploader:  up,
	}, nil
}
