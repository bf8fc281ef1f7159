// Package assets uploads profile images to an S3-compatible object store
// and hands back a durable public URL.
package assets

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type Config struct {
	Region       string
	BaseEndpoint string
	PublicBase   string
	Bucket       string
	AccessKey    string
	SecretKey    string
}

// ConfigFromEnv reads object-store settings. An empty ASSET_BUCKET disables
// uploads.
func ConfigFromEnv() Config {
	return Config{
		Region:       os.Getenv("ASSET_S3_REGION"),
		BaseEndpoint: os.Getenv("ASSET_S3_ENDPOINT"),
		PublicBase:   os.Getenv("ASSET_PUBLIC_BASE"),
		Bucket:       os.Getenv("ASSET_BUCKET"),
		AccessKey:    os.Getenv("ASSET_S3_ACCESS_KEY"),
		SecretKey:    os.Getenv("ASSET_S3_SECRET_KEY"),
	}
}

// Enabled reports whether uploads are configured.
func (c Config) Enabled() bool { return c.Bucket != "" }

// Uploader stores raw assets in a bucket.
type Uploader struct {
	cfg    Config
	client *s3.Client
}

// NewUploader builds an Uploader, or nil when uploads are not configured.
func NewUploader(ctx context.Context, cfg Config) (*Uploader, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("asset store config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	return &Uploader{cfg: cfg, client: client}, nil
}

// Upload writes the asset under a name-derived key and returns its public
// URL. Keys are date-partitioned with a uuid suffix so re-uploads under the
// same display name never collide.
func (u *Uploader) Upload(ctx context.Context, name string, body io.Reader, contentType string) (string, error) {
	key := objectKey(name)
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	base := u.cfg.PublicBase
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", u.cfg.Bucket, u.cfg.Region)
	}
	return strings.TrimSuffix(base, "/") + "/" + key, nil
}

func objectKey(name string) string {
	d := time.Now().UTC()
	return fmt.Sprintf("profiles/%d/%02d/%s-%s", d.Year(), d.Month(), sanitize(name), uuid.New())
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}
