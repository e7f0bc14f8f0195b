package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ImageStore persists uploaded vendor and food images and returns their URL
type ImageStore interface {
	Save(ctx context.Context, filename string, body io.Reader, contentType string) (string, error)
}

// objectName prevents overwrites between uploads with the same file name
func objectName(filename string) string {
	base := filepath.Base(filename)
	base = strings.ReplaceAll(base, " ", "_")
	return fmt.Sprintf("%s_%s_%s", time.Now().UTC().Format("20060102150405"), uuid.NewString()[:8], base)
}

// S3Store uploads images to a bucket with the S3 upload manager
type S3Store struct {
	uploader *manager.Uploader
	bucket   string
}

func NewS3Store(ctx context.Context, bucket string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return &S3Store{uploader: manager.NewUploader(client), bucket: bucket}, nil
}

func (s *S3Store) Save(ctx context.Context, filename string, body io.Reader, contentType string) (string, error) {
	result, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path.Join("images", objectName(filename))),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", filename, err)
	}
	return result.Location, nil
}

// DiskStore writes images under a local directory served at URLPrefix
type DiskStore struct {
	Dir       string
	URLPrefix string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image dir: %w", err)
	}
	return &DiskStore{Dir: dir, URLPrefix: "/images"}, nil
}

func (d *DiskStore) Save(_ context.Context, filename string, body io.Reader, _ string) (string, error) {
	name := objectName(filename)
	f, err := os.Create(filepath.Join(d.Dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, body); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return d.URLPrefix + "/" + name, nil
}
