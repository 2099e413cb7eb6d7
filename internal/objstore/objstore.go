// Package objstore reads and writes raw document files in an S3-compatible
// object store.
package objstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrStorageUnavailable is returned when the object store cannot serve a
// request, including a missing object.
var ErrStorageUnavailable = errors.New("object storage unavailable")

// Config carries connection settings for the object store.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Client stores and retrieves document blobs by path within one bucket.
// It is stateless and safe for concurrent use.
type Client struct {
	client *minio.Client
	bucket string
}

// New creates the object storage client and verifies the bucket exists,
// creating it when missing.
func New(ctx context.Context, cfg Config) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	exists, err := mc.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: check bucket: %v", ErrStorageUnavailable, err)
	}
	if !exists {
		if err := mc.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("%w: create bucket: %v", ErrStorageUnavailable, err)
		}
	}

	return &Client{client: mc, bucket: cfg.Bucket}, nil
}

// Download returns the raw bytes stored at path.
func (c *Client) Download(ctx context.Context, path string) ([]byte, error) {
	obj, err := c.client.GetObject(ctx, c.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrStorageUnavailable, path, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStorageUnavailable, path, err)
	}
	return data, nil
}

// Upload stores data at path.
func (c *Client) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	_, err := c.client.PutObject(ctx, c.bucket, path,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrStorageUnavailable, path, err)
	}
	return nil
}

// Remove deletes the object at path. Removing a missing object is not an
// error.
func (c *Client) Remove(ctx context.Context, path string) error {
	err := c.client.RemoveObject(ctx, c.bucket, path, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("%w: remove %s: %v", ErrStorageUnavailable, path, err)
	}
	return nil
}
