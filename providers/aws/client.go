package aws

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// PutObjectAPI is the part of the S3 client used for uploads
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Client uploads bundle files to an S3 bucket
type Client struct {
	s3     PutObjectAPI
	bucket string
	prefix string
}

// NewClient creates an S3 client from the default credential chain
func NewClient(ctx context.Context, region, bucket, prefix string) (*Client, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return NewClientWithAPI(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// NewClientWithAPI wraps an existing S3 API implementation
func NewClientWithAPI(api PutObjectAPI, bucket, prefix string) *Client {
	return &Client{s3: api, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Key returns the object key for a path relative to a job's bundle
func (c *Client) Key(jobID, rel string) string {
	return path.Join(c.prefix, jobID, filepath.ToSlash(rel))
}

// URI returns the s3:// URI of a key
func (c *Client) URI(key string) string {
	return fmt.Sprintf("s3://%s/%s", c.bucket, key)
}

// UploadFile uploads a single file and returns its URI
func (c *Client) UploadFile(ctx context.Context, key, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	_, err = c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(localPath)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return c.URI(key), nil
}

// UploadDir uploads every regular file under dir, keyed below the job prefix.
// It returns the URI of the directory.
func (c *Client) UploadDir(ctx context.Context, jobID, dir string) (string, error) {
	var uploaded int
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		if _, err := c.UploadFile(ctx, c.Key(jobID, rel), p); err != nil {
			return err
		}
		uploaded++
		return nil
	})
	if err != nil {
		return "", err
	}

	uri := c.URI(c.Key(jobID, "")) + "/"
	log.Info().Str("job_id", jobID).Int("files", uploaded).Str("uri", uri).Msg("Uploaded bundle")
	return uri, nil
}

func contentType(p string) string {
	switch filepath.Ext(p) {
	case ".json":
		return "application/json"
	case ".sh":
		return "text/x-shellscript"
	default:
		return "application/octet-stream"
	}
}
