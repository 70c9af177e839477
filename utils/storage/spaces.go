package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Config holds connection settings for an S3-compatible blob store
// (DigitalOcean Spaces, MinIO, plain S3).
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Client uploads submission files and hands back public URLs. The
// ledger stores only the returned URL; the blob store is an external
// collaborator.
type Client struct {
	s3Client *s3.S3
	bucket   string
	endpoint string
}

// NewClient creates a new blob store client
func NewClient(config Config) (*Client, error) {
	sess, err := session.NewSession(&aws.Config{
		Credentials:      credentials.NewStaticCredentials(config.AccessKey, config.SecretKey, ""),
		Endpoint:         aws.String(config.Endpoint),
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage session: %w", err)
	}

	return &Client{
		s3Client: s3.New(sess),
		bucket:   config.Bucket,
		endpoint: config.Endpoint,
	}, nil
}

// UploadSubmission stores a submission file and returns its public URL.
// Keys are namespaced per assignment and user so a resubmission
// overwrites the previous file, matching the latest-wins submission row.
func (c *Client) UploadSubmission(ctx context.Context, assignmentID, userID uint, filename, contentType string, data io.Reader) (string, error) {
	key := fmt.Sprintf("submissions/%d/%d/%s", assignmentID, userID, filename)

	_, err := c.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        aws.ReadSeekCloser(data),
		ACL:         aws.String("private"),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload submission file: %w", err)
	}

	return fmt.Sprintf("https://%s.%s/%s", c.bucket, c.endpoint, key), nil
}

// PresignDownload returns a time-limited download URL for a stored key
func (c *Client) PresignDownload(key string, expiry time.Duration) (string, error) {
	req, _ := c.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	return req.Presign(expiry)
}

// Delete removes a stored object
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	return err
}
