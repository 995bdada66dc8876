package voice

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Archiver stores an accepted upload and returns where it can be found.
type Archiver interface {
	Archive(ctx context.Context, userID string, audio []byte, format Format) (string, error)
}

// NoopArchiver discards uploads.
type NoopArchiver struct{}

// Archive returns an empty location.
func (NoopArchiver) Archive(context.Context, string, []byte, Format) (string, error) {
	return "", nil
}

// PutObjectAPI is the subset of the S3 client the archiver uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver writes uploads to a bucket under <userID>/<uuid>.<ext>.
type S3Archiver struct {
	client   PutObjectAPI
	bucket   string
	region   string
	endpoint string
	newID    func() string
}

// NewS3Archiver creates an archiver. endpoint is set for S3-compatible stores
// and changes the returned URL to path style.
func NewS3Archiver(client PutObjectAPI, bucket, region, endpoint string) *S3Archiver {
	return &S3Archiver{
		client:   client,
		bucket:   bucket,
		region:   region,
		endpoint: strings.TrimSuffix(endpoint, "/"),
		newID:    uuid.NewString,
	}
}

// Archive implements Archiver.
func (a *S3Archiver) Archive(ctx context.Context, userID string, audio []byte, format Format) (string, error) {
	key := fmt.Sprintf("%s/%s.%s", userID, a.newID(), format)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(audio),
		ContentType:   aws.String(format.ContentType()),
		ContentLength: aws.Int64(int64(len(audio))),
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", a.bucket, key, err)
	}
	return a.objectURL(key), nil
}

func (a *S3Archiver) objectURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if a.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", a.endpoint, a.bucket, escaped)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", a.bucket, a.region, escaped)
}
