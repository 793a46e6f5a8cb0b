package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of *s3.Client used by S3Store.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

const (
	metaStatus   = "render-status"
	metaStoredAt = "render-stored-at"
	metaHeader   = "render-header"
)

// S3Store keeps entries as objects in an S3 bucket.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	store := cache.NewS3Store(s3.NewFromConfig(cfg), "my-bucket", "pages/")
type S3Store struct {
	client S3API
	bucket string
	prefix string
	ttl    time.Duration
}

// NewS3Store creates an S3Store writing under prefix in bucket.
func NewS3Store(client S3API, bucket, prefix string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// WithTTL sets how long entries stay valid.
func (s *S3Store) WithTTL(ttl time.Duration) *S3Store {
	s.ttl = ttl
	return s
}

// ObjectKey returns the object key used for a cache key.
func (s *S3Store) ObjectKey(key string) string {
	return s.prefix + hashKey(key)
}

// Get downloads the entry stored under key.
func (s *S3Store) Get(ctx context.Context, key string) (*Entry, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.ObjectKey(key)),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("cache: s3 get: %w", err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("cache: s3 read: %w", err)
	}

	e := &Entry{Body: body, Status: 200}
	if out.ContentType != nil {
		e.ContentType = *out.ContentType
	}
	if v, ok := out.Metadata[metaStatus]; ok {
		if status, err := strconv.Atoi(v); err == nil {
			e.Status = status
		}
	}
	if v, ok := out.Metadata[metaHeader]; ok {
		var h http.Header
		if err := json.Unmarshal([]byte(v), &h); err != nil {
			return nil, fmt.Errorf("cache: s3 header metadata: %w", err)
		}
		e.Header = h
	}
	if v, ok := out.Metadata[metaStoredAt]; ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			e.StoredAt = t
		}
	}

	if e.Expired(s.ttl, time.Now()) {
		return nil, ErrNotFound
	}
	return e, nil
}

// Put uploads e under key.
func (s *S3Store) Put(ctx context.Context, key string, e *Entry) error {
	storedAt := e.StoredAt
	if storedAt.IsZero() {
		storedAt = time.Now()
	}

	meta := map[string]string{
		metaStatus:   strconv.Itoa(e.Status),
		metaStoredAt: storedAt.UTC().Format(time.RFC3339Nano),
	}
	if len(e.Header) > 0 {
		h, err := json.Marshal(e.Header)
		if err != nil {
			return fmt.Errorf("cache: s3 header metadata: %w", err)
		}
		meta[metaHeader] = string(h)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.ObjectKey(key)),
		Body:        bytes.NewReader(e.Body),
		ContentType: aws.String(e.ContentType),
		Metadata:    meta,
	})
	if err != nil {
		return fmt.Errorf("cache: s3 put: %w", err)
	}
	return nil
}
