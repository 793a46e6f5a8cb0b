package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/vango-dev/shadow/internal/config"
	"github.com/vango-dev/shadow/internal/errors"
	"github.com/vango-dev/shadow/pkg/cache"
)

// openCache builds the configured render cache. The returned close function
// is never nil.
func openCache(cfg config.CacheConfig) (cache.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.CacheNone, "":
		return nil, noop, nil
	case config.CacheMemory:
		return cache.NewMemoryStore(cfg.TTL), noop, nil
	case config.CacheSQLite:
		store, err := cache.OpenSQLite(cfg.Path, cfg.TTL)
		if err != nil {
			return nil, noop, errors.New("E080").
				WithDetail("Opening " + cfg.Path).
				Wrap(err)
		}
		return store, store.Close, nil
	case config.CacheS3:
		client := newS3Client(cfg)
		return cache.NewS3Store(client, cfg.Bucket, cfg.Prefix).WithTTL(cfg.TTL), noop, nil
	default:
		return nil, noop, errors.New("E122").
			WithDetail(fmt.Sprintf("Unknown cache backend %q", cfg.Backend))
	}
}

// newS3Client creates a client from the cache settings and the standard
// AWS_* environment variables.
func newS3Client(cfg config.CacheConfig) *s3.Client {
	region := cfg.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	opts := s3.Options{
		Region:      region,
		Credentials: aws.NewCredentialsCache(envCredentials{}),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

// envCredentials reads static credentials from the environment.
type envCredentials struct{}

func (envCredentials) Retrieve(context.Context) (aws.Credentials, error) {
	creds := aws.Credentials{
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "EnvCredentials",
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return aws.Credentials{}, fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
	}
	return creds, nil
}
