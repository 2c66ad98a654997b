package donation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/ubuntu/ddp-insights/internal/constants"
	"github.com/ubuntu/decorate"
)

// S3Config configures the object storage sink.
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint" validate:"required"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access-key" validate:"required"`
	SecretKey string `mapstructure:"secret-key" validate:"required"`
	Bucket    string `mapstructure:"bucket" validate:"required"`
	Prefix    string `mapstructure:"prefix"`
	UseSSL    bool   `mapstructure:"use-ssl"`
}

type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

func newMinioStore(cfg S3Config) (objectStore, error) {
	return minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
}

// S3Sink stores each donation as an object named <prefix>/<key>.json.
// The bucket is created on first use when missing.
type S3Sink struct {
	store  objectStore
	bucket string
	region string
	prefix string

	initOnce sync.Once
	initErr  error

	log *slog.Logger
}

// NewS3Sink returns an S3Sink storing objects in cfg.Bucket.
func NewS3Sink(_ context.Context, cfg S3Config, args ...Options) (*S3Sink, error) {
	if err := check(KindS3, &cfg); err != nil {
		return nil, err
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	opts := newOptions(args)

	store, err := opts.newStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %v", err)
	}

	return &S3Sink{
		store:  store,
		bucket: cfg.Bucket,
		region: cfg.Region,
		prefix: strings.Trim(cfg.Prefix, "/"),
		log:    opts.log,
	}, nil
}

func (s *S3Sink) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.store.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.log.Info("Creating donation bucket", "bucket", s.bucket, "region", s.region)
		s.initErr = s.store.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// Object returns the object name of the donation for key.
func (s *S3Sink) Object(key string) string {
	return path.Join(s.prefix, key+constants.DonationExtension)
}

// Donate uploads data as the object of key.
func (s *S3Sink) Donate(ctx context.Context, key string, data []byte) (err error) {
	defer decorate.OnError(&err, "could not upload donation %q", key)

	if err := checkKey(key); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %v", err)
	}

	object := s.Object(key)
	if _, err := s.store.PutObject(ctx, s.bucket, object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	}); err != nil {
		return err
	}
	s.log.Debug("Donation uploaded", "bucket", s.bucket, "object", object)
	return nil
}

// Close does nothing.
func (s *S3Sink) Close() error {
	return nil
}
