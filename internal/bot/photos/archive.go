// Package photos copies the photos drivers send into an S3 bucket so the
// ledger references objects that outlive the chat transport's file store.
package photos

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/shiftkeeper/internal/bot/transport"
	"github.com/dmitrijs2005/shiftkeeper/internal/logging"
)

// Test seams.
var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = s3.NewFromConfig
	newObjectID           = uuid.NewString
)

type Config struct {
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Archive struct {
	client  objectPutter
	bucket  string
	fetcher transport.FileFetcher
	logger  logging.Logger
}

// NewS3Archive builds an S3 client from cfg. Static credentials are used
// when AccessKey is set, otherwise the default AWS credential chain.
func NewS3Archive(ctx context.Context, cfg Config, fetcher transport.FileFetcher, logger logging.Logger) (*S3Archive, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newS3Archive(client, cfg.Bucket, fetcher, logger), nil
}

func newS3Archive(client objectPutter, bucket string, fetcher transport.FileFetcher, logger logging.Logger) *S3Archive {
	return &S3Archive{
		client:  client,
		bucket:  bucket,
		fetcher: fetcher,
		logger:  logger.With("module", "photos"),
	}
}

// Key is the object key of a photo sent by uid at the given time.
func Key(uid string, at time.Time, id string) string {
	return fmt.Sprintf("photos/%04d/%02d/%02d/%s/%s", at.Year(), int(at.Month()), at.Day(), uid, id)
}

// Archive downloads fileRef through the transport and uploads it. The
// returned object key replaces the transport reference in the ledger.
func (a *S3Archive) Archive(ctx context.Context, uid, fileRef string, at time.Time) (string, error) {
	body, contentType, err := a.fetcher.Fetch(ctx, fileRef)
	if err != nil {
		return "", fmt.Errorf("fetch photo: %w", err)
	}
	defer body.Close()

	// The SDK signs the payload, so it needs a seekable body.
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}

	key := Key(uid, at, newObjectID())
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata:    map[string]string{"uid": uid},
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	a.logger.Debug(ctx, "photo archived", "uid", uid, "key", key, "bytes", len(data))
	return key, nil
}
