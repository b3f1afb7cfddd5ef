package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/snarg/bitacora/internal/config"
)

// ObjectPutter is the subset of the S3 client used by S3Store.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Store uploads submission audio to an S3-compatible bucket so that the
// managed transcription service can read it.
type S3Store struct {
	client ObjectPutter
	bucket string
	prefix string
	log    zerolog.Logger
}

// LoadAWSConfig builds an SDK config from the shared AWS settings. Static
// credentials are used only when both keys are set.
func LoadAWSConfig(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("aws config: %w", err)
	}
	return awsCfg, nil
}

// NewS3Store creates an S3 store for the configured bucket.
func NewS3Store(awsCfg aws.Config, bucket string, s3cfg config.S3Config, log zerolog.Logger) *S3Store {
	var s3Opts []func(*s3.Options)
	if s3cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(s3cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	return newS3Store(s3.NewFromConfig(awsCfg, s3Opts...), bucket, s3cfg.Prefix, log)
}

func newS3Store(client ObjectPutter, bucket, prefix string, log zerolog.Logger) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
		log:    log.With().Str("component", "s3-store").Logger(),
	}
}

// HeadBucket checks that the bucket exists and credentials are valid.
func (s *S3Store) HeadBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: &s.bucket,
	})
	return err
}

// Put uploads the file at localPath under key and returns its s3:// URI.
func (s *S3Store) Put(ctx context.Context, localPath, key string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	objKey := s.objectKey(key)
	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &objKey,
		Body:        f,
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload s3://%s/%s: %w", s.bucket, objKey, err)
	}

	uri := "s3://" + s.bucket + "/" + objKey
	s.log.Debug().Str("uri", uri).Msg("audio uploaded")
	return uri, nil
}

func (s *S3Store) objectKey(key string) string {
	if s.prefix != "" {
		return s.prefix + "/audio/" + key
	}
	return "audio/" + key
}
