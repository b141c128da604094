package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the configuration for the S3 mirror.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Optional: for custom S3-compatible endpoints
	AccessKeyID     string // Optional: AWS access key ID
	SecretAccessKey string // Optional: AWS secret access key
}

// S3Store wraps LocalStore and mirrors saved files to S3 when a fetchable
// URL is requested. The upstream provider pulls source frames over HTTPS,
// so with S3 configured the service does not need to be publicly reachable.
type S3Store struct {
	*LocalStore
	client *s3.Client
	bucket string
	region string
}

// Compile-time check that S3Store implements Store.
var _ Store = (*S3Store)(nil)

// NewS3Store creates an S3Store over a LocalStore rooted at baseDir.
func NewS3Store(baseDir string, cfg S3Config) (*S3Store, error) {
	local, err := NewLocalStore(baseDir, "")
	if err != nil {
		return nil, err
	}

	var configOpts []func(*config.LoadOptions) error
	configOpts = append(configOpts, config.WithRegion(cfg.Region))

	// Use static credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, clientOpts...)

	return &S3Store{
		LocalStore: local,
		client:     client,
		bucket:     cfg.Bucket,
		region:     cfg.Region,
	}, nil
}

// ResolveURL uploads the saved file to S3 under <scope>/<name> and returns
// the S3 HTTPS URL.
func (s *S3Store) ResolveURL(ctx context.Context, scope, path string) (string, error) {
	rel, err := s.relToScope(scope, path)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path) // #nosec G304 - path is confined to the scope dir
	if err != nil {
		return "", fmt.Errorf("open file for upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	key := scope + "/" + rel
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return "", fmt.Errorf("upload to S3: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

// RemoveScope deletes the mirrored S3 objects under the scope prefix, then
// removes the local scope directory. S3 deletion failures do not block the
// local cleanup.
func (s *S3Store) RemoveScope(ctx context.Context, scope string) error {
	var s3Err error

	list, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(scope + "/"),
	})
	if err != nil {
		s3Err = fmt.Errorf("list S3 scope objects: %w", err)
	} else {
		for _, obj := range list.Contents {
			if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    obj.Key,
			}); err != nil && s3Err == nil {
				s3Err = fmt.Errorf("delete S3 object %s: %w", aws.ToString(obj.Key), err)
			}
		}
	}

	if err := s.LocalStore.RemoveScope(ctx, scope); err != nil {
		return err
	}
	return s3Err
}
