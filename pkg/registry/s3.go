package registry

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/fsroute-dev/fsroute/internal/errors"
)

// S3API is the subset of the S3 client the store uses. Narrowed to an
// interface so tests can stub it without a live bucket.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store persists the registry as an S3 object. Deploy pipelines publish
// the compiled registry once; serve hosts pull it at start.
//
//	cfg, _ := awsconfig.LoadDefaultConfig(ctx)
//	store := registry.NewS3Store(s3.NewFromConfig(cfg), "releases", "prod/routes.json")
type S3Store struct {
	client S3API
	bucket string
	key    string
}

// NewS3Store creates a store for the given bucket and object key.
func NewS3Store(client S3API, bucket, key string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		key:    key,
	}
}

// Save uploads the registry, overwriting any prior object.
func (s *S3Store) Save(ctx context.Context, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"compile-time": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return errors.New("E020").
			WithDetail("S3 upload to s3://" + s.bucket + "/" + s.key + " failed").
			Wrap(err)
	}
	return nil
}

// Load downloads the registry object.
func (s *S3Store) Load(ctx context.Context) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, errors.New("E021").
			WithDetail("Cannot fetch s3://" + s.bucket + "/" + s.key).
			Wrap(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.New("E021").Wrap(err)
	}
	return data, nil
}
