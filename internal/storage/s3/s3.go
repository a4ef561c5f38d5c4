package s3

import (
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/timevault-dev/timevault/internal/domain"
	"github.com/timevault-dev/timevault/internal/service"
)

// Storage keeps capsule images in an S3 bucket under
// <capsuleId>/<imageName>.
type Storage struct {
	client *s3.Client
	bucket string
}

var _ service.MediaStorage = (*Storage)(nil)

// New builds an S3-backed media store. endpoint is optional; setting it
// points the client at an S3-compatible service like localstack.
func New(ctx context.Context, bucket, region, endpoint string) (*Storage, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &Storage{client: client, bucket: bucket}, nil
}

func (s *Storage) Save(ctx context.Context, capsuleId domain.CapsuleId, name string, data io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(capsuleId, name)),
		Body:   data,
	})
	return err
}

func (s *Storage) Read(ctx context.Context, capsuleId domain.CapsuleId, name string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(capsuleId, name)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, service.ErrMediaNotFound
		}
		return nil, err
	}
	return out.Body, nil
}

func (s *Storage) Delete(ctx context.Context, capsuleId domain.CapsuleId, name string) error {
	// S3 DeleteObject is idempotent; deleting a missing key succeeds
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(capsuleId, name)),
	})
	return err
}

func objectKey(capsuleId domain.CapsuleId, name string) string {
	return capsuleId + "/" + name
}
