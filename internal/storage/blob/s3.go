package blob

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/gridworkflow/gateway/backend/internal/config"
)

type s3Store struct {
	client        *s3.Client
	presigner     *s3.PresignClient
	bucket        string
	region        string
	signedURL     bool
	signedTTL     time.Duration
	publicURLBase string
}

func newS3Store(cfg config.BlobConfig) (*s3Store, error) {
	awsCfg, err := awscfg.LoadDefaultConfig(context.Background(),
		awscfg.WithRegion(cfg.Region),
		awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.SecretID, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("blob: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &s3Store{
		client:        client,
		presigner:     s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		region:        cfg.Region,
		signedURL:     cfg.SignedURL,
		signedTTL:     ClampSignedTTL(cfg.SignedURLTTL),
		publicURLBase: strings.TrimRight(cfg.PublicURLBase, "/"),
	}, nil
}

func (s *s3Store) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return nil
}

func (s *s3Store) AccessURL(ctx context.Context, key string) (UploadResult, error) {
	if s.signedURL {
		presigned, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(s.signedTTL))
		if err != nil {
			return UploadResult{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		return UploadResult{
			URL:       presigned.URL,
			Key:       key,
			Signed:    true,
			ExpiresIn: int(s.signedTTL.Seconds()),
		}, nil
	}
	return UploadResult{URL: s.publicURL(key), Key: key}, nil
}

func (s *s3Store) publicURL(key string) string {
	if s.publicURLBase != "" {
		return s.publicURLBase + "/" + key
	}
	// COS virtual-host addressing.
	return fmt.Sprintf("https://%s.cos.%s.myqcloud.com/%s", s.bucket, s.region, key)
}
