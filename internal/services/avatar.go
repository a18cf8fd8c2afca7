package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const avatarUploadTTL = 5 * time.Minute

// AvatarService issues pre-signed upload URLs for avatar images and
// records the resulting object key on the user profile.
type AvatarService struct {
	users    UserStore
	s3Client *s3.Client
	bucket   string
}

// NewAvatarService creates a new avatar service
func NewAvatarService(users UserStore, region, bucket, accessKey, secretKey, endpoint string) (*AvatarService, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &AvatarService{
		users:    users,
		s3Client: s3Client,
		bucket:   bucket,
	}, nil
}

// UploadResponse carries a pre-signed PUT URL the client uploads to.
type UploadResponse struct {
	UploadURL string `json:"upload_url"`
	AvatarKey string `json:"avatar_key"`
	ExpiresIn int    `json:"expires_in"`
}

// PrepareUpload generates a pre-signed URL for uploading an avatar image
// and stores the key on the user profile. The client uploads directly to
// object storage; this service never touches image bytes.
func (s *AvatarService) PrepareUpload(ctx context.Context, userID, contentType string) (*UploadResponse, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("avatars/%s/%s.jpg", userID, uuid.New().String())

	presignClient := s3.NewPresignClient(s.s3Client)
	request, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = avatarUploadTTL
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	if err := s.users.UpdateAvatarKey(ctx, userID, key); err != nil {
		return nil, fmt.Errorf("failed to record avatar key: %w", err)
	}

	return &UploadResponse{
		UploadURL: request.URL,
		AvatarKey: key,
		ExpiresIn: int(avatarUploadTTL.Seconds()),
	}, nil
}

// DownloadURL returns a pre-signed GET URL for an avatar key.
func (s *AvatarService) DownloadURL(ctx context.Context, avatarKey string) (string, error) {
	presignClient := s3.NewPresignClient(s.s3Client)
	request, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(avatarKey),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = avatarUploadTTL
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate download URL: %w", err)
	}
	return request.URL, nil
}
