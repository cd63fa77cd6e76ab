package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lovebox-backend/internal/apperr"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const avatarUploadExpiry = 5 * time.Minute

var avatarExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
}

// Presigner signs object uploads
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
}

// S3Config holds bucket access settings
type S3Config struct {
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	Endpoint      string
	PublicBaseURL string
}

// S3Presigner presigns PutObject requests against one bucket
type S3Presigner struct {
	client *s3.PresignClient
	bucket string
}

// NewS3Presigner builds an S3 client from static keys when given, else from the default chain
func NewS3Presigner(ctx context.Context, cfg S3Config) (*S3Presigner, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Presigner{client: s3.NewPresignClient(client), bucket: cfg.Bucket}, nil
}

// PresignPut returns a URL the client can PUT the object to
func (p *S3Presigner) PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error) {
	request, err := p.client.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}
	return request.URL, nil
}

// AvatarUpload is handed to the client to perform the upload
type AvatarUpload struct {
	UploadURL string `json:"upload_url"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expires_in"`
}

// AvatarService issues avatar upload URLs and records the uploaded avatar
type AvatarService struct {
	users     UserStore
	presigner Presigner
	baseURL   string
}

// NewAvatarService creates a new avatar service. baseURL prefixes object keys to form public URLs.
func NewAvatarService(users UserStore, presigner Presigner, baseURL string) *AvatarService {
	return &AvatarService{
		users:     users,
		presigner: presigner,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// CreateUploadURL presigns an upload under the caller's avatar prefix
func (s *AvatarService) CreateUploadURL(ctx context.Context, userID int64, contentType string) (*AvatarUpload, error) {
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return nil, apperr.BadRequest("avatar must be image/jpeg or image/png")
	}

	key := fmt.Sprintf("%s%s.%s", avatarPrefix(userID), uuid.NewString(), ext)
	url, err := s.presigner.PresignPut(ctx, key, contentType, avatarUploadExpiry)
	if err != nil {
		return nil, err
	}

	return &AvatarUpload{
		UploadURL: url,
		Key:       key,
		ExpiresIn: int(avatarUploadExpiry.Seconds()),
	}, nil
}

// ConfirmUpload stores the public URL of an uploaded avatar on the caller's profile
func (s *AvatarService) ConfirmUpload(ctx context.Context, userID int64, key string) (string, error) {
	if !strings.HasPrefix(key, avatarPrefix(userID)) || strings.Contains(key, "..") {
		return "", apperr.Forbidden("avatar key does not belong to this user")
	}

	url := s.baseURL + "/" + key
	if err := s.users.UpdateAvatarURL(ctx, userID, &url); err != nil {
		return "", storeErr(err, "user")
	}

	log.Info().Int64("user_id", userID).Str("key", key).Msg("Avatar updated")
	return url, nil
}

func avatarPrefix(userID int64) string {
	return fmt.Sprintf("avatars/%d/", userID)
}
