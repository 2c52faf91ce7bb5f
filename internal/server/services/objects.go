package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/afterlight/internal/common"
	"github.com/dmitrijs2005/afterlight/internal/models"
	"github.com/dmitrijs2005/afterlight/internal/server/config"
	"github.com/google/uuid"
)

// Presigner is the part of *s3.PresignClient used here.
type Presigner interface {
	PresignPutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type vaultGetter interface {
	GetVault(ctx context.Context, userID, vaultID string) (*models.Vault, error)
}

// ObjectURL is a presigned URL for one object key.
type ObjectURL struct {
	Key       string
	URL       string
	ExpiresAt time.Time
}

var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

// NewS3Presigner builds a presign client for the configured S3-compatible
// endpoint using static credentials.
func NewS3Presigner(ctx context.Context, cfg *config.Config) (*s3.PresignClient, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return s3.NewPresignClient(client), nil
}

// ObjectService hands out presigned URLs for encrypted objects referenced
// by S3_OBJECT_LINK artifacts. Objects are only ever ciphertext.
type ObjectService struct {
	vaults    vaultGetter
	presigner Presigner
	bucket    string
	expiry    time.Duration
	now       func() time.Time
}

func NewObjectService(vaults vaultGetter, presigner Presigner, cfg *config.Config) *ObjectService {
	return &ObjectService{
		vaults:    vaults,
		presigner: presigner,
		bucket:    cfg.S3Bucket,
		expiry:    cfg.PresignExpiry,
		now:       time.Now,
	}
}

func vaultPrefix(vaultID string) string {
	return "vaults/" + vaultID + "/"
}

func (s *ObjectService) newObjectKey(vaultID string) string {
	d := s.now().UTC()
	return fmt.Sprintf("%s%04d/%02d/%02d/%s", vaultPrefix(vaultID), d.Year(), d.Month(), d.Day(), uuid.New())
}

// PresignUpload allocates a fresh object key under the vault and returns a
// presigned PUT URL for it.
func (s *ObjectService) PresignUpload(ctx context.Context, userID, vaultID string) (*ObjectURL, error) {
	if _, err := s.vaults.GetVault(ctx, userID, vaultID); err != nil {
		return nil, err
	}

	key := s.newObjectKey(vaultID)
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return nil, fmt.Errorf("presign put: %w", err)
	}

	return &ObjectURL{Key: key, URL: req.URL, ExpiresAt: s.now().Add(s.expiry)}, nil
}

// PresignDownload returns a presigned GET URL for key, which must belong to
// the vault.
func (s *ObjectService) PresignDownload(ctx context.Context, userID, vaultID, key string) (*ObjectURL, error) {
	if _, err := s.vaults.GetVault(ctx, userID, vaultID); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(key, vaultPrefix(vaultID)) || strings.Contains(key, "..") {
		return nil, common.ErrorNotFound
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return nil, fmt.Errorf("presign get: %w", err)
	}

	return &ObjectURL{Key: key, URL: req.URL, ExpiresAt: s.now().Add(s.expiry)}, nil
}
