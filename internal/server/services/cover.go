package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bookreviews/internal/common"
	sc "github.com/dmitrijs2005/bookreviews/internal/server/config"
	"github.com/dmitrijs2005/bookreviews/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	MsgForeignCover = "You can only upload a cover for your own book"
	MsgNoCover      = "Book has no cover"

	presignExpiry = 15 * time.Minute
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// CoverUpload tells the client where to PUT the cover image.
type CoverUpload struct {
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`
}

// CoverService hands out presigned S3 URLs for book cover images. The image
// bytes never pass through the API server.
type CoverService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

func NewCoverService(db *sql.DB, m repomanager.RepositoryManager, config *sc.Config) *CoverService {
	return &CoverService{db: db, repomanager: m, config: config}
}

func coverKey(bookID string) string {
	return fmt.Sprintf("books/%s/%v", bookID, uuid.New())
}

func (s *CoverService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// CreateUploadURL presigns a PUT for a fresh object key and records that key
// as the book's cover. Only the book's creator may do this.
func (s *CoverService) CreateUploadURL(ctx context.Context, userID, bookID string) (*CoverUpload, error) {
	repo := s.repomanager.Books(s.db)

	book, err := findBook(ctx, repo, bookID)
	if err != nil {
		return nil, err
	}
	if book.CreatedBy != userID {
		return nil, common.NewError(common.ErrorForbidden, MsgForeignCover)
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("error creating presign client: %w", err)
	}

	bucket := s.config.S3Bucket
	key := coverKey(book.ID)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, fmt.Errorf("error presigning upload: %w", err)
	}

	if err := repo.SetCoverKey(ctx, book.ID, key); err != nil {
		return nil, fmt.Errorf("error saving cover key: %w", err)
	}

	return &CoverUpload{Key: key, UploadURL: req.URL}, nil
}

// DownloadURL presigns a GET for the book's current cover.
func (s *CoverService) DownloadURL(ctx context.Context, bookID string) (string, error) {
	book, err := findBook(ctx, s.repomanager.Books(s.db), bookID)
	if err != nil {
		return "", err
	}
	if book.CoverKey == "" {
		return "", common.NewError(common.ErrorNotFound, MsgNoCover)
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", fmt.Errorf("error creating presign client: %w", err)
	}

	bucket := s.config.S3Bucket
	key := book.CoverKey

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("error presigning download: %w", err)
	}

	return req.URL, nil
}
