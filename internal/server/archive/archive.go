// Package archive stores backup documents in an S3-compatible bucket.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/cryptox"
	"github.com/google/uuid"
)

// ErrForeignKey is returned when a key does not belong to the requesting owner.
var ErrForeignKey = errors.New("archive key belongs to another account")

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// ObjectAPI is the subset of *s3.Client used by the archive.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Presigner is the subset of *s3.PresignClient used by the archive.
type Presigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Options configures an S3 archive.
type Options struct {
	Bucket     string
	Region     string
	Endpoint   string
	AccessKey  string
	SecretKey  string
	PresignTTL time.Duration
	// Passphrase, when set, seals every object with AES-GCM.
	Passphrase string
}

// S3Archive keeps one object per archived backup.
type S3Archive struct {
	api        ObjectAPI
	presigner  Presigner
	bucket     string
	presignTTL time.Duration
	key        []byte
	now        func() time.Time
}

// New builds an archive backed by the endpoint in opts.
func New(ctx context.Context, opts Options) (*S3Archive, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewWithClient(client, s3.NewPresignClient(client), opts), nil
}

// NewWithClient wires an archive to already constructed clients.
func NewWithClient(api ObjectAPI, presigner Presigner, opts Options) *S3Archive {
	a := &S3Archive{
		api:        api,
		presigner:  presigner,
		bucket:     opts.Bucket,
		presignTTL: opts.PresignTTL,
		now:        time.Now,
	}
	if a.presignTTL <= 0 {
		a.presignTTL = 15 * time.Minute
	}
	if opts.Passphrase != "" {
		a.key = cryptox.DeriveKey([]byte(opts.Passphrase), []byte("bookkeeper-archive"))
	}
	return a
}

func ownerPrefix(ownerID int64) string {
	return fmt.Sprintf("backups/%d/", ownerID)
}

// NewKey returns a fresh object key under the owner's dated prefix.
func (a *S3Archive) NewKey(ownerID int64) string {
	d := a.now().UTC()
	return fmt.Sprintf("%s%04d/%02d/%02d/%s.json", ownerPrefix(ownerID), d.Year(), d.Month(), d.Day(), uuid.New())
}

// Put stores data and returns its key.
func (a *S3Archive) Put(ctx context.Context, ownerID int64, data []byte) (string, error) {
	key := a.NewKey(ownerID)

	body := data
	contentType := "application/json"
	if a.key != nil {
		sealed, err := cryptox.Seal(data, a.key)
		if err != nil {
			return "", fmt.Errorf("seal archive: %w", err)
		}
		body = sealed
		contentType = "application/octet-stream"
	}

	_, err := a.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}

// Get loads the object stored under key. Keys outside the owner's prefix
// are refused with ErrForeignKey.
func (a *S3Archive) Get(ctx context.Context, ownerID int64, key string) ([]byte, error) {
	if err := checkOwner(ownerID, key); err != nil {
		return nil, err
	}

	out, err := a.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	if a.key == nil {
		return data, nil
	}
	plain, err := cryptox.Open(data, a.key)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", key, err)
	}
	return plain, nil
}

// PresignGet returns a time-limited download URL for key.
func (a *S3Archive) PresignGet(ctx context.Context, ownerID int64, key string) (string, error) {
	if err := checkOwner(ownerID, key); err != nil {
		return "", err
	}

	req, err := a.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(a.presignTTL))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

func checkOwner(ownerID int64, key string) error {
	if !strings.HasPrefix(key, ownerPrefix(ownerID)) || strings.Contains(key, "..") {
		return fmt.Errorf("%w: %w", common.ErrorUnauthorized, ErrForeignKey)
	}
	return nil
}
