package media

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/akrishnanDG/legacy-profile-migrator/pkg/config"
)

// Photo kinds
const (
	KindProfile = "profile_photo"
	KindCover   = "cover_photo"
)

// Store receives migrated photos and returns the reference written to the
// profile row.
type Store interface {
	Put(ctx context.Context, userID int64, kind, src string) (string, error)
}

// NewStore builds the store selected by cfg.
func NewStore(ctx context.Context, cfg config.MediaConfig) (Store, error) {
	switch cfg.Backend {
	case "", "fs":
		return NewFSStore(cfg.Dir), nil
	case "s3":
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown media backend: %s", cfg.Backend)
	}
}

func objectName(userID int64, kind, src string) string {
	return path.Join(strconv.FormatInt(userID, 10), kind+strings.ToLower(filepath.Ext(src)))
}

// FSStore copies photos into a local directory as {dir}/{user_id}/{kind}{ext}.
type FSStore struct {
	dir string
}

// NewFSStore creates a filesystem store.
func NewFSStore(dir string) *FSStore {
	return &FSStore{dir: dir}
}

// Put copies src and returns the destination path.
func (s *FSStore) Put(ctx context.Context, userID int64, kind, src string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dst := filepath.Join(s.dir, filepath.FromSlash(objectName(userID, kind, src)))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to open photo: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to copy photo: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return filepath.ToSlash(dst), nil
}

// S3API is the part of the S3 client the store uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads photos as s3://{bucket}/{prefix}/{user_id}/{kind}{ext}.
type S3Store struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Store creates an S3 store using the default AWS credential chain.
func NewS3Store(ctx context.Context, cfg config.S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("media.s3.bucket is required")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewS3StoreWithClient(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix), nil
}

// NewS3StoreWithClient creates an S3 store around an existing client.
func NewS3StoreWithClient(client S3API, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Put uploads src and returns its s3:// URI.
func (s *S3Store) Put(ctx context.Context, userID int64, kind, src string) (string, error) {
	f, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to open photo: %w", err)
	}
	defer f.Close()

	key := objectName(userID, kind, src)
	if s.prefix != "" {
		key = path.Join(s.prefix, key)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if ct := mime.TypeByExtension(filepath.Ext(src)); ct != "" {
		input.ContentType = aws.String(ct)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
