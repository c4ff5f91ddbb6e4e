// Package staging copies remote input files to a local directory so the
// reader can open them. Only s3:// data directories are remote.
package staging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/JonMunkholm/cpdsstox/internal/core"
	"github.com/JonMunkholm/cpdsstox/internal/logging"
)

const s3Scheme = "s3://"

// IsRemote reports whether dir names an object store location.
func IsRemote(dir string) bool {
	return strings.HasPrefix(dir, s3Scheme)
}

// ParseS3URL splits s3://bucket/prefix into bucket and prefix (without a
// trailing slash).
func ParseS3URL(u string) (bucket, prefix string, err error) {
	if !IsRemote(u) {
		return "", "", fmt.Errorf("%w: not an s3 url: %q", core.ErrInvalidConfig, u)
	}
	rest := strings.TrimPrefix(u, s3Scheme)
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("%w: s3 url has no bucket: %q", core.ErrInvalidConfig, u)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// ObjectGetter is the part of the S3 client staging needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Config holds S3 client settings.
type Config struct {
	Region    string
	Endpoint  string // optional; set for MinIO and other S3-compatible stores
	PathStyle bool
}

// S3Stager downloads manifest files from a bucket prefix.
type S3Stager struct {
	client ObjectGetter
}

// NewS3Stager builds a client from the default AWS credential chain.
func NewS3Stager(ctx context.Context, cfg Config) (*S3Stager, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &S3Stager{client: client}, nil
}

// NewS3StagerWithClient wraps an existing client.
func NewS3StagerWithClient(client ObjectGetter) *S3Stager {
	return &S3Stager{client: client}
}

// Stage downloads every named file under the remote prefix into a new
// temporary directory and returns it. Objects that do not exist are skipped
// so the manifest reports them as missing. The caller removes the directory
// with cleanup.
func (s *S3Stager) Stage(ctx context.Context, remote string, names []string) (dir string, cleanup func(), err error) {
	bucket, prefix, err := ParseS3URL(remote)
	if err != nil {
		return "", nil, err
	}

	dir, err = os.MkdirTemp("", "cpload-*")
	if err != nil {
		return "", nil, fmt.Errorf("create staging dir: %w", err)
	}
	cleanup = func() { _ = os.RemoveAll(dir) }
	logger := logging.FromContext(ctx)

	for _, name := range names {
		key := path.Join(prefix, filepath.ToSlash(name))
		n, err := s.fetch(ctx, bucket, key, filepath.Join(dir, filepath.FromSlash(name)))
		if err != nil {
			var nsk *types.NoSuchKey
			if errors.As(err, &nsk) {
				logger.Warn("remote file not found", "bucket", bucket, "key", key)
				continue
			}
			cleanup()
			return "", nil, fmt.Errorf("stage s3://%s/%s: %w", bucket, key, err)
		}
		logger.Debug("staged remote file", "bucket", bucket, "key", key, "bytes", n)
	}

	return dir, cleanup, nil
}

func (s *S3Stager) fetch(ctx context.Context, bucket, key, dest string) (int64, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return 0, err
	}
	defer func() { _ = out.Body.Close() }()

	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return 0, err
	}
	f, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, out.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}
