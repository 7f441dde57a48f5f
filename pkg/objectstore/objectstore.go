// Package objectstore moves single files between the local filesystem and an
// S3-compatible bucket.
package objectstore

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	etlerrors "github.com/BartekS5/irisetl/pkg/errors"
	"github.com/BartekS5/irisetl/pkg/logger"
)

// Gateway downloads and uploads one blob per call. Failures are returned as
// *errors.ObjectStoreError and are never retried here.
type Gateway interface {
	Download(ctx context.Context, bucket, key, localPath string) error
	Upload(ctx context.Context, localPath, bucket, key string) error
}

// MinioGateway is a Gateway backed by minio-go.
type MinioGateway struct {
	client  *minio.Client
	timeout time.Duration
}

// Endpoint locates an S3-compatible service and the static keys for it.
type Endpoint struct {
	URL       string
	AccessKey string
	SecretKey string
}

// NewMinioGateway builds a client for ep. The URL scheme decides whether TLS
// is used.
func NewMinioGateway(ep Endpoint, timeout time.Duration) (*MinioGateway, error) {
	u, err := url.Parse(ep.URL)
	if err != nil || u.Host == "" {
		return nil, etlerrors.NewValidationError("S3_ENDPOINT_URL", "must be an absolute URL", ep.URL)
	}

	client, err := minio.New(u.Host, &minio.Options{
		Creds:        credentials.NewStaticV4(ep.AccessKey, ep.SecretKey, ""),
		Secure:       u.Scheme == "https",
		Region:       "us-east-1",
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, etlerrors.Wrap(err, "error creating object storage client")
	}
	return &MinioGateway{client: client, timeout: timeout}, nil
}

func (g *MinioGateway) Download(ctx context.Context, bucket, key, localPath string) error {
	if err := checkArgs("download", bucket, key, localPath); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return etlerrors.NewObjectStoreError(etlerrors.Transport, "download", bucket, key, err)
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	if err := g.client.FGetObject(ctx, bucket, key, localPath, minio.GetObjectOptions{}); err != nil {
		kind := Classify(err)
		logger.Err(err).Str("bucket", bucket).Str("key", key).Str("kind", kind.String()).
			Msg("Error downloading file from object storage")
		return etlerrors.NewObjectStoreError(kind, "download", bucket, key, err)
	}
	logger.Infof("Successfully downloaded %s/%s to %s", bucket, key, localPath)
	return nil
}

func (g *MinioGateway) Upload(ctx context.Context, localPath, bucket, key string) error {
	if err := checkArgs("upload", bucket, key, localPath); err != nil {
		return err
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	_, err := g.client.FPutObject(ctx, bucket, key, localPath, minio.PutObjectOptions{
		ContentType: "application/vnd.apache.parquet",
	})
	if err != nil {
		kind := Classify(err)
		if os.IsNotExist(err) {
			kind = etlerrors.InvalidArgument
		}
		logger.Err(err).Str("bucket", bucket).Str("key", key).Str("kind", kind.String()).
			Msg("Error uploading file to object storage")
		return etlerrors.NewObjectStoreError(kind, "upload", bucket, key, err)
	}
	logger.Infof("Successfully uploaded %s to %s/%s", localPath, bucket, key)
	return nil
}

func (g *MinioGateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

// Classify maps a minio client error to a failure kind. Missing keys and
// buckets are NotFound; everything else is Transport.
func Classify(err error) etlerrors.StoreErrorKind {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket", "NoSuchObject":
		return etlerrors.NotFound
	}
	if resp.StatusCode == http.StatusNotFound {
		return etlerrors.NotFound
	}
	return etlerrors.Transport
}

func checkArgs(op, bucket, key, localPath string) error {
	switch {
	case bucket == "":
		return etlerrors.NewObjectStoreError(etlerrors.InvalidArgument, op, bucket, key, etlerrors.New("empty bucket name"))
	case key == "":
		return etlerrors.NewObjectStoreError(etlerrors.InvalidArgument, op, bucket, key, etlerrors.New("empty object key"))
	case localPath == "":
		return etlerrors.NewObjectStoreError(etlerrors.InvalidArgument, op, bucket, key, etlerrors.New("empty local path"))
	}
	return nil
}
