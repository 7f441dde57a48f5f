package objectstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	etlerrors "github.com/BartekS5/irisetl/pkg/errors"
)

const noSuchKeyBody = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message><Key>iris.parquet</Key><BucketName>iris</BucketName></Error>`

// fakeS3 answers every request with status and body.
func fakeS3(t *testing.T, status int, body string) *MinioGateway {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(status)
		if r.Method != http.MethodHead {
			w.Write([]byte(body))
		}
	}))
	t.Cleanup(srv.Close)

	gw, err := NewMinioGateway(Endpoint{
		URL:       srv.URL,
		AccessKey: "access",
		SecretKey: "secret",
	}, 5*time.Second)
	assert.NilError(t, err)
	return gw
}

func TestDownload_MissingKeyIsNotFound(t *testing.T) {
	gw := fakeS3(t, http.StatusNotFound, noSuchKeyBody)
	local := filepath.Join(t.TempDir(), "out", "iris.parquet")

	err := gw.Download(context.Background(), "iris", "iris.parquet", local)
	assert.Assert(t, is.ErrorIs(err, etlerrors.ErrObjectNotFound))

	var serr *etlerrors.ObjectStoreError
	assert.Assert(t, etlerrors.As(err, &serr))
	assert.Equal(t, serr.Op, "download")
	assert.Equal(t, serr.Key, "iris.parquet")
}

func TestDownload_ServerErrorIsTransport(t *testing.T) {
	gw := fakeS3(t, http.StatusForbidden,
		`<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`)

	err := gw.Download(context.Background(), "iris", "iris.parquet", filepath.Join(t.TempDir(), "x"))
	assert.Assert(t, is.ErrorIs(err, etlerrors.ErrTransport))
	assert.Assert(t, !etlerrors.Is(err, etlerrors.ErrObjectNotFound))
}

func TestGateway_EmptyArguments(t *testing.T) {
	gw := fakeS3(t, http.StatusOK, "")
	ctx := context.Background()

	cases := []struct {
		name string
		call func() error
	}{
		{"download empty bucket", func() error { return gw.Download(ctx, "", "k", "/tmp/x") }},
		{"download empty key", func() error { return gw.Download(ctx, "b", "", "/tmp/x") }},
		{"download empty path", func() error { return gw.Download(ctx, "b", "k", "") }},
		{"upload empty bucket", func() error { return gw.Upload(ctx, "/tmp/x", "", "k") }},
		{"upload empty key", func() error { return gw.Upload(ctx, "/tmp/x", "b", "") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Assert(t, is.ErrorIs(tc.call(), etlerrors.ErrInvalidArgument))
		})
	}
}

func TestUpload_MissingLocalFile(t *testing.T) {
	gw := fakeS3(t, http.StatusOK, "")
	missing := filepath.Join(t.TempDir(), "nope.parquet")
	_, statErr := os.Stat(missing)
	assert.Assert(t, os.IsNotExist(statErr))

	err := gw.Upload(context.Background(), missing, "iris", "iris.parquet")
	assert.Assert(t, is.ErrorIs(err, etlerrors.ErrInvalidArgument))
}

func TestNewMinioGateway_RejectsRelativeEndpoint(t *testing.T) {
	_, err := NewMinioGateway(Endpoint{URL: "minio:9000"}, time.Second)
	var verr *etlerrors.ValidationError
	assert.Assert(t, etlerrors.As(err, &verr))
	assert.Equal(t, verr.Field, "S3_ENDPOINT_URL")
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want etlerrors.StoreErrorKind
	}{
		{minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}, etlerrors.NotFound},
		{minio.ErrorResponse{Code: "NoSuchBucket", StatusCode: 404}, etlerrors.NotFound},
		{minio.ErrorResponse{StatusCode: 404}, etlerrors.NotFound},
		{minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}, etlerrors.Transport},
		{minio.ErrorResponse{Code: "InternalError", StatusCode: 500}, etlerrors.Transport},
		{context.DeadlineExceeded, etlerrors.Transport},
	}
	for _, tc := range cases {
		assert.Equal(t, Classify(tc.err), tc.want, "%v", tc.err)
	}
}
