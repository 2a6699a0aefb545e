package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/wmhtool/internal/config"
)

func TestParseDestination(t *testing.T) {
	tests := []struct {
		name    string
		dest    string
		bucket  string
		want    Destination
		wantErr bool
	}{
		{"local file", "out/model.wmh", "", Destination{Key: "out/model.wmh"}, false},
		{"s3", "s3://models/props/chair.wmh", "", Destination{Bucket: "models", Key: "props/chair.wmh"}, false},
		{"s3 default bucket", "s3:///chair.wmh", "fallback", Destination{Bucket: "fallback", Key: "chair.wmh"}, false},
		{"s3 extra slashes", "s3://models//chair.wmh", "", Destination{Bucket: "models", Key: "chair.wmh"}, false},
		{"empty", "", "", Destination{}, true},
		{"s3 no key", "s3://models", "", Destination{}, true},
		{"s3 empty key", "s3://models/", "", Destination{}, true},
		{"s3 no bucket", "s3:///chair.wmh", "", Destination{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDestination(tt.dest, tt.bucket)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDestination)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDestination_String(t *testing.T) {
	assert.Equal(t, "s3://models/a.wmh", Destination{Bucket: "models", Key: "a.wmh"}.String())
	assert.Equal(t, "a.wmh", Destination{Key: "a.wmh"}.String())
}

func TestDestination_WithExtension(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"chair", "chair.wmh"},
		{"chair.wmh", "chair.wmh"},
		{"CHAIR.WMH", "CHAIR.WMH"},
		{"chair.obj", "chair.obj.wmh"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, Destination{Key: tt.key}.WithExtension(".wmh").Key)
		})
	}
}

func TestOpen_Local(t *testing.T) {
	sink, err := Open(context.Background(), Destination{Key: "x.wmh"}, config.MinIOConfig{})
	require.NoError(t, err)
	assert.IsType(t, &FileSink{}, sink)
}

func TestOpen_RemoteRequiresConfig(t *testing.T) {
	_, err := Open(context.Background(), Destination{Bucket: "models", Key: "x.wmh"}, config.MinIOConfig{})
	assert.ErrorContains(t, err, "endpoint")
}

func TestFileSink_Put(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.wmh")
	data := []byte("wmh bytes")

	info, err := NewFileSink().Put(context.Background(), path, bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, ObjectInfo{Location: path, Size: int64(len(data))}, info)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), st.Mode().Perm())

	assertNoTempFiles(t, dir)
}

func TestFileSink_Overwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.wmh")
	require.NoError(t, os.WriteFile(path, []byte("old content that is longer"), 0o644))

	_, err := NewFileSink().Put(context.Background(), path, strings.NewReader("new"), -1)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

type failingReader struct{ n int }

func (r *failingReader) Read(p []byte) (int, error) {
	if r.n == 0 {
		return 0, errors.New("disk on fire")
	}
	n := copy(p, bytes.Repeat([]byte{1}, r.n))
	r.n -= n
	return n, nil
}

func TestFileSink_Failures(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "keep.wmh")
	require.NoError(t, os.WriteFile(existing, []byte("original"), 0o644))

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		key  string
		r    io.Reader
		size int64
	}{
		{"reader error", context.Background(), existing, &failingReader{n: 4}, -1},
		{"short write", context.Background(), existing, strings.NewReader("abc"), 10},
		{"canceled", canceled, existing, strings.NewReader("abc"), 3},
		{"missing directory", context.Background(), filepath.Join(dir, "nope", "x.wmh"), strings.NewReader("abc"), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFileSink().Put(tt.ctx, tt.key, tt.r, tt.size)
			assert.ErrorIs(t, err, ErrWriteFailed)

			got, err := os.ReadFile(existing)
			require.NoError(t, err)
			assert.Equal(t, "original", string(got))
			assertNoTempFiles(t, dir)
		})
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}
}

func TestNewMinIO_Validation(t *testing.T) {
	valid := config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "k", SecretKey: "s", Bucket: "b"}

	tests := []struct {
		name   string
		modify func(c *config.MinIOConfig)
		want   string
	}{
		{"no endpoint", func(c *config.MinIOConfig) { c.Endpoint = "" }, "endpoint"},
		{"no access key", func(c *config.MinIOConfig) { c.AccessKey = "" }, "credentials"},
		{"no secret key", func(c *config.MinIOConfig) { c.SecretKey = "" }, "credentials"},
		{"no bucket", func(c *config.MinIOConfig) { c.Bucket = "" }, "bucket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.modify(&cfg)
			_, err := NewMinIO(context.Background(), cfg)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

// fakeS3 answers the few S3 calls the sink makes and records them.
type fakeS3 struct {
	mu           sync.Mutex
	bucketExists bool
	putStatus    int
	requests     []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	io.Copy(io.Discard, r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+strings.TrimSuffix(r.URL.Path, "/"))
	exists := f.bucketExists
	f.mu.Unlock()

	switch {
	case r.Method == http.MethodHead && !exists:
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodPut && f.putStatus != 0:
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(f.putStatus)
		io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>denied</Message></Error>`)
	default:
		w.Header().Set("ETag", `"abc123"`)
		w.WriteHeader(http.StatusOK)
	}
}

func (f *fakeS3) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func newFakeS3(t *testing.T, fake *fakeS3) config.MinIOConfig {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return config.MinIOConfig{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "models",
		Region:    "us-east-1",
		UseSSL:    false,
	}
}

func TestMinIOSink_Put(t *testing.T) {
	fake := &fakeS3{bucketExists: true}
	cfg := newFakeS3(t, fake)
	ctx := context.Background()

	sink, err := NewMinIO(ctx, cfg)
	require.NoError(t, err)

	data := []byte("wmh bytes")
	info, err := sink.Put(ctx, "props/chair.wmh", bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	assert.Equal(t, "s3://models/props/chair.wmh", info.Location)
	assert.Equal(t, int64(len(data)), info.Size)
	assert.Equal(t, "abc123", info.ETag)
	assert.Equal(t, []string{"HEAD /models", "PUT /models/props/chair.wmh"}, fake.calls())
}

func TestMinIOSink_CreatesBucket(t *testing.T) {
	fake := &fakeS3{bucketExists: false}
	cfg := newFakeS3(t, fake)

	_, err := NewMinIO(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"HEAD /models", "PUT /models"}, fake.calls())
}

func TestMinIOSink_PutFailure(t *testing.T) {
	fake := &fakeS3{bucketExists: true, putStatus: http.StatusForbidden}
	cfg := newFakeS3(t, fake)
	ctx := context.Background()

	sink, err := NewMinIO(ctx, cfg)
	require.NoError(t, err)

	_, err = sink.Put(ctx, "chair.wmh", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, ErrWriteFailed)
	assert.ErrorContains(t, err, "s3://models/chair.wmh")
}
