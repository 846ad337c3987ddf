package archive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zombar/contentlens/internal/models"
)

func TestNewValidation(t *testing.T) {
	valid := Config{Endpoint: "localhost:9000", AccessKey: "key", SecretKey: "secret", Bucket: "reports"}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing endpoint", func(c *Config) { c.Endpoint = " " }, "endpoint is required"},
		{"missing secret", func(c *Config) { c.SecretKey = "" }, "access key and secret key are required"},
		{"missing bucket", func(c *Config) { c.Bucket = "" }, "bucket is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			a, err := New(cfg)
			if tt.errMsg != "" {
				assert.ErrorContains(t, err, tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "reports", a.Bucket())
			assert.Equal(t, "us-east-1", a.region)
		})
	}
}

func TestObjectKey(t *testing.T) {
	created := time.Date(2026, 3, 9, 23, 30, 0, 0, time.FixedZone("PST", -8*3600))
	// Keys are partitioned by UTC month
	assert.Equal(t, "reports/2026/03/abc.json", ObjectKey("abc", created))
	assert.Equal(t, "reports/2025/12/x.json", ObjectKey("x", time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)))
}

// fakeBucketServer answers the bucket-level calls made by EnsureBucket
type fakeBucketServer struct {
	mu      sync.Mutex
	buckets map[string]bool
	created []string
}

func (f *fakeBucketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket := strings.Trim(r.URL.Path, "/")
	switch r.Method {
	case http.MethodHead:
		if f.buckets[bucket] {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	case http.MethodPut:
		f.buckets[bucket] = true
		f.created = append(f.created, bucket)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestArchive(t *testing.T, fake *fakeBucketServer) *Archive {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	a, err := New(Config{
		Endpoint:  strings.TrimPrefix(server.URL, "http://"),
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "contentlens-reports",
	})
	require.NoError(t, err)
	return a
}

func TestEnsureBucketCreatesMissingBucket(t *testing.T) {
	fake := &fakeBucketServer{buckets: map[string]bool{}}
	a := newTestArchive(t, fake)

	require.NoError(t, a.EnsureBucket(context.Background()))
	require.NoError(t, a.EnsureBucket(context.Background()))

	assert.Equal(t, []string{"contentlens-reports"}, fake.created)
}

func TestEnsureBucketExisting(t *testing.T) {
	fake := &fakeBucketServer{buckets: map[string]bool{"contentlens-reports": true}}
	a := newTestArchive(t, fake)

	require.NoError(t, a.EnsureBucket(context.Background()))
	assert.Empty(t, fake.created)
	assert.NoError(t, a.Ping(context.Background()))
}

func TestPutReportRequiresReport(t *testing.T) {
	a, err := New(Config{Endpoint: "localhost:9000", AccessKey: "k", SecretKey: "s", Bucket: "b"})
	require.NoError(t, err)

	err = a.PutReport(context.Background(), &models.Analysis{ID: "a1"})
	assert.ErrorContains(t, err, "has no report")
}
