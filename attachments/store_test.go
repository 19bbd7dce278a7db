package attachments

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jai-platform/jai-api/config"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		suffix string
	}{
		{"plain", "contract.pdf", "-contract.pdf"},
		{"spaces", "my lease v2.pdf", "-my_lease_v2.pdf"},
		{"traversal", "../../etc/passwd", "-passwd"},
		{"empty", "", "-file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := ObjectKey("req1", tt.file)
			assert.True(t, strings.HasPrefix(key, "requests/req1/"), key)
			assert.True(t, strings.HasSuffix(key, tt.suffix), key)
			assert.NotContains(t, strings.TrimPrefix(key, "requests/req1/"), "/")
		})
	}
	assert.NotEqual(t, ObjectKey("req1", "a.pdf"), ObjectKey("req1", "a.pdf"))
}

// fakeS3 answers the bucket and object calls MinioStore makes
func fakeS3(t *testing.T, bucketExists bool) (*httptest.Server, *[]string) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// bucket calls come with a trailing slash
		path := strings.TrimSuffix(r.URL.Path, "/")
		calls = append(calls, r.Method+" "+path)
		switch {
		case r.Method == http.MethodHead && path == "/attachments":
			if !bucketExists {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPut && path == "/attachments":
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPut:
			_, _ = io.Copy(io.Discard, r.Body)
			w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotImplemented)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestMinio(t *testing.T, srv *httptest.Server) *MinioStore {
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	s, err := NewMinioStore(config.MinioConfig{
		Endpoint:  u.Host,
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "attachments",
		Region:    "us-east-1",
	})
	require.NoError(t, err)
	return s
}

func TestMinioStore_EnsureBucket(t *testing.T) {
	srv, calls := fakeS3(t, false)
	s := newTestMinio(t, srv)

	require.NoError(t, s.EnsureBucket(context.Background()))
	assert.Equal(t, []string{"HEAD /attachments", "PUT /attachments"}, *calls)
}

func TestMinioStore_Upload(t *testing.T) {
	srv, calls := fakeS3(t, true)
	s := newTestMinio(t, srv)

	body := "%PDF-1.4"
	link, err := s.Upload(context.Background(), "requests/r1/abc-contract.pdf", "application/pdf", strings.NewReader(body), int64(len(body)))
	require.NoError(t, err)

	assert.Contains(t, *calls, "PUT /attachments/requests/r1/abc-contract.pdf")
	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/attachments/requests/r1/abc-contract.pdf", u.Path)
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestCloudinaryStore_Upload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1_1/demo/auto/upload", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"public_id":"jai/attachments/x","secure_url":"https://res.cloudinary.com/demo/raw/upload/x.pdf"}`))
	}))
	defer srv.Close()

	s, err := NewCloudinaryStore(config.CloudinaryConfig{CloudName: "demo", APIKey: "key", APISecret: "secret", Folder: "jai/attachments"})
	require.NoError(t, err)
	s.cld.Upload.Config.API.UploadPrefix = srv.URL

	link, err := s.Upload(context.Background(), "requests/r1/abc-contract.pdf", "application/pdf", strings.NewReader("%PDF"), 4)
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/raw/upload/x.pdf", link)
}

func TestCloudinaryStore_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid file"}}`))
	}))
	defer srv.Close()

	s, err := NewCloudinaryStore(config.CloudinaryConfig{CloudName: "demo", APIKey: "key", APISecret: "secret"})
	require.NoError(t, err)
	s.cld.Upload.Config.API.UploadPrefix = srv.URL

	_, err = s.Upload(context.Background(), "k", "", strings.NewReader("x"), 1)
	assert.Error(t, err)
}
