package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// mockS3 is a fake S3 endpoint covering PutObject and PutObjectAcl.
type mockS3 struct {
	mu      sync.Mutex
	objects map[string]mockObject
	failACL bool
}

type mockObject struct {
	body        []byte
	contentType string
	acl         string
}

func (m *mockS3) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	if req.Method != http.MethodPut {
		return mockResponse(http.StatusNotImplemented), nil
	}
	if _, ok := req.URL.Query()["acl"]; ok {
		obj, exists := m.objects[key]
		if !exists {
			return mockResponse(http.StatusNotFound), nil
		}
		if m.failACL {
			return &http.Response{
				StatusCode: http.StatusForbidden,
				Body:       io.NopCloser(strings.NewReader("<Error><Code>AccessDenied</Code><Message>denied</Message></Error>")),
				Header:     http.Header{"Content-Type": {"application/xml"}},
			}, nil
		}
		obj.acl = req.Header.Get("X-Amz-Acl")
		m.objects[key] = obj
		return mockResponse(http.StatusOK), nil
	}

	body, _ := io.ReadAll(req.Body)
	if dec, ok := decodeChunked(body); ok {
		body = dec
	}
	m.objects[key] = mockObject{body: body, contentType: req.Header.Get("Content-Type")}
	resp := mockResponse(http.StatusOK)
	resp.Header.Set("ETag", "\"etag\"")
	return resp, nil
}

func (m *mockS3) object(key string) (mockObject, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	return obj, ok
}

func mockResponse(status int) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}
}

// decodeChunked unwraps a single-chunk aws-chunked payload: <hex>[;ext]\r\n<body>\r\n0...
func decodeChunked(b []byte) ([]byte, bool) {
	parts := strings.Split(string(b), "\r\n")
	if len(parts) < 3 {
		return nil, false
	}
	sizeField := strings.SplitN(parts[0], ";", 2)[0]
	var size int64
	if _, err := fmt.Sscanf(sizeField, "%x", &size); err != nil {
		return nil, false
	}
	if int64(len(parts[1])) != size || !strings.HasPrefix(parts[2], "0") {
		return nil, false
	}
	return []byte(parts[1]), true
}

func newMockS3Store(t *testing.T, cfg S3Config) (*S3Store, *mockS3) {
	t.Helper()
	rt := &mockS3{objects: make(map[string]mockObject)}
	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	if err != nil {
		t.Fatalf("load aws config: %v", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: rt}
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String("https://mock.s3.local")
	})
	if cfg.Bucket == "" {
		cfg.Bucket = "mock-bucket"
	}
	return newS3Store(client, cfg, "us-east-1"), rt
}

func TestS3StoreSaveAndShare(t *testing.T) {
	ctx := context.Background()
	store, rt := newMockS3Store(t, S3Config{})

	file, err := store.Save(ctx, "Photos", "scan.png", strings.NewReader("png-bytes"), SaveOptions{ContentType: "image/png"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if file.SizeBytes != int64(len("png-bytes")) {
		t.Fatalf("expected size %d, got %d", len("png-bytes"), file.SizeBytes)
	}
	if !strings.HasPrefix(file.Key, "Photos/") || !strings.HasSuffix(file.Key, "/scan.png") {
		t.Fatalf("unexpected key %q", file.Key)
	}
	obj, ok := rt.object(file.Key)
	if !ok {
		t.Fatalf("object %q not stored", file.Key)
	}
	if !strings.Contains(string(obj.body), "png-bytes") {
		t.Fatalf("unexpected stored body %q", string(obj.body))
	}
	if obj.contentType != "image/png" {
		t.Fatalf("expected image/png, got %q", obj.contentType)
	}

	if err := store.ShareAnyoneWithLink(ctx, file.Key); err != nil {
		t.Fatalf("share: %v", err)
	}
	obj, _ = rt.object(file.Key)
	if obj.acl != "public-read" {
		t.Fatalf("expected public-read acl, got %q", obj.acl)
	}
}

func TestS3StoreShareFailure(t *testing.T) {
	ctx := context.Background()
	store, rt := newMockS3Store(t, S3Config{})
	file, err := store.Save(ctx, "Documents", "a.pdf", strings.NewReader("pdf"), SaveOptions{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	rt.failACL = true
	if err := store.ShareAnyoneWithLink(ctx, file.Key); err == nil {
		t.Fatal("expected share error")
	}
}

func TestS3StoreURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
		want string
	}{
		{
			name: "aws default",
			cfg:  S3Config{Bucket: "clinic"},
			want: "https://clinic.s3.us-east-1.amazonaws.com/Photos/id/a%20b.jpg",
		},
		{
			name: "public base url",
			cfg:  S3Config{Bucket: "clinic", PublicBaseURL: "https://cdn.example.com/"},
			want: "https://cdn.example.com/Photos/id/a%20b.jpg",
		},
		{
			name: "path style endpoint",
			cfg:  S3Config{Bucket: "clinic", Endpoint: "http://minio:9000", PathStyle: true},
			want: "http://minio:9000/clinic/Photos/id/a%20b.jpg",
		},
		{
			name: "virtual host endpoint",
			cfg:  S3Config{Bucket: "clinic", Endpoint: "https://storage.example.com"},
			want: "https://clinic.storage.example.com/Photos/id/a%20b.jpg",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newS3Store(nil, tt.cfg, "us-east-1")
			if got := store.URL("Photos/id/a b.jpg"); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	if _, err := NewS3Store(context.Background(), S3Config{}); err == nil {
		t.Fatal("expected error without bucket")
	}
}
