package blobstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

const defaultS3Region = "us-east-1"

// S3Config holds construction parameters for an S3-compatible store.
type S3Config struct {
	Region          string
	Bucket          string
	Endpoint        string // optional; custom endpoint such as MinIO
	AccessKeyID     string // optional; falls back to the default credentials chain
	SecretAccessKey string
	SessionToken    string
	PathStyle       bool
	PublicBaseURL   string // optional; prefix for returned file URLs (CDN, website endpoint)
}

// S3Store keeps folders as key prefixes in one bucket. Sharing a file sets
// its ACL to public-read.
type S3Store struct {
	client    *s3.Client
	bucket    string
	region    string
	endpoint  *url.URL
	pathStyle bool
	publicURL string
}

// NewS3Store creates an S3 store from cfg.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultS3Region
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newS3Store(client, cfg, region), nil
}

func newS3Store(client *s3.Client, cfg S3Config, region string) *S3Store {
	store := &S3Store{
		client:    client,
		bucket:    cfg.Bucket,
		region:    region,
		pathStyle: cfg.PathStyle,
		publicURL: strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/"),
	}
	if cfg.Endpoint != "" {
		if u, err := url.Parse(cfg.Endpoint); err == nil {
			store.endpoint = u
		}
	}
	return store
}

// Save uploads r under <folder>/<id>/<name>.
func (s *S3Store) Save(ctx context.Context, folder, name string, r io.Reader, opts SaveOptions) (StoredFile, error) {
	var zero StoredFile
	if s == nil || s.client == nil {
		return zero, fmt.Errorf("blob store is not configured")
	}
	if r == nil {
		return zero, fmt.Errorf("reader is required")
	}
	folder, err := cleanFolder(folder)
	if err != nil {
		return zero, err
	}
	name, err = cleanName(name)
	if err != nil {
		return zero, err
	}

	key := path.Join(folder, uuid.NewString(), name)
	input := &s3.PutObjectInput{Bucket: &s.bucket, Key: &key}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}

	// Seekable bodies keep the SDK on its signed-payload path; plain readers
	// are counted as they stream.
	var counter *countingReader
	if rs, ok := r.(io.ReadSeeker); ok {
		size, err := seekerSize(rs)
		if err != nil {
			return zero, err
		}
		input.Body = rs
		input.ContentLength = aws.Int64(size)
	} else {
		counter = &countingReader{r: r}
		input.Body = counter
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return zero, fmt.Errorf("put object %s: %w", key, err)
	}

	size := aws.ToInt64(input.ContentLength)
	if counter != nil {
		size = counter.n
	}
	return StoredFile{Key: key, Folder: folder, Name: name, SizeBytes: size, URL: s.URL(key)}, nil
}

// ShareAnyoneWithLink grants public read on the object.
func (s *S3Store) ShareAnyoneWithLink(ctx context.Context, key string) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("blob store is not configured")
	}
	_, err := s.client.PutObjectAcl(ctx, &s3.PutObjectAclInput{
		Bucket: &s.bucket,
		Key:    aws.String(key),
		ACL:    types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return fmt.Errorf("put object acl %s: %w", key, err)
	}
	return nil
}

// URL returns the public URL of key.
func (s *S3Store) URL(key string) string {
	escaped := escapeKey(key)
	switch {
	case s.publicURL != "":
		return s.publicURL + "/" + escaped
	case s.endpoint != nil:
		base := strings.TrimRight(s.endpoint.String(), "/")
		if s.pathStyle {
			return base + "/" + s.bucket + "/" + escaped
		}
		return s.endpoint.Scheme + "://" + s.bucket + "." + s.endpoint.Host + "/" + escaped
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, escaped)
	}
}

func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

func seekerSize(rs io.ReadSeeker) (int64, error) {
	current, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := rs.Seek(current, io.SeekStart); err != nil {
		return 0, err
	}
	return end - current, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
