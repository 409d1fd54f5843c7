package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 60 * time.Second
	httpTimeoutEnvKey  = "INTAKE_HTTP_TIMEOUT"
)

// Client is a simple HTTP client for the intake API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: httpTimeoutFromEnv()},
	}
}

// Ping checks whether the API server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	var status StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return err
	}
	if status.Status != "ok" {
		return fmt.Errorf("server not ready: %s", status.Status)
	}
	return nil
}

// Get fetches the record addressed by token.
func (c *Client) Get(ctx context.Context, token string) (Envelope[RecordDetail], error) {
	var env Envelope[RecordDetail]
	query := url.Values{"action": {"get"}, "token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+query.Encode(), nil)
	if err != nil {
		return env, err
	}
	err = c.do(req, &env)
	if err == nil && !env.OK {
		err = &APIError{Status: http.StatusOK, Message: env.Message}
	}
	return env, err
}

// Create submits a new record with its uploads.
func (c *Client) Create(ctx context.Context, in CreateRequest) (Envelope[RecordData], error) {
	var env Envelope[RecordData]
	fields := []formField{
		{"action", "create"},
		{"name", in.Name},
		{"age", in.Age},
		{"gender", in.Gender},
		{"notes", in.Notes},
	}
	err := c.postMultipart(ctx, fields, in.Uploads, &env)
	if err == nil && !env.OK {
		err = &APIError{Status: http.StatusOK, Message: env.Message}
	}
	return env, err
}

// Update changes the record addressed by in.Token. Only non-nil scalars are sent.
func (c *Client) Update(ctx context.Context, in UpdateRequest) (Envelope[RecordData], error) {
	var env Envelope[RecordData]
	fields := []formField{{"action", "update"}, {"token", in.Token}}
	for _, f := range []struct {
		name  string
		value *string
	}{
		{"name", in.Name},
		{"age", in.Age},
		{"gender", in.Gender},
		{"notes", in.Notes},
	} {
		if f.value != nil {
			fields = append(fields, formField{f.name, *f.value})
		}
	}
	err := c.postMultipart(ctx, fields, in.Uploads, &env)
	if err == nil && !env.OK {
		err = &APIError{Status: http.StatusOK, Message: env.Message}
	}
	return env, err
}

type formField struct {
	name  string
	value string
}

// postMultipart streams the form through a pipe so uploads are never held in memory.
func (c *Client) postMultipart(ctx context.Context, fields []formField, uploads []Upload, out any) error {
	for _, upload := range uploads {
		if strings.TrimSpace(upload.Path) == "" {
			return fmt.Errorf("upload %q: path is required", upload.Field)
		}
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(writer, fields, uploads))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/", pr)
	if err != nil {
		pr.Close()
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	err = c.do(req, out)
	pr.Close()
	return err
}

func writeForm(writer *multipart.Writer, fields []formField, uploads []Upload) error {
	for _, field := range fields {
		if err := writer.WriteField(field.name, field.value); err != nil {
			return err
		}
	}
	for _, upload := range uploads {
		if err := writeUpload(writer, upload); err != nil {
			return err
		}
	}
	return writer.Close()
}

func writeUpload(writer *multipart.Writer, upload Upload) error {
	f, err := os.Open(upload.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	filename := upload.Filename
	if filename == "" {
		filename = filepath.Base(upload.Path)
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(upload.Field), escapeQuotes(filename)))
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		return &APIError{Status: resp.StatusCode, Code: errResp.Code, Message: errResp.Error}
	}
	return &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("api error: %s", resp.Status)}
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}

	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultHTTPTimeout
}
