package api

// ErrorResponse is the body of mux-level failures (unknown route, bad method).
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Envelope is the JSON body of every action response. Failures carry only
// OK=false and a message.
type Envelope[T any] struct {
	OK      bool    `json:"ok" yaml:"ok"`
	Message string  `json:"message,omitempty" yaml:"message,omitempty"`
	Token   string  `json:"token,omitempty" yaml:"token,omitempty"`
	EditURL *string `json:"editUrl,omitempty" yaml:"editUrl,omitempty"`
	Data    *T      `json:"data,omitempty" yaml:"data,omitempty"`
}

// RecordData is the mutable view of a record returned by create and update.
type RecordData struct {
	Name      string   `json:"name" yaml:"name"`
	Age       string   `json:"age" yaml:"age"`
	Gender    string   `json:"gender" yaml:"gender"`
	Notes     string   `json:"notes" yaml:"notes"`
	Photos    []string `json:"photos" yaml:"photos"`
	Videos    []string `json:"videos" yaml:"videos"`
	Documents []string `json:"documents" yaml:"documents"`
}

// RecordDetail is the full record returned by get.
type RecordDetail struct {
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Token     string `json:"token" yaml:"token"`

	RecordData `yaml:",inline"`
}

// StatusResponse is the body of GET /health.
type StatusResponse struct {
	Status string `json:"status"`
}

// Upload is one file sent with a create or update request. Field is the
// multipart field name: a category ("photos") or an indexed category ("photos[0]").
type Upload struct {
	Field       string
	Filename    string
	ContentType string
	Path        string
}

// CreateRequest describes a new record.
type CreateRequest struct {
	Name    string
	Age     string
	Gender  string
	Notes   string
	Uploads []Upload
}

// UpdateRequest describes a partial update. Nil scalars keep the stored value.
type UpdateRequest struct {
	Token   string
	Name    *string
	Age     *string
	Gender  *string
	Notes   *string
	Uploads []Upload
}
