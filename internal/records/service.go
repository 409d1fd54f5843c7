package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"intake/internal/api"
	"intake/internal/models"
)

const (
	MessageSaved        = "Saved successfully"
	MessageUpdated      = "Updated successfully"
	MessageInvalidToken = "Invalid token"
)

// CreateInput carries a new record. BaseURL is the public address used to
// build the edit link; empty yields an empty edit link.
type CreateInput struct {
	Name    string
	Age     string
	Gender  string
	Notes   string
	Files   []FilePart
	BaseURL string
}

// UpdateInput carries a partial update. Absent scalars keep their stored
// value; a present empty string clears it.
type UpdateInput struct {
	Token  string
	Name   models.Optional[string]
	Age    models.Optional[string]
	Gender models.Optional[string]
	Notes  models.Optional[string]
	Files  []FilePart
}

// Service runs the record lifecycle against a table and a folder store. It
// holds no per-record state between calls.
type Service struct {
	adapter   *Adapter
	collector *Collector
	logger    *slog.Logger
	now       func() time.Time
	newToken  func() string
}

// NewService constructs a Service.
func NewService(adapter *Adapter, collector *Collector, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		adapter:   adapter,
		collector: collector,
		logger:    logger.With("component", "records"),
		now:       time.Now,
		newToken:  uuid.NewString,
	}
}

// Create stores the uploads, appends a new row and returns its token.
func (s *Service) Create(ctx context.Context, in CreateInput) api.Envelope[api.RecordData] {
	rec, err := s.create(ctx, in)
	if err != nil {
		s.logger.Error("create record failed", "error", err)
		return api.Envelope[api.RecordData]{OK: false, Message: err.Error()}
	}
	editURL := EditURL(in.BaseURL, rec.Token)
	data := recordData(rec)
	return api.Envelope[api.RecordData]{
		OK:      true,
		Message: MessageSaved,
		Token:   rec.Token,
		EditURL: &editURL,
		Data:    &data,
	}
}

func (s *Service) create(ctx context.Context, in CreateInput) (models.Record, error) {
	cm, err := s.adapter.ColumnMap(ctx)
	if err != nil {
		return models.Record{}, err
	}
	if cm.Width() == 0 {
		return models.Record{}, fmt.Errorf("record table has no header row")
	}

	rec := models.Record{
		Name:   strings.TrimSpace(in.Name),
		Age:    strings.TrimSpace(in.Age),
		Gender: strings.TrimSpace(in.Gender),
		Notes:  strings.TrimSpace(in.Notes),
	}
	for _, category := range models.Categories {
		urls, err := s.collector.Collect(ctx, in.Files, category)
		if err != nil {
			return models.Record{}, err
		}
		rec.SetLinks(category, urls)
	}

	rec.Token = s.newToken()
	rec.Timestamp = s.now().UTC().Format(models.TimestampLayout)

	row := cm.NewRow()
	fillRow(cm, row, rec)
	if err := s.adapter.AppendRow(ctx, row); err != nil {
		return models.Record{}, err
	}
	s.logger.Debug("record created", "token", rec.Token, "photos", len(rec.Photos), "videos", len(rec.Videos), "documents", len(rec.Documents))
	return rec, nil
}

// Update applies a partial update to the record addressed by in.Token. A
// category with at least one new upload has its links replaced; the others
// keep their stored links.
func (s *Service) Update(ctx context.Context, in UpdateInput) api.Envelope[api.RecordData] {
	rec, err := s.update(ctx, in)
	if errors.Is(err, ErrInvalidToken) {
		return api.Envelope[api.RecordData]{OK: false, Message: MessageInvalidToken}
	}
	if err != nil {
		s.logger.Error("update record failed", "error", err)
		return api.Envelope[api.RecordData]{OK: false, Message: err.Error()}
	}
	data := recordData(rec)
	return api.Envelope[api.RecordData]{OK: true, Message: MessageUpdated, Data: &data}
}

func (s *Service) update(ctx context.Context, in UpdateInput) (models.Record, error) {
	token := strings.TrimSpace(in.Token)
	if token == "" {
		return models.Record{}, ErrInvalidToken
	}
	cm, err := s.adapter.ColumnMap(ctx)
	if err != nil {
		return models.Record{}, err
	}
	rowIndex, err := s.adapter.FindByToken(ctx, cm, token)
	if err != nil {
		return models.Record{}, err
	}
	row, err := s.adapter.ReadRow(ctx, rowIndex)
	if err != nil {
		return models.Record{}, err
	}
	rec := recordFromRow(cm, row)

	scalars := []struct {
		field string
		value models.Optional[string]
		dst   *string
	}{
		{models.FieldPatientName, in.Name, &rec.Name},
		{models.FieldAge, in.Age, &rec.Age},
		{models.FieldGender, in.Gender, &rec.Gender},
		{models.FieldNotes, in.Notes, &rec.Notes},
	}
	for _, sc := range scalars {
		value, ok := sc.value.Get()
		if !ok {
			continue
		}
		*sc.dst = value
		cm.Set(row, sc.field, value)
	}

	for _, category := range models.Categories {
		urls, err := s.collector.Collect(ctx, in.Files, category)
		if err != nil {
			return models.Record{}, err
		}
		if len(urls) == 0 {
			continue
		}
		rec.SetLinks(category, urls)
		cm.Set(row, models.LinkField(category), models.JoinLinks(urls))
	}

	if err := s.adapter.WriteRow(ctx, rowIndex, row); err != nil {
		return models.Record{}, err
	}
	s.logger.Debug("record updated", "token", token, "row", rowIndex)
	return rec, nil
}

// Get returns the record addressed by token.
func (s *Service) Get(ctx context.Context, token string) api.Envelope[api.RecordDetail] {
	rec, err := s.get(ctx, strings.TrimSpace(token))
	if errors.Is(err, ErrInvalidToken) {
		return api.Envelope[api.RecordDetail]{OK: false, Message: MessageInvalidToken}
	}
	if err != nil {
		s.logger.Error("get record failed", "error", err)
		return api.Envelope[api.RecordDetail]{OK: false, Message: err.Error()}
	}
	detail := api.RecordDetail{Timestamp: rec.Timestamp, Token: rec.Token, RecordData: recordData(rec)}
	return api.Envelope[api.RecordDetail]{OK: true, Data: &detail}
}

func (s *Service) get(ctx context.Context, token string) (models.Record, error) {
	if token == "" {
		return models.Record{}, ErrInvalidToken
	}
	cm, err := s.adapter.ColumnMap(ctx)
	if err != nil {
		return models.Record{}, err
	}
	rowIndex, err := s.adapter.FindByToken(ctx, cm, token)
	if err != nil {
		return models.Record{}, err
	}
	row, err := s.adapter.ReadRow(ctx, rowIndex)
	if err != nil {
		return models.Record{}, err
	}
	return recordFromRow(cm, row), nil
}

// EditURL builds the link a client uses to reopen a record. An empty base
// yields "".
func EditURL(base, token string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	return base + "?token=" + url.QueryEscape(token)
}

func recordData(rec models.Record) api.RecordData {
	return api.RecordData{
		Name:      rec.Name,
		Age:       rec.Age,
		Gender:    rec.Gender,
		Notes:     rec.Notes,
		Photos:    nonNil(rec.Photos),
		Videos:    nonNil(rec.Videos),
		Documents: nonNil(rec.Documents),
	}
}

func nonNil(links []string) []string {
	if links == nil {
		return []string{}
	}
	return links
}
