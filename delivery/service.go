// Package delivery loads quotes from the database, renders them with a
// quotepdf.Engine and hands the document out either as a stored object or
// inline as base64.
package delivery

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/lvillar/quotepdf"
)

// TracerName names the tracer delivery spans are created with.
const TracerName = "github.com/lvillar/quotepdf/delivery"

var (
	ErrMissingQuoteID = errors.New("delivery: quote id is required")
	ErrNoObjectStore  = errors.New("delivery: no object store configured")
)

// Generator renders a document. *quotepdf.Engine implements it.
type Generator interface {
	Generate(ctx context.Context, req quotepdf.Request) (*quotepdf.Document, error)
}

// Request selects the quote to render and how.
type Request struct {
	QuoteID    string
	VersionID  string
	TemplateID string
	Locale     string
	// Strict rejects quotes without sell-side charges instead of rendering
	// an empty price table.
	Strict bool
	// IdempotencyKey is copied into the audit event. One is generated when
	// empty.
	IdempotencyKey string
}

// StoredDocument is the result of GenerateToStorage.
type StoredDocument struct {
	Path        string `json:"path"`
	Filename    string `json:"filename"`
	QuoteNumber string `json:"quote_number"`
	Pages       int    `json:"pages"`
}

// InlineDocument is the result of GenerateInline.
type InlineDocument struct {
	Content  string `json:"content"`
	Filename string `json:"filename"`
	Pages    int    `json:"pages"`
}

// Service ties a quote source, the engine and the object store together.
type Service struct {
	engine   Generator
	source   QuoteSource
	store    ObjectStore
	versions VersionRecorder
	audit    AuditLog
	logger   *zap.Logger
	now      func() time.Time
	tracer   trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now for storage paths.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithObjectStore enables GenerateToStorage.
func WithObjectStore(store ObjectStore) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithVersionRecorder writes stored paths back onto quotation versions.
func WithVersionRecorder(v VersionRecorder) Option {
	return func(s *Service) {
		s.versions = v
	}
}

// WithAuditLog records a PdfGenerated event after every document.
func WithAuditLog(a AuditLog) Option {
	return func(s *Service) {
		s.audit = a
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) {
		if tp != nil {
			s.tracer = tp.Tracer(TracerName)
		}
	}
}

// NewService creates a Service rendering with engine the bundles loaded from
// source.
func NewService(engine Generator, source QuoteSource, opts ...Option) *Service {
	s := &Service{
		engine: engine,
		source: source,
		logger: zap.NewNop(),
		now:    time.Now,
		tracer: otel.GetTracerProvider().Tracer(TracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateToStorage renders the quote, uploads it under StoragePath and
// records the path on the version.
func (s *Service) GenerateToStorage(ctx context.Context, req Request) (*StoredDocument, error) {
	ctx, span := s.start(ctx, "delivery.generate_to_storage", req)
	defer span.End()

	out, err := s.generateToStorage(ctx, req)
	if err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.String("storage.path", out.Path), attribute.Int("document.pages", out.Pages))
	span.SetStatus(codes.Ok, "")
	return out, nil
}

func (s *Service) generateToStorage(ctx context.Context, req Request) (*StoredDocument, error) {
	if s.store == nil {
		return nil, ErrNoObjectStore
	}
	doc, err := s.generate(ctx, req)
	if err != nil {
		return nil, err
	}

	path := StoragePath(req.QuoteID, req.VersionID, s.now())
	if err := s.store.Put(ctx, path, doc.Bytes, ContentTypePDF); err != nil {
		return nil, &quotepdf.Error{Op: "upload", Err: fmt.Errorf("%w: %w", quotepdf.ErrStorage, err)}
	}
	if req.VersionID != "" && s.versions != nil {
		if err := s.versions.SetPDFPath(ctx, req.VersionID, path); err != nil {
			return nil, &quotepdf.Error{Op: "record_version", Err: fmt.Errorf("%w: %w", quotepdf.ErrStorage, err)}
		}
	}
	s.logger.Info("pdf stored",
		zap.String("quote_id", req.QuoteID),
		zap.String("path", path),
		zap.Int("pages", doc.Pages))

	s.record(ctx, req, doc, path)
	return &StoredDocument{
		Path:        path,
		Filename:    doc.Filename,
		QuoteNumber: doc.QuoteNumber,
		Pages:       doc.Pages,
	}, nil
}

// GenerateInline renders the quote and returns it base64 encoded.
func (s *Service) GenerateInline(ctx context.Context, req Request) (*InlineDocument, error) {
	ctx, span := s.start(ctx, "delivery.generate_inline", req)
	defer span.End()

	doc, err := s.generate(ctx, req)
	if err != nil {
		return nil, fail(span, err)
	}
	s.record(ctx, req, doc, "")
	span.SetAttributes(attribute.Int("document.pages", doc.Pages))
	span.SetStatus(codes.Ok, "")
	return &InlineDocument{
		Content:  base64.StdEncoding.EncodeToString(doc.Bytes),
		Filename: doc.Filename,
		Pages:    doc.Pages,
	}, nil
}

func (s *Service) generate(ctx context.Context, req Request) (*quotepdf.Document, error) {
	if req.QuoteID == "" {
		return nil, ErrMissingQuoteID
	}
	s.logger.Info("generating pdf", zap.String("quote_id", req.QuoteID), zap.String("version_id", req.VersionID))

	data, err := s.source.Load(ctx, req.QuoteID, req.VersionID)
	if err != nil {
		return nil, &quotepdf.Error{Op: "load_quote", Err: err}
	}
	return s.engine.Generate(ctx, quotepdf.Request{
		TemplateID: req.TemplateID,
		Data:       data,
		Locale:     req.Locale,
		Strict:     req.Strict,
	})
}

// record writes the audit event. A failed write is logged and dropped.
func (s *Service) record(ctx context.Context, req Request, doc *quotepdf.Document, path string) {
	if s.audit == nil {
		return
	}
	key := req.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	ev := AuditEvent{
		Event:          EventPdfGenerated,
		QuoteID:        req.QuoteID,
		VersionID:      req.VersionID,
		Path:           path,
		TemplateID:     doc.TemplateID,
		IdempotencyKey: key,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		ev.TraceID = sc.TraceID().String()
	}
	if err := s.audit.Record(ctx, ev); err != nil {
		s.logger.Warn("audit write failed", zap.String("quote_id", req.QuoteID), zap.Error(err))
	}
}

func (s *Service) start(ctx context.Context, name string, req Request) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("quote.id", req.QuoteID),
		attribute.String("quote.version_id", req.VersionID),
		attribute.String("template.id", req.TemplateID),
	))
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
