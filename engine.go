// Package quotepdf turns a loosely-typed freight quote bundle into a
// paginated quotation PDF.
//
// An Engine resolves the template, builds a safectx.SafeContext from the
// bundle and renders both with doctpl:
//
//	cache := tplcache.New(tplstore.Chain{tplstore.NewDirStore("templates"), tplstore.Builtin{}})
//	engine := quotepdf.New(quotepdf.WithTemplates(cache))
//	doc, err := engine.Generate(ctx, quotepdf.Request{TemplateID: "mgl", Data: bundle})
//
// Invalid or missing templates fall back to the built-in default template.
// A section that fails to render is replaced by an error box; the document
// is still produced.
package quotepdf

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/lvillar/quotepdf/doctpl"
	"github.com/lvillar/quotepdf/i18n"
	"github.com/lvillar/quotepdf/safectx"
)

// TracerName names the tracer engine spans are created with.
const TracerName = "github.com/lvillar/quotepdf"

// Request describes one document to generate.
type Request struct {
	// TemplateID is resolved through the engine's TemplateSource. Empty
	// selects the built-in default template.
	TemplateID string
	// Template, when set, is used instead of TemplateID. It may be anything
	// doctpl.Validate accepts.
	Template any
	// Data is the upstream quote bundle.
	Data map[string]any
	// Locale overrides the engine default locale.
	Locale string
	// Strict builds the context with safectx.BuildStrict, so a quote without
	// charges fails instead of rendering.
	Strict bool
}

// Document is a generated PDF.
type Document struct {
	Bytes         []byte
	Pages         int
	Filename      string
	TemplateID    string
	QuoteNumber   string
	SectionErrors []*doctpl.SectionError
}

// Engine generates quotation documents. It is safe for concurrent use; every
// Generate call owns its own renderer and layout state.
type Engine struct {
	templates  TemplateSource
	logger     *zap.Logger
	now        func() time.Time
	locale     string
	tracer     trace.Tracer
	renderOpts []doctpl.Option
}

// New creates an Engine. Without WithTemplates only the built-in templates
// are reachable by id.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger: zap.NewNop(),
		now:    time.Now,
		locale: i18n.DefaultLocale,
		tracer: otel.GetTracerProvider().Tracer(TracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.templates == nil {
		e.templates = builtinSource{}
	}
	return e
}

// Generate renders req into a PDF.
func (e *Engine) Generate(ctx context.Context, req Request) (*Document, error) {
	ctx, span := e.tracer.Start(ctx, "quotepdf.generate",
		trace.WithAttributes(attribute.String("template.id", req.TemplateID)))
	defer span.End()

	doc, err := e.generate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("quote.number", doc.QuoteNumber),
		attribute.Int("document.pages", doc.Pages),
		attribute.Int("document.section_errors", len(doc.SectionErrors)),
	)
	span.SetStatus(codes.Ok, "")
	return doc, nil
}

func (e *Engine) generate(ctx context.Context, req Request) (*Document, error) {
	tpl := e.ResolveTemplate(ctx, req)

	locale := req.Locale
	if locale == "" {
		locale = e.locale
	}
	sc, err := e.BuildContext(req.Data, locale, req.Strict)
	if err != nil {
		return nil, newError("build_context", err)
	}

	opts := append([]doctpl.Option{
		doctpl.WithLogger(e.logger.With(zap.String("template_id", tpl.ID), zap.String("quote_number", sc.Quote.Number))),
		doctpl.WithClock(e.now),
	}, e.renderOpts...)
	pdf, report, err := doctpl.NewRenderer(tpl, sc, opts...).RenderBytes()
	if err != nil {
		return nil, newError("render", fmt.Errorf("%w: %w", ErrRender, err))
	}

	return &Document{
		Bytes:         pdf,
		Pages:         report.Pages,
		Filename:      Filename(sc.Quote.Number),
		TemplateID:    tpl.ID,
		QuoteNumber:   sc.Quote.Number,
		SectionErrors: report.SectionErrors,
	}, nil
}

// ResolveTemplate returns the validated template for req. Anything that
// cannot be loaded or validated is replaced by the built-in default
// template, with a warning.
func (e *Engine) ResolveTemplate(ctx context.Context, req Request) *doctpl.Template {
	var raw any
	id := req.TemplateID
	switch {
	case req.Template != nil:
		raw = req.Template
		id = "inline"
	case id != "":
		tpl, err := e.templates.Get(ctx, id)
		switch {
		case errors.Is(err, doctpl.ErrValidation):
			e.logger.Warn("template validation failed, using default template",
				zap.String("template_id", id), zap.Error(err))
			return doctpl.DefaultTemplate()
		case err != nil:
			e.logger.Warn("template not found, using default template",
				zap.String("template_id", id), zap.Error(err))
			return doctpl.DefaultTemplate()
		}
		raw = tpl
	}
	if raw == nil {
		return doctpl.DefaultTemplate()
	}

	tpl, err := doctpl.Validate(raw)
	if err != nil {
		e.logger.Warn("template validation failed, using default template",
			zap.String("template_id", id), zap.Error(err))
		return doctpl.DefaultTemplate()
	}
	if tpl.ID == "" {
		tpl.ID = id
	}
	return tpl
}

// BuildContext maps data into a SafeContext, strictly or permissively.
func (e *Engine) BuildContext(data map[string]any, locale string, strict bool) (safectx.SafeContext, error) {
	opts := []safectx.Option{safectx.WithClock(e.now), safectx.WithLogger(e.logger)}
	if strict {
		return safectx.BuildStrict(data, locale, opts...)
	}
	return safectx.Build(data, locale, opts...), nil
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename is the suggested download name for a quote number:
// "quote_<number>.pdf", or "quote_draft.pdf" when there is none.
func Filename(number string) string {
	number = strings.TrimSpace(number)
	if number == "" || strings.EqualFold(number, safectx.DefaultQuoteNumber) {
		number = "draft"
	}
	number = strings.Trim(unsafeFilename.ReplaceAllString(number, "-"), "-")
	if number == "" {
		number = "draft"
	}
	return "quote_" + number + ".pdf"
}

type builtinSource struct{}

func (builtinSource) Get(_ context.Context, id string) (*doctpl.Template, error) {
	return doctpl.Builtin(id)
}
