package quotepdf_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lvillar/quotepdf"
	"github.com/lvillar/quotepdf/doctpl"
	"github.com/lvillar/quotepdf/tplcache"
	"github.com/lvillar/quotepdf/tplstore"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func bundle() map[string]any {
	return map[string]any{
		"quote":    map[string]any{"quote_number": "Q-7", "currency": "usd"},
		"customer": map[string]any{"name": "Acme Corp"},
		"charges": []any{
			map[string]any{"desc": "Ocean Freight", "total": 2000, "curr": "USD"},
			map[string]any{"desc": "BAF", "total": 150, "curr": "USD"},
		},
	}
}

func newEngine(opts ...quotepdf.Option) *quotepdf.Engine {
	opts = append([]quotepdf.Option{
		quotepdf.WithClock(func() time.Time { return fixedNow }),
		quotepdf.WithCompression(false),
	}, opts...)
	return quotepdf.New(opts...)
}

func TestGenerateDefaultTemplate(t *testing.T) {
	doc, err := newEngine().Generate(context.Background(), quotepdf.Request{Data: bundle()})
	require.NoError(t, err)

	assert.Equal(t, doctpl.BuiltinDefault, doc.TemplateID)
	assert.Equal(t, "Q-7", doc.QuoteNumber)
	assert.Equal(t, "quote_Q-7.pdf", doc.Filename)
	assert.Equal(t, 1, doc.Pages)
	assert.Empty(t, doc.SectionErrors)
	assert.Equal(t, "%PDF", string(doc.Bytes[:4]))
	assert.Contains(t, string(doc.Bytes), "(Total: 2150.00) Tj")
}

func TestGenerateTemplateFromCache(t *testing.T) {
	cache := tplcache.New(tplstore.Builtin{})
	e := newEngine(quotepdf.WithTemplates(cache))

	doc, err := e.Generate(context.Background(), quotepdf.Request{TemplateID: doctpl.BuiltinMGL, Data: bundle()})
	require.NoError(t, err)
	assert.Equal(t, doctpl.BuiltinMGL, doc.TemplateID)
	assert.Contains(t, string(doc.Bytes), "(MIAMI GLOBAL LINES) Tj")

	_, err = e.Generate(context.Background(), quotepdf.Request{TemplateID: doctpl.BuiltinMGL, Data: bundle()})
	require.NoError(t, err)
	assert.Equal(t, tplcache.Stats{Hits: 1, Misses: 1}, cache.Stats())
}

func TestGenerateInvalidTemplateFallsBack(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	e := newEngine(quotepdf.WithLogger(zap.New(core)))

	doc, err := e.Generate(context.Background(), quotepdf.Request{
		Template: `{"sections": [{"type": "dynamic_table"}]}`,
		Data:     bundle(),
	})
	require.NoError(t, err)
	assert.Equal(t, doctpl.BuiltinDefault, doc.TemplateID)

	entries := logs.FilterMessage("template validation failed, using default template").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "inline", entries[0].ContextMap()["template_id"])
}

func TestGenerateStoredInvalidTemplateFallsBack(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	store := tplstore.NewFSStore(fstest.MapFS{
		"broken.json": {Data: []byte(`{"sections": [{"type": "dynamic_table"}]}`)},
	})
	e := newEngine(
		quotepdf.WithLogger(log),
		quotepdf.WithTemplates(tplcache.New(store, tplcache.WithLogger(log))),
	)

	doc, err := e.Generate(context.Background(), quotepdf.Request{TemplateID: "broken", Data: bundle()})
	require.NoError(t, err)
	assert.Equal(t, doctpl.BuiltinDefault, doc.TemplateID)

	entries := logs.FilterMessage("template validation failed, using default template").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "broken", entries[0].ContextMap()["template_id"])
	assert.Zero(t, logs.FilterMessage("template not found, using default template").Len())
	assert.Zero(t, logs.FilterMessage("template fetch failed").Len())
}

func TestGenerateUnknownTemplateFallsBack(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	e := newEngine(quotepdf.WithLogger(zap.New(core)))

	doc, err := e.Generate(context.Background(), quotepdf.Request{TemplateID: "nope", Data: bundle()})
	require.NoError(t, err)
	assert.Equal(t, doctpl.BuiltinDefault, doc.TemplateID)
	assert.Equal(t, 1, logs.FilterMessage("template not found, using default template").Len())
}

func TestGenerateInlineTemplate(t *testing.T) {
	doc, err := newEngine().Generate(context.Background(), quotepdf.Request{
		Template: map[string]any{
			"id":   "custom",
			"name": "Custom",
			"sections": []any{
				map[string]any{"type": "static_block", "content": map[string]any{"text": "Inline body"}},
			},
		},
		Data: bundle(),
	})
	require.NoError(t, err)
	assert.Equal(t, "custom", doc.TemplateID)
	assert.Contains(t, string(doc.Bytes), "(Inline body) Tj")
}

func TestGenerateStrict(t *testing.T) {
	e := newEngine()
	data := bundle()
	data["charges"] = []any{}

	// permissive builds render an empty charges table
	doc, err := e.Generate(context.Background(), quotepdf.Request{Data: data})
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Bytes)

	_, err = e.Generate(context.Background(), quotepdf.Request{Data: data, Strict: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, quotepdf.ErrNoCharges)

	var qerr *quotepdf.Error
	require.True(t, errors.As(err, &qerr))
	assert.Equal(t, "build_context", qerr.Op)
}

func TestGenerateLocale(t *testing.T) {
	doc, err := newEngine(quotepdf.WithDefaultLocale("de-DE")).Generate(context.Background(), quotepdf.Request{Data: bundle()})
	require.NoError(t, err)
	assert.Contains(t, string(doc.Bytes), "(Beschreibung) Tj")

	doc, err = newEngine(quotepdf.WithDefaultLocale("de-DE")).Generate(context.Background(), quotepdf.Request{Data: bundle(), Locale: "es-ES"})
	require.NoError(t, err)
	assert.Contains(t, string(doc.Bytes), "(Importe) Tj")
}

// brokenOutput is an fpdf surface whose output always fails.
type brokenOutput struct {
	*doctpl.FpdfSurface
}

func (brokenOutput) Output(io.Writer) error { return errors.New("disk full") }

func TestGenerateRenderFailure(t *testing.T) {
	e := newEngine(quotepdf.WithSurfaceFactory(func(cfg doctpl.Config) doctpl.Surface {
		return brokenOutput{doctpl.NewFpdfSurface(cfg.PageSize, cfg.FontFamily, false)}
	}))
	_, err := e.Generate(context.Background(), quotepdf.Request{Data: bundle()})
	require.Error(t, err)
	assert.ErrorIs(t, err, quotepdf.ErrRender)
	assert.Contains(t, err.Error(), "disk full")
}

func TestGenerateSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	e := newEngine(quotepdf.WithTracerProvider(tp))

	_, err := e.Generate(context.Background(), quotepdf.Request{Data: bundle()})
	require.NoError(t, err)
	_, err = e.Generate(context.Background(), quotepdf.Request{Data: map[string]any{}, Strict: true})
	require.Error(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "quotepdf.generate", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.Int("document.pages", 1))
	assert.Contains(t, spans[0].Attributes(), attribute.String("quote.number", "Q-7"))
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestFilename(t *testing.T) {
	tests := map[string]string{
		"Q-7":          "quote_Q-7.pdf",
		"":             "quote_draft.pdf",
		"DRAFT":        "quote_draft.pdf",
		"  MGL/2026/1": "quote_MGL-2026-1.pdf",
		"///":          "quote_draft.pdf",
	}
	for in, want := range tests {
		assert.Equal(t, want, quotepdf.Filename(in), in)
	}
}

func TestErrorFormatting(t *testing.T) {
	err := &quotepdf.Error{Op: "render", Err: quotepdf.ErrStorage}
	assert.Equal(t, "quotepdf.render: quotepdf: storage failed", err.Error())
	assert.ErrorIs(t, err, quotepdf.ErrStorage)
	assert.Equal(t, "quotepdf.render: unknown error", (&quotepdf.Error{Op: "render"}).Error())
}
