package quotepdf

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/lvillar/quotepdf/doctpl"
)

// TemplateSource resolves a template id. On any error the engine renders
// with the default template instead.
type TemplateSource interface {
	Get(ctx context.Context, id string) (*doctpl.Template, error)
}

// Option configures an Engine created with New.
type Option func(*Engine)

// WithTemplates sets where template ids are resolved, typically a
// *tplcache.Cache.
func WithTemplates(src TemplateSource) Option {
	return func(e *Engine) {
		e.templates = src
	}
}

// WithLogger sets the engine logger. It is also handed to the context
// builder and the renderer.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock replaces time.Now for document timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithDefaultLocale sets the locale used when a request names none.
func WithDefaultLocale(locale string) Option {
	return func(e *Engine) {
		if locale != "" {
			e.locale = locale
		}
	}
}

// WithBrandMarker sets the template-name marker that selects the branded
// header.
func WithBrandMarker(marker string) Option {
	return func(e *Engine) {
		e.renderOpts = append(e.renderOpts, doctpl.WithBrandMarker(marker))
	}
}

// WithCompression toggles PDF stream compression.
func WithCompression(on bool) Option {
	return func(e *Engine) {
		e.renderOpts = append(e.renderOpts, doctpl.WithCompression(on))
	}
}

// WithSurfaceFactory replaces the PDF drawing surface.
func WithSurfaceFactory(f doctpl.SurfaceFactory) Option {
	return func(e *Engine) {
		e.renderOpts = append(e.renderOpts, doctpl.WithSurfaceFactory(f))
	}
}

// WithTracerProvider sets the provider spans are created from. The global
// provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		if tp != nil {
			e.tracer = tp.Tracer(TracerName)
		}
	}
}
