package doctpl

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/lvillar/quotepdf/i18n"
	"github.com/lvillar/quotepdf/safectx"
	"github.com/lvillar/quotepdf/table"
)

// Layout constants.
const (
	// sectionFitThreshold is the space above the bottom margin a section
	// needs to start on the current page.
	sectionFitThreshold = 50.0
	defaultAdvance      = 20.0
	errorBoxHeight      = 40.0
	errorBoxAdvance     = 50.0
	maxErrorMessage     = 100

	DefaultBrandMarker = "MGL"
	DefaultProducer    = "Nexus Quotation Engine V2"
	DefaultAuthor      = "Nexus System"
)

// SurfaceFactory creates the drawing surface for one render call.
type SurfaceFactory func(cfg Config) Surface

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock sets the clock used for document timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		if now != nil {
			r.now = now
		}
	}
}

// WithBrandMarker sets the template-name marker that selects the branded
// header layout.
func WithBrandMarker(marker string) Option {
	return func(r *Renderer) {
		r.brandMarker = marker
	}
}

// WithCompression toggles stream compression in the default fpdf surface.
func WithCompression(on bool) Option {
	return func(r *Renderer) {
		r.compress = on
	}
}

// WithSurfaceFactory replaces the fpdf surface, e.g. with a recording fake.
func WithSurfaceFactory(f SurfaceFactory) Option {
	return func(r *Renderer) {
		if f != nil {
			r.newSurface = f
		}
	}
}

// LayoutState is the page and cursor state of one render call. The cursor
// only moves down within a page.
type LayoutState struct {
	Page       int
	Cursor     float64
	PageWidth  float64
	PageHeight float64
	Margins    Margins
}

// ContentWidth is the page width between the side margins.
func (s *LayoutState) ContentWidth() float64 {
	return s.PageWidth - s.Margins.Left - s.Margins.Right
}

// Fits reports whether h points are left above the bottom margin.
func (s *LayoutState) Fits(h float64) bool {
	return s.Cursor >= s.Margins.Bottom+h
}

// SectionError records a section that failed to render. The document still
// contains an error box in its place.
type SectionError struct {
	Index int
	Type  SectionType
	Err   error
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("section #%d [%s]: %v", e.Index, e.Type, e.Err)
}

func (e *SectionError) Unwrap() error { return e.Err }

// Report summarizes a render call.
type Report struct {
	Pages         int
	SectionErrors []*SectionError
}

// Renderer lays out a Template filled with a SafeContext.
type Renderer struct {
	tpl         *Template
	ctx         safectx.SafeContext
	i18n        *i18n.Engine
	logger      *zap.Logger
	now         func() time.Time
	brandMarker string
	compress    bool
	newSurface  SurfaceFactory

	surface Surface
	state   *LayoutState
	logo    *Logo
	logoErr error
}

// NewRenderer creates a renderer for tpl and sc. tpl is expected to have
// passed Validate.
func NewRenderer(tpl *Template, sc safectx.SafeContext, opts ...Option) *Renderer {
	r := &Renderer{
		tpl:         tpl,
		ctx:         sc,
		logger:      zap.NewNop(),
		now:         time.Now,
		brandMarker: DefaultBrandMarker,
		compress:    true,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.newSurface == nil {
		compress := r.compress
		r.newSurface = func(cfg Config) Surface {
			return NewFpdfSurface(cfg.PageSize, cfg.FontFamily, compress)
		}
	}
	r.i18n = i18n.New(tpl.I18n.Labels, tpl.Config.DefaultLocale)
	return r
}

// Render draws every section in order and writes the document to w. A
// failing section is replaced by an error box and reported; only surface
// and output failures abort the document.
func (r *Renderer) Render(w io.Writer) (*Report, error) {
	r.init()
	r.surface.SetMetadata(r.metadata())

	report := &Report{}
	for i, s := range r.tpl.Sections {
		if err := r.renderSection(i, s); err != nil {
			se := &SectionError{Index: i, Type: s.Type, Err: err}
			r.logger.Error("section render failed",
				zap.Int("index", i),
				zap.String("type", string(s.Type)),
				zap.Error(err))
			r.drawErrorBox(se)
			report.SectionErrors = append(report.SectionErrors, se)
		}
	}

	report.Pages = r.surface.PageCount()
	if err := r.surface.Err(); err != nil {
		return report, fmt.Errorf("doctpl: render: %w", err)
	}
	if err := r.surface.Output(w); err != nil {
		return report, err
	}
	return report, nil
}

// RenderBytes is Render into a byte slice.
func (r *Renderer) RenderBytes() ([]byte, *Report, error) {
	var buf bytes.Buffer
	report, err := r.Render(&buf)
	if err != nil {
		return nil, report, err
	}
	return buf.Bytes(), report, nil
}

func (r *Renderer) init() {
	r.surface = r.newSurface(r.tpl.Config)
	margins := Margins{Top: DefaultMargin, Bottom: DefaultMargin, Left: DefaultMargin, Right: DefaultMargin}
	if r.tpl.Config.Margins != nil {
		margins = *r.tpl.Config.Margins
	}
	r.state = &LayoutState{Margins: margins}
	r.logo, r.logoErr = nil, nil
	r.addNewPage()
}

// addNewPage starts a page and resets the cursor below the top margin.
func (r *Renderer) addNewPage() float64 {
	r.surface.AddPage()
	r.state.Page++
	r.state.PageWidth, r.state.PageHeight = r.surface.PageSize()
	r.state.Cursor = r.state.PageHeight - r.state.Margins.Top
	return r.state.Cursor
}

// ensureSpace starts a new page when less than h points remain.
func (r *Renderer) ensureSpace(h float64) {
	if !r.state.Fits(h) {
		r.addNewPage()
	}
}

func (r *Renderer) renderSection(index int, s Section) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	if s.PageBreakBefore {
		r.addNewPage()
	}
	if !r.state.Fits(sectionFitThreshold) {
		r.addNewPage()
	}

	switch s.Type {
	case SectionHeader:
		err = r.renderHeader(s)
	case SectionStaticBlock:
		err = r.renderStaticBlock(s)
	case SectionDynamicTable:
		err = r.renderDynamicTable(s)
	case SectionFooter:
		err = r.renderFooter(s)
	case SectionKeyValueGrid:
		err = r.renderKeyValueGrid(s)
	case SectionTermsBlock:
		err = r.renderTermsBlock(s)
	default:
		r.logger.Warn("unsupported section type", zap.Int("index", index), zap.String("type", string(s.Type)))
	}
	if err != nil {
		return err
	}
	if err := r.surface.Err(); err != nil {
		return err
	}

	// a declared table height is informational; rows already moved the cursor
	if s.Type != SectionDynamicTable || s.Height == nil {
		r.state.Cursor -= s.HeightOr(defaultAdvance)
	}
	return nil
}

func (r *Renderer) drawErrorBox(se *SectionError) {
	// fpdf ignores drawing calls while an error is pending.
	_ = r.surface.Err()

	x := r.state.Margins.Left
	y := r.state.Cursor
	w := r.state.ContentWidth()

	r.surface.Rect(x, y-errorBoxHeight, w, errorBoxHeight, table.Red, nil)
	r.surface.Text(x+5, y-15, fmt.Sprintf("Error rendering section #%d [%s]", se.Index, se.Type),
		table.FontSpec{Size: 10, Color: table.Red})
	r.surface.Text(x+5, y-30, truncate(se.Err.Error(), maxErrorMessage),
		table.FontSpec{Size: 8, Color: table.Grey})
	if err := r.surface.Err(); err != nil {
		r.logger.Error("error box render failed", zap.Int("index", se.Index), zap.Error(err))
	}
	r.state.Cursor -= errorBoxAdvance
}

func (r *Renderer) metadata() Metadata {
	number := r.ctx.Quote.Number
	title := "Quotation " + number
	if number == "" {
		title = "Quotation Draft"
	}
	author := r.ctx.Branding.CompanyName
	if author == "" {
		author = DefaultAuthor
	}
	lang := r.ctx.Meta.Locale
	if lang == "" {
		lang = i18n.DefaultLocale
	}
	now := r.now()
	return Metadata{
		Title:    title,
		Author:   author,
		Subject:  "Freight Quotation",
		Keywords: strings.TrimSpace("quotation logistics freight " + number),
		Creator:  DefaultProducer,
		Producer: DefaultProducer,
		Created:  now,
		Modified: now,
		Lang:     lang,
	}
}

// t translates key for the context locale.
func (r *Renderer) t(key string) string {
	return r.i18n.T(key, r.ctx.Meta.Locale)
}

// formatValue renders v according to a column or grid format.
func (r *Renderer) formatValue(format string, v any, currency string) string {
	locale := r.ctx.Meta.Locale
	switch format {
	case FormatCurrency:
		if v == nil {
			return ""
		}
		return r.i18n.FormatCurrency(table.Number(v), currency, locale)
	case FormatDecimal:
		if v == nil {
			return ""
		}
		return r.i18n.FormatNumber(table.Number(v), locale)
	case FormatDate:
		return r.i18n.FormatDate(table.Text(v), locale)
	default:
		return table.Text(v)
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
