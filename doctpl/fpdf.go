package doctpl

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/boombuler/barcode/qr"
	"github.com/go-pdf/fpdf"
	"github.com/go-pdf/fpdf/contrib/barcode"

	"github.com/lvillar/quotepdf/table"
)

// FpdfSurface draws onto a go-pdf/fpdf document using points and the
// standard core fonts.
type FpdfSurface struct {
	pdf    *fpdf.Fpdf
	family string
	tr     func(string) string
}

var coreFonts = map[string]string{
	"helvetica": "Helvetica",
	"arial":     "Arial",
	"times":     "Times",
	"courier":   "Courier",
}

// NewFpdfSurface creates a surface for pageSize (A3, A4, A5, Letter, Legal).
// Families other than the core fonts fall back to Helvetica.
func NewFpdfSurface(pageSize, family string, compress bool) *FpdfSurface {
	pdf := fpdf.New("P", "pt", pageSize, "")
	pdf.SetCompression(compress)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetLineWidth(1)

	fam, ok := coreFonts[strings.ToLower(strings.TrimSpace(family))]
	if !ok {
		fam = DefaultFontFamily
	}
	return &FpdfSurface{
		pdf:    pdf,
		family: fam,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

// Fpdf exposes the underlying document.
func (s *FpdfSurface) Fpdf() *fpdf.Fpdf { return s.pdf }

func (s *FpdfSurface) AddPage() { s.pdf.AddPage() }

func (s *FpdfSurface) PageSize() (float64, float64) { return s.pdf.GetPageSize() }

func (s *FpdfSurface) PageCount() int { return s.pdf.PageCount() }

// flip converts a bottom-left y into fpdf's top-left y.
func (s *FpdfSurface) flip(y float64) float64 {
	_, h := s.pdf.GetPageSize()
	return h - y
}

func (s *FpdfSurface) setFont(size float64, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	s.pdf.SetFont(s.family, style, size)
}

func (s *FpdfSurface) Rect(x, y, w, h float64, stroke table.RGBColor, fill *table.RGBColor) {
	if fill != nil {
		s.pdf.SetFillColor(fill.R, fill.G, fill.B)
		s.pdf.Rect(x, s.flip(y+h), w, h, "F")
		return
	}
	s.pdf.SetDrawColor(stroke.R, stroke.G, stroke.B)
	s.pdf.Rect(x, s.flip(y+h), w, h, "D")
}

func (s *FpdfSurface) Line(x1, y1, x2, y2 float64, c table.RGBColor) {
	s.pdf.SetDrawColor(c.R, c.G, c.B)
	s.pdf.Line(x1, s.flip(y1), x2, s.flip(y2))
}

func (s *FpdfSurface) Text(x, y float64, text string, f table.FontSpec) {
	if text == "" {
		return
	}
	s.setFont(f.Size, f.Bold)
	s.pdf.SetTextColor(f.Color.R, f.Color.G, f.Color.B)
	s.pdf.Text(x, s.flip(y), s.tr(text))
}

func (s *FpdfSurface) TextWidth(text string, size float64, bold bool) float64 {
	s.setFont(size, bold)
	return s.pdf.GetStringWidth(s.tr(text))
}

func (s *FpdfSurface) Image(name string, img *Logo, x, y, w, h float64) error {
	if img == nil {
		return fmt.Errorf("image %q: no data", name)
	}
	opts := fpdf.ImageOptions{ImageType: img.Format.fpdfType(), ReadDpi: false}
	s.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
	if err := s.Err(); err != nil {
		return fmt.Errorf("image %q: %w", name, err)
	}
	s.pdf.ImageOptions(name, x, s.flip(y+h), w, h, false, opts, 0, "")
	return s.Err()
}

func (s *FpdfSurface) Barcode(kind, code string, x, y, w, h float64) error {
	var key string
	switch kind {
	case "qr":
		key = barcode.RegisterQR(s.pdf, code, qr.M, qr.Auto)
	case "code128":
		key = barcode.RegisterCode128(s.pdf, code)
	case "pdf417":
		key = barcode.RegisterPdf417(s.pdf, code, 6, 2)
	default:
		return fmt.Errorf("unsupported barcode type %q", kind)
	}
	if err := s.Err(); err != nil {
		return fmt.Errorf("barcode %s: %w", kind, err)
	}
	barcode.Barcode(s.pdf, key, x, s.flip(y+h), w, h, false)
	return s.Err()
}

func (s *FpdfSurface) SetMetadata(m Metadata) {
	s.pdf.SetTitle(m.Title, true)
	s.pdf.SetAuthor(m.Author, true)
	s.pdf.SetSubject(m.Subject, true)
	s.pdf.SetKeywords(m.Keywords, true)
	s.pdf.SetCreator(m.Creator, true)
	s.pdf.SetProducer(m.Producer, true)
	if !m.Created.IsZero() {
		s.pdf.SetCreationDate(m.Created)
	}
	if !m.Modified.IsZero() {
		s.pdf.SetModificationDate(m.Modified)
	}
	if m.Lang != "" {
		s.pdf.SetLang(m.Lang)
	}
}

func (s *FpdfSurface) Output(w io.Writer) error {
	if err := s.pdf.Output(w); err != nil {
		return fmt.Errorf("doctpl: writing pdf: %w", err)
	}
	return nil
}

func (s *FpdfSurface) Err() error {
	err := s.pdf.Error()
	if err != nil {
		s.pdf.ClearError()
	}
	return err
}
