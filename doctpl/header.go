package doctpl

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/lvillar/quotepdf/safectx"
	"github.com/lvillar/quotepdf/table"
)

// BrandAddressLines are printed under the company name in the branded header.
var BrandAddressLines = []string{
	"140 Ethel Road West; Unit 'S&T', Piscataway, NJ 08854-USA",
	"Phone:+1-732-640-2365,FMC Lic. # 023172NF / IAC #: NE1210010",
	"Professional Attitude at all Altitudes",
}

const (
	infoBoxWidth  = 180.0
	infoBoxHeight = 20.0
	logoImageName = "logo"
)

var barcodeSizes = map[string][2]float64{
	"qr":      {60, 60},
	"code128": {160, 40},
	"pdf417":  {160, 50},
}

func (r *Renderer) renderHeader(s Section) error {
	if r.branded() {
		r.brandedHeader()
	} else {
		r.plainHeader(s)
	}
	if s.Content != nil && s.Content.Barcode != nil {
		return r.headerBarcode(s.Content.Barcode)
	}
	return nil
}

func (r *Renderer) branded() bool {
	return r.brandMarker != "" && strings.Contains(r.tpl.Name, r.brandMarker)
}

// brandedHeader draws the centered logo, company block, address lines and
// the quote / validity boxes, then moves the cursor below them.
func (r *Renderer) brandedHeader() {
	st := r.state
	w, h := st.PageWidth, st.PageHeight
	primary := table.HexOr(r.ctx.Branding.PrimaryColor, safectx.DefaultPrimaryColor)
	company := r.ctx.Branding.CompanyName
	if company == "" {
		company = safectx.DefaultCompanyName
	}

	const logoW, logoH = 150.0, 60.0
	if _, ok := r.drawLogo((w-logoW)/2, h-20, logoW, logoH, true); !ok {
		r.textCentered(logoText(company), h-40, table.FontSpec{Size: 30, Bold: true, Color: primary})
	}
	r.textCentered(strings.ToUpper(company), h-60, table.FontSpec{Size: 16, Bold: true, Color: primary})

	addrY := h - 85
	for i, line := range BrandAddressLines {
		r.textCentered(line, addrY-float64(i)*12, table.FontSpec{Size: 10, Bold: true})
	}
	st.Cursor = addrY - 50

	y := st.Cursor
	left := st.Margins.Left
	right := w - st.Margins.Right - infoBoxWidth
	label := table.FontSpec{Size: 9, Bold: true}
	value := table.FontSpec{Size: 9}

	r.surface.Rect(left, y-infoBoxHeight, infoBoxWidth, infoBoxHeight, table.Black, nil)
	r.surface.Text(left+5, y-14, r.t("QUOTE"), label)
	r.surface.Text(left+80, y-14, r.ctx.Quote.Number, value)

	expiry := "N/A"
	if r.ctx.Quote.Expiry != "" {
		expiry = r.i18n.FormatDate(r.ctx.Quote.Expiry, r.ctx.Meta.Locale)
	}
	r.surface.Rect(right, y-infoBoxHeight, infoBoxWidth, infoBoxHeight, table.Black, nil)
	r.surface.Text(right+5, y-14, r.t("Valid Till"), label)
	r.surface.Text(right+100, y-14, expiry, value)

	st.Cursor -= 40
}

// logoText is the company name, or its first three letters upper-cased when
// the name is longer than ten characters.
func logoText(company string) string {
	if utf8.RuneCountInString(company) <= 10 {
		return company
	}
	return strings.ToUpper(string([]rune(company)[:3]))
}

func (r *Renderer) plainHeader(s Section) {
	st := r.state
	if h, ok := r.drawLogo(st.Margins.Left, st.Cursor, 200, 50, false); ok {
		st.Cursor -= h + 10
		return
	}
	text := "QUOTATION"
	if s.Content != nil && s.Content.Text != "" {
		text = s.Content.Text
	}
	r.surface.Text(st.Margins.Left, st.Cursor-20, text, table.FontSpec{Size: 20, Bold: true})
	st.Cursor -= 40
}

func (r *Renderer) headerBarcode(bc *Barcode) error {
	v, ok := r.ctx.Lookup(bc.Field)
	code := table.Text(v)
	if !ok || code == "" {
		return nil
	}
	size, ok := barcodeSizes[bc.Type]
	if !ok {
		size = barcodeSizes["qr"]
	}
	st := r.state
	x := st.PageWidth - st.Margins.Right - size[0]
	y := st.PageHeight - st.Margins.Top - size[1]
	return r.surface.Barcode(bc.Type, code, x, y, size[0], size[1])
}

// drawLogo places the branding logo inside the box whose top-left corner is
// (x, top). It returns the drawn height, or false when there is no usable logo.
func (r *Renderer) drawLogo(x, top, maxW, maxH float64, center bool) (float64, bool) {
	logo := r.loadLogo()
	if logo == nil {
		return 0, false
	}
	w, h := logo.ScaleToFit(maxW, maxH)
	if center {
		x += (maxW - w) / 2
	}
	if err := r.surface.Image(logoImageName, logo, x, top-h, w, h); err != nil {
		r.logger.Warn("logo decode failed", zap.Error(err))
		r.logo, r.logoErr = nil, err
		return 0, false
	}
	return h, true
}

func (r *Renderer) loadLogo() *Logo {
	if r.logo != nil || r.logoErr != nil {
		return r.logo
	}
	payload := r.ctx.Branding.LogoBase64
	if strings.TrimSpace(payload) == "" {
		return nil
	}
	logo, err := DecodeLogo(payload)
	if err != nil {
		r.logger.Warn("logo decode failed", zap.Error(err))
		r.logoErr = err
		return nil
	}
	r.logo = logo
	return logo
}

func (r *Renderer) textCentered(text string, y float64, f table.FontSpec) {
	tw := r.surface.TextWidth(text, f.Size, f.Bold)
	r.surface.Text((r.state.PageWidth-tw)/2, y, text, f)
}

// alignedX positions text of the given width inside the content area.
func (r *Renderer) alignedX(align string, textW float64) float64 {
	return table.AlignX(r.state.Margins.Left, r.state.ContentWidth(), textW, table.Padding{}, align)
}
