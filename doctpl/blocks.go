package doctpl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lvillar/quotepdf/safectx"
	"github.com/lvillar/quotepdf/table"
)

var errNoTableConfig = errors.New("dynamic_table without table_config")

const (
	gridRowHeight  = 16.0
	gridLabelShare = 0.35
	termsFontSize  = 10.0
	termsLeading   = 12.0
	titleFontSize  = 11.0
)

func (r *Renderer) renderStaticBlock(s Section) error {
	if s.Content == nil {
		return nil
	}
	size, bold, color := 12.0, false, table.Black
	if st := s.Content.Style; st != nil {
		if st.FontSize > 0 {
			size = st.FontSize
		}
		bold = strings.EqualFold(st.FontWeight, "bold")
		if st.Color != "" {
			color = table.HexOr(st.Color, "#000000")
		}
	}
	text := s.Content.Text
	tw := r.surface.TextWidth(text, size, bold)
	r.surface.Text(r.alignedX(s.Align, tw), r.state.Cursor-size, text, table.FontSpec{Size: size, Bold: bold, Color: color})
	return nil
}

func (r *Renderer) renderFooter(s Section) error {
	text := ""
	if s.Content != nil {
		text = s.Content.Text
	}
	const size = 10.0
	tw := r.surface.TextWidth(text, size, false)
	r.surface.Text((r.state.PageWidth-tw)/2, r.state.Margins.Bottom, text, table.FontSpec{Size: size, Color: table.Grey})
	return nil
}

func (r *Renderer) renderDynamicTable(s Section) error {
	tc := s.TableConfig
	if tc == nil {
		return errNoTableConfig
	}
	rows, ok := r.ctx.Rows(tc.Source)
	if !ok {
		return fmt.Errorf("unknown table source %q", tc.Source)
	}

	cols := make([]table.ColumnDef, len(tc.Columns))
	for i, c := range tc.Columns {
		cols[i] = table.ColumnDef{
			Field:  c.Field,
			Label:  c.Label,
			Width:  string(c.Width),
			Align:  c.Align,
			Format: c.Format,
		}
	}

	style := table.DefaultStyle()
	style.HeaderFill = table.HexOr(r.ctx.Branding.SecondaryColor, safectx.DefaultSecondaryColor)

	frame := table.Frame{
		X:       r.state.Margins.Left,
		Width:   r.state.ContentWidth(),
		Bottom:  r.state.Margins.Bottom,
		NewPage: r.addNewPage,
	}
	res, err := table.New(r.surface, cols, rows).
		SetStyle(style).
		SetFormatter(r.formatCell).
		SetLabeler(r.t).
		ShowSubtotals(tc.ShowSubtotals).
		Render(frame, r.state.Cursor)
	r.state.Cursor = res.Cursor
	return err
}

// formatCell formats currency columns in the row's own currency, falling
// back to the quote currency.
func (r *Renderer) formatCell(col table.ColumnDef, row table.Row, v any) string {
	currency := table.Text(table.Resolve(row, "currency"))
	if currency == "" {
		currency = r.ctx.Quote.Currency
	}
	return r.formatValue(col.Format, v, currency)
}

func (r *Renderer) renderKeyValueGrid(s Section) error {
	if s.Content == nil {
		return nil
	}
	st := r.state
	labelW := st.ContentWidth() * gridLabelShare
	labelFont := table.FontSpec{Size: 10, Bold: true}
	valueFont := table.FontSpec{Size: 10}

	if s.Content.Title != "" {
		r.drawTitle(s.Content.Title)
	}
	for _, it := range s.Content.Items {
		v, ok := r.ctx.Lookup(it.Field)
		if !ok {
			return fmt.Errorf("unknown field %q", it.Field)
		}
		val := r.formatValue(it.Format, v, r.ctx.Quote.Currency)
		if val == "" {
			continue
		}
		label := it.Label
		if label == "" {
			label = it.Field
		}
		r.ensureSpace(gridRowHeight)
		r.surface.Text(st.Margins.Left, st.Cursor-12, r.t(label), labelFont)
		r.surface.Text(st.Margins.Left+labelW, st.Cursor-12, val, valueFont)
		st.Cursor -= gridRowHeight
	}
	return nil
}

func (r *Renderer) renderTermsBlock(s Section) error {
	text := ""
	if s.Content != nil {
		text = s.Content.Text
	}
	if strings.TrimSpace(text) == "" {
		text = r.ctx.Quote.Terms
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if s.Content != nil && s.Content.Title != "" {
		r.drawTitle(s.Content.Title)
	}
	font := table.FontSpec{Size: termsFontSize}
	for _, line := range r.wrap(text, r.state.ContentWidth(), termsFontSize) {
		r.ensureSpace(termsLeading)
		r.surface.Text(r.state.Margins.Left, r.state.Cursor-termsFontSize, line, font)
		r.state.Cursor -= termsLeading
	}
	return nil
}

func (r *Renderer) drawTitle(key string) {
	r.ensureSpace(gridRowHeight)
	r.surface.Text(r.state.Margins.Left, r.state.Cursor-titleFontSize, r.t(key), table.FontSpec{Size: titleFontSize, Bold: true})
	r.state.Cursor -= gridRowHeight
}

// wrap breaks text into lines no wider than width. Explicit newlines start
// new lines; a single word wider than width gets a line of its own.
func (r *Renderer) wrap(text string, width, size float64) []string {
	var lines []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			candidate := line + " " + w
			if r.surface.TextWidth(candidate, size, false) > width {
				lines = append(lines, line)
				line = w
				continue
			}
			line = candidate
		}
		lines = append(lines, line)
	}
	return lines
}
