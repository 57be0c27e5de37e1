package table

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNoColumns is returned when a table is rendered without columns.
var ErrNoColumns = errors.New("table: no columns defined")

// Alignment values for ColumnDef.Align.
const (
	AlignLeft   = "left"
	AlignCenter = "center"
	AlignRight  = "right"
)

// ColumnDef defines the properties of a table column.
type ColumnDef struct {
	Field  string
	Label  string
	Width  string // "25%", "120" or "" for an equal share
	Align  string // left, center, right
	Format string // string, currency, date, decimal
}

// Canvas is the drawing surface a table renders onto. Coordinates are PDF
// user space: origin at the bottom-left corner, y growing upwards. Rect fills
// the rectangle when fill is non-nil and strokes it with stroke otherwise.
type Canvas interface {
	Rect(x, y, w, h float64, stroke RGBColor, fill *RGBColor)
	Line(x1, y1, x2, y2 float64, c RGBColor)
	Text(x, y float64, s string, f FontSpec)
	TextWidth(s string, size float64, bold bool) float64
}

// Frame describes where the table is placed and how to obtain a new page.
type Frame struct {
	X      float64 // left edge
	Width  float64 // total table width
	Bottom float64 // bottom margin; rows never cross it
	// NewPage starts a new page and returns the fresh cursor position.
	NewPage func() float64
}

// Formatter renders the resolved value v of col for row.
type Formatter func(col ColumnDef, row Row, v any) string

// Table is a data-driven table ready to be drawn.
type Table struct {
	canvas    Canvas
	columns   []ColumnDef
	rows      []Row
	style     TableStyle
	format    Formatter
	subtotals bool
	labels    func(string) string
}

// New creates a table over the given canvas with the default style.
func New(canvas Canvas, columns []ColumnDef, rows []Row) *Table {
	return &Table{
		canvas:  canvas,
		columns: columns,
		rows:    rows,
		style:   DefaultStyle(),
		format:  func(_ ColumnDef, _ Row, v any) string { return Text(v) },
		labels:  func(s string) string { return s },
	}
}

// SetStyle sets the table-wide style.
func (t *Table) SetStyle(s TableStyle) *Table {
	t.style = s
	return t
}

// SetFormatter sets the cell value formatter.
func (t *Table) SetFormatter(f Formatter) *Table {
	if f != nil {
		t.format = f
	}
	return t
}

// SetLabeler sets the function used to translate column labels.
func (t *Table) SetLabeler(f func(string) string) *Table {
	if f != nil {
		t.labels = f
	}
	return t
}

// ShowSubtotals draws a bold "Total:" line below the last row.
func (t *Table) ShowSubtotals(on bool) *Table {
	t.subtotals = on
	return t
}

// Result reports what Render drew.
type Result struct {
	Cursor     float64 // cursor after the table
	PageBreaks int
	Total      decimal.Decimal
}

// Render draws the header band, the rows and the optional total line,
// starting at cursor. The header band is drawn once; continuation pages
// start directly with rows.
func (t *Table) Render(frame Frame, cursor float64) (Result, error) {
	if len(t.columns) == 0 {
		return Result{Cursor: cursor}, ErrNoColumns
	}
	st := t.style
	widths := ResolveWidths(t.columns, frame.Width)

	fill := st.HeaderFill
	t.canvas.Rect(frame.X, cursor-st.HeaderHeight, frame.Width, st.HeaderHeight, fill, &fill)
	x := frame.X
	for i, col := range t.columns {
		t.canvas.Text(x+st.CellPadding.Left, cursor-st.HeaderBaseline, t.labels(col.Label), st.HeaderFont)
		x += widths[i]
	}
	cursor -= st.HeaderHeight

	res := Result{}
	for _, row := range t.rows {
		if cursor < frame.Bottom+st.RowHeight {
			cursor = frame.NewPage()
			res.PageBreaks++
		}
		t.drawRow(frame, widths, row, cursor)
		cursor -= st.RowHeight
	}

	if t.subtotals {
		res.Total = Subtotal(t.rows, "amount")
		cursor -= 5
		label := "Total: " + res.Total.StringFixed(2)
		t.canvas.Text(frame.X+frame.Width-100, cursor-st.CellBaseline, label, st.TotalFont)
		cursor -= 20
	}
	res.Cursor = cursor
	return res, nil
}

func (t *Table) drawRow(frame Frame, widths []float64, row Row, cursor float64) {
	st := t.style
	t.canvas.Rect(frame.X, cursor-st.RowHeight, frame.Width, st.RowHeight, st.Border, nil)

	x := frame.X
	for i, col := range t.columns {
		w := widths[i]
		val := t.format(col, row, Resolve(row, col.Field))
		textW := t.canvas.TextWidth(val, st.CellFont.Size, st.CellFont.Bold)
		t.canvas.Text(AlignX(x, w, textW, st.CellPadding, col.Align), cursor-st.CellBaseline, val, st.CellFont)
		t.canvas.Line(x+w, cursor, x+w, cursor-st.RowHeight, st.Border)
		x += w
	}
}

// AlignX returns the text origin inside a cell of width w starting at x.
func AlignX(x, w, textW float64, pad Padding, align string) float64 {
	switch strings.ToLower(align) {
	case AlignRight:
		return x + w - textW - pad.Right
	case AlignCenter:
		return x + (w-textW)/2
	default:
		return x + pad.Left
	}
}

// ResolveWidths turns column width specs into absolute widths. Percentages
// are taken of tableWidth, bare numbers are absolute, anything else gets an
// equal share of the table.
func ResolveWidths(cols []ColumnDef, tableWidth float64) []float64 {
	widths := make([]float64, len(cols))
	if len(cols) == 0 {
		return widths
	}
	equal := tableWidth / float64(len(cols))
	for i, c := range cols {
		widths[i] = resolveWidth(c.Width, tableWidth, equal)
	}
	return widths
}

func resolveWidth(spec string, tableWidth, equal float64) float64 {
	spec = strings.TrimSpace(spec)
	if pct, ok := strings.CutSuffix(spec, "%"); ok {
		v, err := strconv.ParseFloat(strings.TrimSpace(pct), 64)
		if err != nil || v <= 0 {
			return equal
		}
		return tableWidth * v / 100
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(spec, "pt"), 64)
	if err != nil || v <= 0 {
		return equal
	}
	return v
}

// Placement positions one row: when NewPage is set a page break precedes it.
type Placement struct {
	Index   int
	NewPage bool
}

// Plan decides where page breaks fall for n rows of rowHeight starting at
// cursor. A row that would leave less than rowHeight above bottom moves to a
// new page whose rows start at pageTop. Render applies the same rule against
// the live cursor.
func Plan(n int, cursor, pageTop, bottom, rowHeight float64) []Placement {
	out := make([]Placement, n)
	for i := range out {
		out[i].Index = i
		if cursor < bottom+rowHeight {
			out[i].NewPage = true
			cursor = pageTop
		}
		cursor -= rowHeight
	}
	return out
}

// Subtotal sums the numeric value of field (resolved through aliases) over rows.
func Subtotal(rows []Row, field string) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(decimal.NewFromFloat(Number(Resolve(r, field))))
	}
	return sum
}

// String describes a column for diagnostics.
func (c ColumnDef) String() string {
	return fmt.Sprintf("%s(%s)", c.Field, c.Width)
}
