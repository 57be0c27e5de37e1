package doctpl

import (
	"io"
	"time"

	"github.com/lvillar/quotepdf/table"
)

// Surface is the drawing primitive the renderer targets. Coordinates are in
// points with the origin at the bottom-left corner of the page.
type Surface interface {
	table.Canvas

	// AddPage appends a page and makes it current.
	AddPage()
	// PageSize returns the current page width and height.
	PageSize() (w, h float64)
	PageCount() int

	// Image draws an encoded image with its top-left corner at (x, y+h).
	Image(name string, img *Logo, x, y, w, h float64) error
	// Barcode draws a barcode of the given kind (qr, code128, pdf417).
	Barcode(kind, code string, x, y, w, h float64) error

	SetMetadata(m Metadata)
	Output(w io.Writer) error

	// Err returns and clears the pending drawing error, if any.
	Err() error
}

// Metadata is the document information dictionary.
type Metadata struct {
	Title    string
	Author   string
	Subject  string
	Keywords string
	Creator  string
	Producer string
	Created  time.Time
	Modified time.Time
	Lang     string
}
