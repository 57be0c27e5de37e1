// Package table typesets data-driven tables onto a page canvas.
//
// Column widths may be given as percentages of the table width or as
// absolute units, rows are loosely typed maps whose fields are resolved
// through a set of historical aliases, and rows flow onto new pages when
// the bottom margin is reached.
package table

import (
	"strconv"
	"strings"
)

// RGBColor represents an RGB color value with 0-255 components.
type RGBColor struct {
	R, G, B int
}

// Common colors.
var (
	Black = RGBColor{0, 0, 0}
	Red   = RGBColor{255, 0, 0}
	Grey  = RGBColor{128, 128, 128}
	White = RGBColor{255, 255, 255}
)

// ParseHexColor parses "#rrggbb" or "#rgb" (the leading '#' is optional).
// Anything else yields Black and false.
func ParseHexColor(s string) (RGBColor, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return Black, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Black, false
	}
	return RGBColor{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, true
}

// HexOr parses s and returns fallback when s is empty. A non-empty but
// malformed value yields Black.
func HexOr(s, fallback string) RGBColor {
	if strings.TrimSpace(s) == "" {
		s = fallback
	}
	c, _ := ParseHexColor(s)
	return c
}

// FontSpec defines font properties for text rendering.
type FontSpec struct {
	Size  float64 // in points
	Bold  bool
	Color RGBColor
}

// Padding defines spacing inside a cell.
type Padding struct {
	Top, Right, Bottom, Left float64
}

// UniformPadding creates a Padding with the same value on all sides.
func UniformPadding(v float64) Padding {
	return Padding{Top: v, Right: v, Bottom: v, Left: v}
}

// TableStyle defines the overall appearance of a table.
type TableStyle struct {
	HeaderFill   RGBColor
	HeaderFont   FontSpec
	CellFont     FontSpec
	TotalFont    FontSpec
	Border       RGBColor
	CellPadding  Padding
	RowHeight    float64
	HeaderHeight float64
	// HeaderBaseline and CellBaseline are measured down from the top of the band.
	HeaderBaseline float64
	CellBaseline   float64
}

// DefaultStyle returns the quotation table look: a 25pt header band with
// bold 10pt labels and 20pt bordered rows of 9pt text.
func DefaultStyle() TableStyle {
	return TableStyle{
		HeaderFill:     RGBColor{220, 238, 242},
		HeaderFont:     FontSpec{Size: 10, Bold: true},
		CellFont:       FontSpec{Size: 9},
		TotalFont:      FontSpec{Size: 10, Bold: true},
		Border:         Black,
		CellPadding:    UniformPadding(5),
		RowHeight:      20,
		HeaderHeight:   25,
		HeaderBaseline: 18,
		CellBaseline:   14,
	}
}
