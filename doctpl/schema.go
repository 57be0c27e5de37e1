// Package doctpl defines the declarative quotation template and renders it,
// together with a safectx.SafeContext, into a paginated PDF.
//
// A template is an ordered list of sections. Each section is drawn at the
// current vertical cursor and moves it down; tables flow onto new pages when
// they reach the bottom margin.
//
// Example JSON:
//
//	{
//	  "name": "Standard Quotation",
//	  "config": {"page_size": "A4", "margins": {"top": 40, "bottom": 40, "left": 40, "right": 40}},
//	  "sections": [
//	    {"type": "header", "content": {"text": "QUOTATION"}},
//	    {"type": "dynamic_table", "table_config": {
//	      "source": "charges", "show_subtotals": true,
//	      "columns": [
//	        {"field": "description", "label": "Description", "width": "70%"},
//	        {"field": "amount", "label": "Amount", "width": "30%", "align": "right", "format": "currency"}
//	      ]}}
//	  ]
//	}
package doctpl

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// SectionType tags the kind of a Section.
type SectionType string

// Section types understood by the renderer.
const (
	SectionHeader       SectionType = "header"
	SectionFooter       SectionType = "footer"
	SectionStaticBlock  SectionType = "static_block"
	SectionDynamicTable SectionType = "dynamic_table"
	SectionKeyValueGrid SectionType = "key_value_grid"
	SectionTermsBlock   SectionType = "terms_block"
)

// Column formats.
const (
	FormatString   = "string"
	FormatCurrency = "currency"
	FormatDate     = "date"
	FormatDecimal  = "decimal"
)

// Template is a named, versioned description of a quotation document.
type Template struct {
	ID           string    `json:"id,omitempty" yaml:"id,omitempty"`
	Name         string    `json:"name" yaml:"name" validate:"required"`
	Version      string    `json:"version" yaml:"version"`
	LayoutEngine string    `json:"layout_engine" yaml:"layout_engine"`
	Config       Config    `json:"config" yaml:"config"`
	I18n         I18n      `json:"i18n" yaml:"i18n"`
	Sections     []Section `json:"sections" yaml:"sections" validate:"dive"`
}

// Config holds page geometry and document-wide settings.
type Config struct {
	PageSize      string   `json:"page_size" yaml:"page_size" validate:"oneof=A3 A4 A5 Letter Legal"`
	Margins       *Margins `json:"margins,omitempty" yaml:"margins,omitempty"`
	FontFamily    string   `json:"font_family" yaml:"font_family"`
	DefaultLocale string   `json:"default_locale" yaml:"default_locale"`
	// Compliance is reserved; documents are never made PDF/A conformant.
	Compliance string `json:"compliance" yaml:"compliance" validate:"oneof=None PDF/A-1b PDF/A-2b PDF/A-3b"`
}

// Margins are page margins in points.
type Margins struct {
	Top    float64 `json:"top" yaml:"top" validate:"gte=0"`
	Bottom float64 `json:"bottom" yaml:"bottom" validate:"gte=0"`
	Left   float64 `json:"left" yaml:"left" validate:"gte=0"`
	Right  float64 `json:"right" yaml:"right" validate:"gte=0"`
}

// I18n carries template labels: key -> locale -> text.
type I18n struct {
	Labels map[string]map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// Section is one vertical block of the document.
type Section struct {
	Type            SectionType  `json:"type" yaml:"type" validate:"required"`
	Height          *float64     `json:"height,omitempty" yaml:"height,omitempty" validate:"omitempty,gte=0"`
	PageBreakBefore bool         `json:"page_break_before" yaml:"page_break_before"`
	Align           string       `json:"align" yaml:"align" validate:"oneof=left center right"`
	Content         *Content     `json:"content,omitempty" yaml:"content,omitempty"`
	TableConfig     *TableConfig `json:"table_config,omitempty" yaml:"table_config,omitempty"`
}

// Content is the payload of header, footer, static_block, key_value_grid
// and terms_block sections.
type Content struct {
	Text    string     `json:"text,omitempty" yaml:"text,omitempty"`
	Title   string     `json:"title,omitempty" yaml:"title,omitempty"`
	Style   *TextStyle `json:"style,omitempty" yaml:"style,omitempty"`
	Items   []GridItem `json:"items,omitempty" yaml:"items,omitempty" validate:"dive"`
	Barcode *Barcode   `json:"barcode,omitempty" yaml:"barcode,omitempty"`
}

// TextStyle tunes static text.
type TextStyle struct {
	FontWeight string  `json:"fontWeight,omitempty" yaml:"fontWeight,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty" yaml:"fontSize,omitempty"`
	Color      string  `json:"color,omitempty" yaml:"color,omitempty"`
}

// GridItem is one label/value line of a key_value_grid.
type GridItem struct {
	Label  string `json:"label" yaml:"label"`
	Field  string `json:"field" yaml:"field" validate:"required"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Barcode places a machine-readable code in the header.
type Barcode struct {
	Type  string `json:"type" yaml:"type" validate:"oneof=qr code128 pdf417"`
	Field string `json:"field,omitempty" yaml:"field,omitempty"`
}

// TableConfig describes a dynamic table.
type TableConfig struct {
	Source        string   `json:"source" yaml:"source" validate:"required,oneof=items charges legs"`
	Columns       []Column `json:"columns" yaml:"columns" validate:"min=1,dive"`
	ShowSubtotals bool     `json:"show_subtotals" yaml:"show_subtotals"`
}

// Column is one table column.
type Column struct {
	Field  string `json:"field" yaml:"field" validate:"required"`
	Label  string `json:"label" yaml:"label"`
	Width  Width  `json:"width,omitempty" yaml:"width,omitempty"`
	Align  string `json:"align,omitempty" yaml:"align,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Width is a column width: a percentage such as "25%" or an absolute number
// of points. It decodes from either a JSON string or a number.
type Width string

// UnmarshalJSON implements json.Unmarshaler.
func (w *Width) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*w = Width(strings.TrimSpace(s))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("width must be a string or a number: %s", b)
	}
	*w = Width(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (w *Width) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("width must be a scalar, line %d", node.Line)
	}
	*w = Width(strings.TrimSpace(node.Value))
	return nil
}

// HeightOr returns the section height, or def when none is declared.
func (s Section) HeightOr(def float64) float64 {
	if s.Height == nil {
		return def
	}
	return *s.Height
}
