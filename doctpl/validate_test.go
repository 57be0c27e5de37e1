package doctpl_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvillar/quotepdf/doctpl"
)

func TestValidateDefaults(t *testing.T) {
	tpl, err := doctpl.Validate(`{"name": "Bare", "sections": [{"type": "HEADER"}]}`)
	require.NoError(t, err)

	assert.Equal(t, doctpl.DefaultVersion, tpl.Version)
	assert.Equal(t, doctpl.DefaultLayoutEngine, tpl.LayoutEngine)
	assert.Equal(t, "A4", tpl.Config.PageSize)
	assert.Equal(t, "Helvetica", tpl.Config.FontFamily)
	assert.Equal(t, "en-US", tpl.Config.DefaultLocale)
	assert.Equal(t, "None", tpl.Config.Compliance)
	assert.Equal(t, &doctpl.Margins{Top: 40, Bottom: 40, Left: 40, Right: 40}, tpl.Config.Margins)
	assert.Equal(t, doctpl.SectionHeader, tpl.Sections[0].Type)
	assert.Equal(t, "left", tpl.Sections[0].Align)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
		rule  string
	}{
		{"missing name", `{"sections": []}`, "name", "required"},
		{"bad page size", `{"name": "x", "config": {"page_size": "B5"}}`, "config.page_size", "oneof"},
		{"negative margin", `{"name": "x", "config": {"margins": {"top": -1}}}`, "config.margins.top", "gte"},
		{"table without config", `{"name": "x", "sections": [{"type": "dynamic_table"}]}`, "sections[0].table_config", "required_for_table"},
		{"unknown source", `{"name": "x", "sections": [{"type": "dynamic_table", "table_config": {"source": "invoices", "columns": [{"field": "a"}]}}]}`, "sections[0].table_config.source", "oneof"},
		{"no columns", `{"name": "x", "sections": [{"type": "dynamic_table", "table_config": {"source": "items", "columns": []}}]}`, "sections[0].table_config.columns", "min"},
		{"bad align", `{"name": "x", "sections": [{"type": "static_block", "align": "justify"}]}`, "sections[0].align", "oneof"},
		{"bad barcode", `{"name": "x", "sections": [{"type": "header", "content": {"barcode": {"type": "ean13"}}}]}`, "sections[0].content.barcode.type", "oneof"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := doctpl.Validate(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, doctpl.ErrValidation))

			var ve *doctpl.ValidationError
			require.True(t, errors.As(err, &ve))
			require.NotEmpty(t, ve.Fields)
			assert.Equal(t, tt.field, ve.Fields[0].Field)
			assert.Equal(t, tt.rule, ve.Fields[0].Rule)
		})
	}
}

func TestValidateMalformed(t *testing.T) {
	for _, in := range []any{nil, "", "{not json", []byte("name: [unclosed")} {
		_, err := doctpl.Validate(in)
		assert.ErrorIs(t, err, doctpl.ErrValidation, "%v", in)
	}
}

func TestValidateYAMLAndWidths(t *testing.T) {
	tpl, err := doctpl.Validate([]byte(`
name: Widths
config: {page_size: letter}
sections:
  - type: dynamic_table
    table_config:
      source: Charges
      columns:
        - {field: description, width: 60%}
        - {field: amount, width: 120, align: RIGHT, format: CURRENCY}
        - {field: curr, format: money}
`))
	require.NoError(t, err)
	assert.Equal(t, "Letter", tpl.Config.PageSize)

	tc := tpl.Sections[0].TableConfig
	assert.Equal(t, "charges", tc.Source)
	assert.Equal(t, doctpl.Width("60%"), tc.Columns[0].Width)
	assert.Equal(t, doctpl.Width("120"), tc.Columns[1].Width)
	assert.Equal(t, "right", tc.Columns[1].Align)
	assert.Equal(t, doctpl.FormatCurrency, tc.Columns[1].Format)
	assert.Equal(t, doctpl.FormatString, tc.Columns[2].Format)
}

func TestValidateJSONNumericWidth(t *testing.T) {
	tpl, err := doctpl.Validate(`{"name": "x", "sections": [{"type": "dynamic_table", "table_config": {"source": "items", "columns": [{"field": "a", "width": 80.5}, {"field": "b", "width": "20%"}]}}]}`)
	require.NoError(t, err)
	cols := tpl.Sections[0].TableConfig.Columns
	assert.Equal(t, doctpl.Width("80.5"), cols[0].Width)
	assert.Equal(t, doctpl.Width("20%"), cols[1].Width)
}

func TestValidateMapInput(t *testing.T) {
	tpl, err := doctpl.Validate(map[string]any{
		"name": "From map",
		"sections": []any{
			map[string]any{"type": "header", "content": map[string]any{"barcode": map[string]any{}}},
		},
	})
	require.NoError(t, err)
	bc := tpl.Sections[0].Content.Barcode
	assert.Equal(t, "qr", bc.Type)
	assert.Equal(t, "quote.number", bc.Field)
}

func TestValidateDoesNotMutateInput(t *testing.T) {
	in := &doctpl.Template{Name: "Mine", Sections: []doctpl.Section{{Type: "HEADER"}}}
	out, err := doctpl.Validate(in)
	require.NoError(t, err)
	assert.Equal(t, doctpl.SectionType("HEADER"), in.Sections[0].Type)
	assert.Nil(t, in.Config.Margins)
	assert.NotSame(t, in, out)
}

func TestClone(t *testing.T) {
	h := 12.0
	in := &doctpl.Template{
		Name:     "Orig",
		I18n:     doctpl.I18n{Labels: map[string]map[string]string{"a": {"en-US": "A"}}},
		Sections: []doctpl.Section{{Type: doctpl.SectionStaticBlock, Height: &h}},
	}
	cp := in.Clone()
	if diff := cmp.Diff(in, cp); diff != "" {
		t.Fatalf("clone differs (-in +clone):\n%s", diff)
	}
	*cp.Sections[0].Height = 99
	cp.I18n.Labels["a"]["en-US"] = "changed"
	assert.Equal(t, 12.0, h)
	assert.Equal(t, "A", in.I18n.Labels["a"]["en-US"])
}

func TestBuiltins(t *testing.T) {
	for _, id := range doctpl.BuiltinIDs() {
		t.Run(id, func(t *testing.T) {
			tpl, err := doctpl.Builtin(id)
			require.NoError(t, err)
			assert.Equal(t, id, tpl.ID)
			assert.NotEmpty(t, tpl.Sections)
		})
	}

	_, err := doctpl.Builtin("nope")
	assert.Error(t, err)

	a, b := doctpl.DefaultTemplate(), doctpl.DefaultTemplate()
	assert.NotSame(t, a, b)
	assert.Equal(t, "Standard Quotation", a.Name)
}
