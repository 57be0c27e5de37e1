package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Row is one loosely typed table row.
type Row map[string]any

// aliases lists the historical field names accepted for a logical field, in
// lookup order after the field itself.
var aliases = map[string][]string{
	"description":  {"desc"},
	"desc":         {"description"},
	"amount":       {"total"},
	"total":        {"amount"},
	"currency":     {"curr"},
	"curr":         {"currency"},
	"quantity":     {"qty"},
	"qty":          {"quantity"},
	"carrier":      {"carrier_name"},
	"carrier_name": {"carrier"},
}

// Resolve returns the value of field in row, trying the field's aliases when
// it is absent or nil. A missing field resolves to nil.
func Resolve(row Row, field string) any {
	if row == nil {
		return nil
	}
	if v, ok := row[field]; ok && v != nil {
		return v
	}
	for _, alt := range aliases[field] {
		if v, ok := row[alt]; ok && v != nil {
			return v
		}
	}
	return nil
}

// Text renders a resolved value for display. nil becomes "".
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case fmt.Stringer:
		return x.String()
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

// Number coerces a resolved value to a float; unusable values are 0.
func Number(v any) float64 {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0
	}
	return f
}
