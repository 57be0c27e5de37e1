package doctpl

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrValidation is wrapped by every *ValidationError.
var ErrValidation = errors.New("doctpl: invalid template")

// Defaults applied by Validate.
const (
	DefaultVersion      = "1.0.0"
	DefaultLayoutEngine = "v2_flex_grid"
	DefaultPageSize     = "A4"
	DefaultFontFamily   = "Helvetica"
	DefaultLocale       = "en-US"
	DefaultCompliance   = "None"
	DefaultMargin       = 40.0
)

// FieldError describes one failed rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

func (f FieldError) String() string {
	if f.Param != "" {
		return fmt.Sprintf("%s: %s=%s", f.Field, f.Rule, f.Param)
	}
	return fmt.Sprintf("%s: %s", f.Field, f.Rule)
}

// ValidationError reports why a template was rejected.
type ValidationError struct {
	Fields []FieldError
	Err    error // decoding error, when the input was not well formed
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("doctpl: invalid template: %v", e.Err)
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return "doctpl: invalid template: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrValidation, e.Err}
	}
	return []error{ErrValidation}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		s := sl.Current().Interface().(Section)
		if s.Type == SectionDynamicTable && s.TableConfig == nil {
			sl.ReportError(s.TableConfig, "table_config", "TableConfig", "required_for_table", "")
		}
	}, Section{})
	return v
}

// Parse decodes a JSON or YAML template and validates it.
func Parse(data []byte) (*Template, error) {
	var t Template
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &ValidationError{Err: errors.New("empty template")}
	}
	if trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		if err := dec.Decode(&t); err != nil {
			return nil, &ValidationError{Err: err}
		}
	} else if err := yaml.Unmarshal(trimmed, &t); err != nil {
		return nil, &ValidationError{Err: err}
	}
	return finish(&t)
}

// Validate checks raw and returns a defaulted copy. raw may be a Template,
// a *Template, JSON or YAML bytes or string, or a decoded map.
func Validate(raw any) (*Template, error) {
	switch v := raw.(type) {
	case nil:
		return nil, &ValidationError{Err: errors.New("template is nil")}
	case *Template:
		if v == nil {
			return nil, &ValidationError{Err: errors.New("template is nil")}
		}
		return finish(v.Clone())
	case Template:
		return finish(v.Clone())
	case []byte:
		return Parse(v)
	case string:
		return Parse([]byte(v))
	case json.RawMessage:
		return Parse(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, &ValidationError{Err: err}
		}
		var t Template
		if err := json.Unmarshal(b, &t); err != nil {
			return nil, &ValidationError{Err: err}
		}
		return finish(&t)
	}
}

func finish(t *Template) (*Template, error) {
	applyDefaults(t)
	if err := validate.Struct(t); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, &ValidationError{Err: err}
		}
		ve := &ValidationError{}
		for _, fe := range verrs {
			ve.Fields = append(ve.Fields, FieldError{
				Field: strings.TrimPrefix(fe.Namespace(), "Template."),
				Rule:  fe.Tag(),
				Param: fe.Param(),
			})
		}
		return nil, ve
	}
	return t, nil
}

var pageSizes = map[string]string{
	"a3": "A3", "a4": "A4", "a5": "A5", "letter": "Letter", "legal": "Legal",
}

func applyDefaults(t *Template) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Version == "" {
		t.Version = DefaultVersion
	}
	if t.LayoutEngine == "" {
		t.LayoutEngine = DefaultLayoutEngine
	}

	c := &t.Config
	if c.PageSize == "" {
		c.PageSize = DefaultPageSize
	} else if canon, ok := pageSizes[strings.ToLower(strings.TrimSpace(c.PageSize))]; ok {
		c.PageSize = canon
	}
	if c.Margins == nil {
		c.Margins = &Margins{Top: DefaultMargin, Bottom: DefaultMargin, Left: DefaultMargin, Right: DefaultMargin}
	}
	if c.FontFamily == "" {
		c.FontFamily = DefaultFontFamily
	}
	if c.DefaultLocale == "" {
		c.DefaultLocale = DefaultLocale
	}
	if c.Compliance == "" {
		c.Compliance = DefaultCompliance
	}

	for i := range t.Sections {
		s := &t.Sections[i]
		s.Type = SectionType(strings.ToLower(strings.TrimSpace(string(s.Type))))
		s.Align = strings.ToLower(strings.TrimSpace(s.Align))
		if s.Align == "" {
			s.Align = "left"
		}
		if s.TableConfig != nil {
			s.TableConfig.Source = strings.ToLower(strings.TrimSpace(s.TableConfig.Source))
			for j := range s.TableConfig.Columns {
				col := &s.TableConfig.Columns[j]
				col.Format = normalizeFormat(col.Format)
				col.Align = strings.ToLower(strings.TrimSpace(col.Align))
				if col.Align == "" {
					col.Align = "left"
				}
			}
		}
		if s.Content != nil {
			for j := range s.Content.Items {
				s.Content.Items[j].Format = normalizeFormat(s.Content.Items[j].Format)
			}
			if b := s.Content.Barcode; b != nil {
				b.Type = strings.ToLower(strings.TrimSpace(b.Type))
				if b.Type == "" {
					b.Type = "qr"
				}
				if b.Field == "" {
					b.Field = "quote.number"
				}
			}
		}
	}
}

// normalizeFormat maps unknown formats to FormatString.
func normalizeFormat(f string) string {
	switch f = strings.ToLower(strings.TrimSpace(f)); f {
	case FormatCurrency, FormatDate, FormatDecimal:
		return f
	default:
		return FormatString
	}
}

// Clone returns a deep copy of t.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		cp := *t
		return &cp
	}
	var cp Template
	if err := json.Unmarshal(b, &cp); err != nil {
		cp = *t
	}
	return &cp
}
