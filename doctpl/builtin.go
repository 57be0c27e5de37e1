package doctpl

import (
	"embed"
	"fmt"
)

//go:embed templates/default.json templates/mgl.yaml
var builtinFS embed.FS

// Built-in template identifiers.
const (
	BuiltinDefault = "default"
	BuiltinMGL     = "mgl"
)

var builtinFiles = map[string]string{
	BuiltinDefault: "templates/default.json",
	BuiltinMGL:     "templates/mgl.yaml",
}

// Builtin returns a fresh copy of the named built-in template.
func Builtin(id string) (*Template, error) {
	name, ok := builtinFiles[id]
	if !ok {
		return nil, fmt.Errorf("doctpl: no built-in template %q", id)
	}
	data, err := builtinFS.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// DefaultTemplate returns the template used when none is supplied or the
// requested one is invalid.
func DefaultTemplate() *Template {
	t, err := Builtin(BuiltinDefault)
	if err != nil {
		panic("doctpl: built-in default template is invalid: " + err.Error())
	}
	return t
}

// BuiltinIDs lists the built-in template identifiers.
func BuiltinIDs() []string {
	return []string{BuiltinDefault, BuiltinMGL}
}
