// Package tplstore loads quotation templates from files, a SQL database or
// Redis. Every store returns templates that already passed doctpl.Validate.
package tplstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/lvillar/quotepdf/doctpl"
)

// ErrNotFound is returned when a store has no template with the given id.
var ErrNotFound = errors.New("tplstore: template not found")

// Store fetches templates by identifier.
type Store interface {
	Get(ctx context.Context, id string) (*doctpl.Template, error)
}

// Builtin serves the templates compiled into doctpl.
type Builtin struct{}

// Get returns a fresh copy of the built-in template id.
func (Builtin) Get(_ context.Context, id string) (*doctpl.Template, error) {
	for _, known := range doctpl.BuiltinIDs() {
		if known == id {
			return doctpl.Builtin(id)
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
}

// Chain asks each store in turn and returns the first template found. Errors
// other than ErrNotFound stop the search.
type Chain []Store

// Get implements Store.
func (c Chain) Get(ctx context.Context, id string) (*doctpl.Template, error) {
	for _, s := range c {
		tpl, err := s.Get(ctx, id)
		if err == nil {
			return tpl, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
}

func decode(id string, data []byte) (*doctpl.Template, error) {
	tpl, err := doctpl.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("tplstore: template %q: %w", id, err)
	}
	if tpl.ID == "" {
		tpl.ID = id
	}
	return tpl, nil
}
