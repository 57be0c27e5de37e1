package quotepdf

import (
	"errors"
	"fmt"

	"github.com/lvillar/quotepdf/safectx"
	"github.com/lvillar/quotepdf/tplstore"
)

// Sentinel errors for the failure classes callers act on.
var (
	ErrTemplateNotFound = tplstore.ErrNotFound
	ErrNoCharges        = safectx.ErrNoCharges
	ErrInvalidInput     = safectx.ErrInvalidInput
	ErrRender           = errors.New("quotepdf: render failed")
	ErrStorage          = errors.New("quotepdf: storage failed")
	ErrNoSellSide       = errors.New("quotepdf: sell-side charges could not be resolved")
)

// Error is a failure of one engine operation. It wraps the underlying error
// and names the operation for context.
type Error struct {
	Op  string // operation name, e.g. "build_context", "render"
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("quotepdf.%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("quotepdf.%s: unknown error", e.Op)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op string, err error) *Error {
	return &Error{Op: op, Err: err}
}
