package scene

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// ErrInterrupted is returned when pass was cancelled through context.
// Tree state after interruption is undefined.
var ErrInterrupted = errors.New("interrupted")

// StructuralError is authoring error, names offending node or group
type StructuralError struct {
	Subject string
	Reason  string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: %s", e.Subject, e.Reason)
}

func Structuralf(subject string, format string, args ...interface{}) error {
	return &StructuralError{Subject: subject, Reason: fmt.Sprintf(format, args...)}
}

// IOError is failure to open, read or write file
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Interrupted polls context between steps of tree walk
func Interrupted(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(ErrInterrupted, err.Error())
	}
	return nil
}

func IsInterrupted(err error) bool {
	return errors.Is(err, ErrInterrupted)
}

func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

func IsIO(err error) bool {
	var ie *IOError
	return errors.As(err, &ie)
}
