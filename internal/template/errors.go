package template

import (
	"errors"
	"fmt"
)

// Structural template errors, wrapped in *StructureError.
var (
	ErrEmptySubject     = errors.New("first line (subject) must not be empty")
	ErrMissingSeparator = errors.New("second line must be empty")
	ErrEmptyBody        = errors.New("third line (body) must not be empty")
)

// StructureError reports a malformed template file.
type StructureError struct {
	Path string
	Line int
	Err  error
}

func (e *StructureError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("template line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("template %s line %d: %v", e.Path, e.Line, e.Err)
}

func (e *StructureError) Unwrap() error {
	return e.Err
}

// MissingPlaceholderError is returned by Render when a placeholder has no value.
type MissingPlaceholderError struct {
	Name string
}

func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("no value for placeholder {%s}", e.Name)
}

// SyntaxError reports an unbalanced brace in a pattern.
type SyntaxError struct {
	Pattern string
	Offset  int
	Msg     string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("template syntax error at offset %d: %s", e.Offset, e.Msg)
}
