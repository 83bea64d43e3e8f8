package projectdocs

import (
	"fmt"
	"strings"
)

// UnknownTemplateError reports a template id that exists for no slot, when
// the input is not a usable path either.
type UnknownTemplateError struct {
	Slot  Slot
	Input string
	Valid []string
}

func (e *UnknownTemplateError) Error() string {
	return fmt.Sprintf("no %s template %q (valid: %s, \"none\", or a path to an existing file)",
		e.Slot, e.Input, strings.Join(e.Valid, ", "))
}

// PathNotFoundError reports a link source that does not exist.
type PathNotFoundError struct {
	Slot  Slot
	Input string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("%s document %q does not exist", e.Slot, e.Input)
}

// PathTraversalError reports a link source escaping the project root.
type PathTraversalError struct {
	Slot  Slot
	Input string
}

func (e *PathTraversalError) Error() string {
	return fmt.Sprintf("%s document %q resolves outside the project root", e.Slot, e.Input)
}
