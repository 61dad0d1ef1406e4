package scene

import (
	"errors"
	"fmt"
)

// Code identifies a class of parse failure reported on the error channel.
type Code string

const (
	CodeInvalidFile               Code = "InvalidFile"
	CodeDependencyParsingError    Code = "DependencyParsingError"
	CodeMissingGeometryDependency Code = "MissingGeometryDependency"
	CodeMissingMaterialDependency Code = "MissingMaterialDependency"
	CodeMissingTextureDependency  Code = "MissingTextureDependency"
)

var (
	ErrInvalidFile               = errors.New("invalid scene file")
	ErrDependencyParsing         = errors.New("dependency parsing error")
	ErrMissingGeometryDependency = errors.New("missing geometry dependency")
	ErrMissingMaterialDependency = errors.New("missing material dependency")
	ErrMissingTextureDependency  = errors.New("missing texture dependency")
	ErrShortBuffer               = errors.New("scene: short buffer")
)

var codeSentinels = map[Code]error{
	CodeInvalidFile:               ErrInvalidFile,
	CodeDependencyParsingError:    ErrDependencyParsing,
	CodeMissingGeometryDependency: ErrMissingGeometryDependency,
	CodeMissingMaterialDependency: ErrMissingMaterialDependency,
	CodeMissingTextureDependency:  ErrMissingTextureDependency,
}

// Error is a coded parse error. It matches the sentinel for its code with
// errors.Is and unwraps to the underlying cause, if any.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// NewError builds a coded error with an optional cause.
func NewError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	s, ok := codeSentinels[e.Code]
	return ok && s == target
}
