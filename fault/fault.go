package fault

import (
	"errors"
	"fmt"
)

type Code string

const (
	UnknownCode          Code = "unknown"
	NotFoundCode         Code = "not_found"
	BadInputCode         Code = "bad_input"
	PermissionDeniedCode Code = "permission_denied"

	// Interpreter taxonomy.
	ParseCode          Code = "parse"
	ValidationCode     Code = "validation"
	AuthCode           Code = "auth"
	BackendCode        Code = "backend"
	NotImplementedCode Code = "not_implemented"
)

type FieldErrorsMetadata map[string][]string

type Fault struct {
	code     Code
	message  string
	metadata any
	original error
}

func New(code Code, message string) Fault {
	return Fault{
		code:    code,
		message: message,
	}
}

// Newf is New with a formatted message.
func Newf(code Code, format string, args ...any) Fault {
	return New(code, fmt.Sprintf(format, args...))
}

func (f Fault) WithMetadata(metadata any) Fault {
	e := f
	e.metadata = metadata
	return e
}

func (f Fault) WithOriginal(original error) Fault {
	e := f
	e.original = original
	return e
}

func (f Fault) Code() Code {
	return f.code
}

func (f Fault) Message() string {
	return f.message
}

func (f Fault) Metadata() any {
	return f.metadata
}

func (f Fault) Original() error {
	return f.original
}

func (f Fault) Unwrap() error {
	return f.original
}

func (f Fault) Error() string {
	if f.original != nil {
		if f.message == "" {
			return f.original.Error()
		}
		return fmt.Sprintf("%s: %v", f.message, f.original)
	}
	return f.message
}

// CodeOf returns the code of the first Fault in err's chain, or UnknownCode.
func CodeOf(err error) Code {
	var f Fault
	if errors.As(err, &f) {
		return f.code
	}
	return UnknownCode
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
