package executor

import (
	"errors"

	"github.com/thisisjab/herdcomp/fault"
)

type ResultType string

const (
	TypeList  ResultType = "list"
	TypeCount ResultType = "count"
	TypeSum   ResultType = "sum"
	TypeError ResultType = "error"
	TypeText  ResultType = "text"
)

// Row is one output row, keyed by display column.
type Row map[string]any

type DiagnosticKind string

const (
	UnmappedField     DiagnosticKind = "unmapped_field"
	UnparsedCondition DiagnosticKind = "unparsed_condition"
	InvalidOperator   DiagnosticKind = "invalid_operator"
	IgnoredCondition  DiagnosticKind = "ignored_condition"
)

// Diagnostic records a part of the command that was dropped instead of
// failing the whole command.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Field   string         `json:"field,omitempty"`
	Message string         `json:"message"`
}

// Result is the normalized outcome of one command. A successful result never
// carries an error, and an error result is never successful.
type Result struct {
	Success    bool           `json:"success"`
	Type       ResultType     `json:"type"`
	Data       []Row          `json:"data,omitempty"`
	Columns    []string       `json:"columns,omitempty"`
	Count      *int64         `json:"count,omitempty"`
	Aggregates map[string]any `json:"aggregates,omitempty"`
	Text       string         `json:"text,omitempty"`

	Error     string     `json:"error,omitempty"`
	ErrorKind fault.Code `json:"errorKind,omitempty"`

	// ExecutionTime is in milliseconds.
	ExecutionTime int64        `json:"executionTime"`
	Diagnostics   []Diagnostic `json:"diagnostics,omitempty"`
}

// Outcome summarizes the result for metrics: success, partial when parts of
// the command were dropped, or the error kind.
func (r Result) Outcome() string {
	switch {
	case !r.Success:
		return string(r.ErrorKind)
	case len(r.Diagnostics) > 0:
		return "partial"
	default:
		return "success"
	}
}

// errorResult converts err into an error result. Errors that carry no fault
// code come from the backend.
func errorResult(err error) Result {
	code := fault.BackendCode
	message := err.Error()

	var f fault.Fault
	if errors.As(err, &f) {
		code = f.Code()
		if f.Message() != "" {
			message = f.Message()
		}
		if code == fault.BackendCode && f.Original() != nil {
			message = err.Error()
		}
	}

	return Result{
		Success:   false,
		Type:      TypeError,
		Error:     message,
		ErrorKind: code,
	}
}

func textResult(text string) Result {
	return Result{Success: true, Type: TypeText, Text: text}
}

func int64Ptr(n int64) *int64 {
	return &n
}
