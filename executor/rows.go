package executor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/thisisjab/herdcomp/fault"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json names, which is how the rows come back from the backend.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// decodeRows decodes procedure rows into typed rows and validates them.
// A row that does not fit is a backend error.
func decodeRows[T any](procedure string, rows []map[string]any) ([]T, error) {
	out := make([]T, 0, len(rows))

	for i, row := range rows {
		b, err := json.Marshal(row)
		if err != nil {
			return nil, rowError(procedure, i, err)
		}

		var t T
		if err := json.Unmarshal(b, &t); err != nil {
			return nil, rowError(procedure, i, err)
		}

		if err := validate.Struct(t); err != nil {
			return nil, rowError(procedure, i, err)
		}

		out = append(out, t)
	}

	return out, nil
}

func rowError(procedure string, i int, err error) error {
	return fault.Newf(fault.BackendCode, "unexpected row %d from %s", i, procedure).WithOriginal(err)
}

// number is a nullable float that also accepts numeric strings, which is how
// NUMERIC columns are often encoded.
type number struct {
	value float64
	valid bool
}

func (n *number) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*n = number{}
		return nil
	}

	s := string(b)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}

	if strings.TrimSpace(s) == "" {
		*n = number{}
		return nil
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("invalid number %s", b)
	}

	*n = number{value: f, valid: true}
	return nil
}

// ptr returns nil for null.
func (n number) ptr() *float64 {
	if !n.valid {
		return nil
	}
	v := n.value
	return &v
}

func (n number) float() float64 {
	return n.value
}

func (n number) int() int64 {
	return int64(n.value)
}

// text is a string that also accepts numbers, so labels such as lactation
// groups decode whatever their column type.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = text(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid text %s", b)
	}

	*t = text(n.String())
	return nil
}

// scalar returns the single value of a procedure that returns one number.
func scalar(rows []map[string]any) (float64, bool) {
	if len(rows) == 0 {
		return 0, false
	}

	for _, v := range rows[0] {
		if f, ok := toFloat(v); ok {
			return f, true
		}
	}

	return 0, false
}
