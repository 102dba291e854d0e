package ast

import (
	"encoding/json"
	"regexp"
	"slices"
	"strconv"
)

// Command is the parsed form of a single DairyComp command line.
// Items, Conditions and Switches are nil when the line did not specify them.
type Command struct {
	// Command is the upper-cased command keyword (LIST, COUNT, SUM, ...).
	Command string `json:"command"`

	Items      []string    `json:"items,omitempty"`
	Conditions []Condition `json:"conditions,omitempty"`
	SortBy     *Sort       `json:"sortBy,omitempty"`
	Switches   []string    `json:"switches,omitempty"`

	// GroupBy is the BY field of grouping commands (COUNT, SUM, PLOT).
	GroupBy string `json:"groupBy,omitempty"`

	// Raw is the trimmed input line.
	Raw string `json:"raw"`

	// Rejected holds FOR fragments that could not be read as conditions.
	Rejected []string `json:"rejected,omitempty"`
}

// Sort is a single sort clause.
type Sort struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending"`
}

type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    Value    `json:"value"`
}

// Variant returns the first switch, which commands use to pick a sub-report.
func (c *Command) Variant() string {
	if len(c.Switches) == 0 {
		return ""
	}
	return c.Switches[0]
}

func (c *Command) HasSwitch(s string) bool {
	return slices.Contains(c.Switches, s)
}

// Equal compares two commands field by field.
func (c *Command) Equal(o *Command) bool {
	if c == nil || o == nil {
		return c == o
	}

	if c.Command != o.Command || c.GroupBy != o.GroupBy || c.Raw != o.Raw {
		return false
	}

	if !slices.Equal(c.Items, o.Items) || !slices.Equal(c.Switches, o.Switches) || !slices.Equal(c.Rejected, o.Rejected) {
		return false
	}

	if (c.Items == nil) != (o.Items == nil) || (c.Switches == nil) != (o.Switches == nil) || (c.Conditions == nil) != (o.Conditions == nil) {
		return false
	}

	if !slices.Equal(c.Conditions, o.Conditions) {
		return false
	}

	if (c.SortBy == nil) != (o.SortBy == nil) {
		return false
	}

	return c.SortBy == nil || *c.SortBy == *o.SortBy
}

type Operator string

const (
	OpEqual        Operator = "="
	OpNotEqual     Operator = "<>"
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
)

// Operators lists the comparison operators in the order the parser tries them.
var Operators = []Operator{OpLessEqual, OpGreaterEqual, OpNotEqual, OpEqual, OpGreater, OpLess}

func (o Operator) Valid() bool {
	return slices.Contains(Operators, o)
}

// Value is a condition value: either a number or an upper-cased string.
type Value struct {
	num   float64
	str   string
	isNum bool
}

func Number(v float64) Value {
	return Value{num: v, isNum: true}
}

func String(v string) Value {
	return Value{str: v}
}

var numberPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ParseValue reads a raw condition value. Decimal numbers become numbers,
// anything else (including "NAN" or "INF") stays a string.
func ParseValue(raw string) Value {
	if numberPattern.MatchString(raw) {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return Number(f)
		}
	}
	return String(raw)
}

func (v Value) IsNumber() bool {
	return v.isNum
}

func (v Value) Number() float64 {
	return v.num
}

// String formats the value as the user would type it.
func (v Value) String() string {
	if v.isNum {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.str
}

// Any returns the float64 or string held by the value.
func (v Value) Any() any {
	if v.isNum {
		return v.num
	}
	return v.str
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	switch x := raw.(type) {
	case float64:
		*v = Number(x)
	case string:
		*v = String(x)
	default:
		*v = String(string(b))
	}

	return nil
}
