package autocomplete

import (
	"fmt"

	"github.com/thisisjab/herdcomp/fieldmap"
)

type SuggestionType string

const (
	TypeCommand  SuggestionType = "command"
	TypeItem     SuggestionType = "item"
	TypeOperator SuggestionType = "operator"
	TypeValue    SuggestionType = "value"
	TypeTemplate SuggestionType = "template"
)

// Suggestion is one autocomplete candidate. Score is the match distance,
// lower is better; statically listed suggestions have a zero score.
type Suggestion struct {
	Type        SuggestionType `json:"type"`
	Value       string         `json:"value"`
	Label       string         `json:"label"`
	Description string         `json:"description,omitempty"`
	Score       float64        `json:"score,omitempty"`
}

var commands = []Suggestion{
	{Type: TypeCommand, Value: "LIST", Label: "LIST", Description: "Display animal data in columns"},
	{Type: TypeCommand, Value: "SHOW", Label: "SHOW", Description: "Display animal data (alias for LIST)"},
	{Type: TypeCommand, Value: "SUM", Label: "SUM", Description: "Sum numeric values"},
	{Type: TypeCommand, Value: "COUNT", Label: "COUNT", Description: "Count animals"},
	{Type: TypeCommand, Value: "PCT", Label: "PCT", Description: "Calculate percentages"},
	{Type: TypeCommand, Value: "GRAPH", Label: "GRAPH", Description: "Display horizontal bar graph"},
	{Type: TypeCommand, Value: "PLOT", Label: "PLOT", Description: "Display scatter plot"},
	{Type: TypeCommand, Value: "EVENTS", Label: "EVENTS", Description: "List events for animals"},
	{Type: TypeCommand, Value: "BREDSUM", Label: "BREDSUM", Description: "Breeding summary report"},
}

var operators = []Suggestion{
	{Type: TypeOperator, Value: "FOR", Label: "FOR", Description: "Filter condition"},
	{Type: TypeOperator, Value: "BY", Label: "BY", Description: "Sort ascending"},
	{Type: TypeOperator, Value: "DOWNBY", Label: "DOWNBY", Description: "Sort descending"},
}

var templates = []Suggestion{
	{Type: TypeTemplate, Value: "LIST ID PEN LACT DIM RC", Label: "LIST ID PEN LACT DIM RC", Description: "Basic animal list"},
	{Type: TypeTemplate, Value: "LIST ID FOR RC=5", Label: "LIST ID FOR RC=5", Description: "List pregnant cows"},
	{Type: TypeTemplate, Value: "LIST ID FOR RC=3 DIM>60", Label: "LIST ID FOR RC=3 DIM>60", Description: "Cows ready to breed"},
	{Type: TypeTemplate, Value: "LIST ID MILK SCC FOR SCC>200", Label: "LIST ID MILK SCC FOR SCC>200", Description: "High SCC cows"},
	{Type: TypeTemplate, Value: "SUM MILK BY PEN", Label: "SUM MILK BY PEN", Description: "Total milk by pen"},
	{Type: TypeTemplate, Value: "COUNT FOR RC=5 BY PEN", Label: "COUNT FOR RC=5 BY PEN", Description: "Pregnant cows per pen"},
}

func itemSuggestions() []Suggestion {
	entries := fieldmap.Entries()
	out := make([]Suggestion, 0, len(entries))
	for _, e := range entries {
		out = append(out, Suggestion{Type: TypeItem, Value: e.Code, Label: e.Code, Description: e.Description})
	}
	return out
}

func codeValueSuggestions(code string, values []fieldmap.CodeValue) []Suggestion {
	out := make([]Suggestion, 0, len(values))
	for _, v := range values {
		value := fmt.Sprintf("%s=%d", code, v.Code)
		out = append(out, Suggestion{
			Type:        TypeValue,
			Value:       value,
			Label:       value,
			Description: v.Label + ": " + v.Description,
		})
	}
	return out
}
