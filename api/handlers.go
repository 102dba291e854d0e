package api

import (
	"net/http"

	"github.com/thisisjab/herdcomp/autocomplete"
	"github.com/thisisjab/herdcomp/querier/ast"
	"github.com/thisisjab/herdcomp/querier/highlight"
	"github.com/thisisjab/herdcomp/querier/parser"
	"github.com/thisisjab/herdcomp/section"
)

type commandInput struct {
	Command string `json:"command" validate:"required,max=1000"`
}

type parseOutput struct {
	Command *ast.Command    `json:"command"`
	Section section.Section `json:"section,omitempty"`
	Route   string          `json:"route"`
}

func (s *server) parseHandler(w http.ResponseWriter, r *http.Request) {
	var input commandInput
	if !s.decode(w, r, &input) {
		return
	}

	cmd, err := parser.Parse(input.Command)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	out := parseOutput{Command: cmd, Route: section.DefaultRoute}
	if sec, ok := section.For(cmd); ok {
		out.Section = sec
		out.Route = sec.Route()
	}

	s.ok(w, out)
}

// executeHandler always answers 200 once the body is valid. Command failures
// are reported inside the result.
func (s *server) executeHandler(w http.ResponseWriter, r *http.Request) {
	var input commandInput
	if !s.decode(w, r, &input) {
		return
	}

	session, _ := sessionFromContext(r.Context())
	res := s.services.Executor.ExecuteLine(r.Context(), session, input.Command)

	s.writeJson(w, http.StatusOK, apiResponse{ //nolint:errcheck
		Success:   res.Success,
		Message:   res.Error,
		ErrorKind: res.ErrorKind,
		Data:      res,
	}, nil)
}

type suggestInput struct {
	Text string `json:"text" validate:"max=1000"`

	// Cursor defaults to the end of the text.
	Cursor *int `json:"cursor" validate:"omitnil,min=0"`
}

type suggestOutput struct {
	Context     autocomplete.Context      `json:"context"`
	Suggestions []autocomplete.Suggestion `json:"suggestions"`
}

func (s *server) suggestHandler(w http.ResponseWriter, r *http.Request) {
	var input suggestInput
	if !s.decode(w, r, &input) {
		return
	}

	runes := []rune(input.Text)
	cursor := len(runes)
	if input.Cursor != nil && *input.Cursor < cursor {
		cursor = *input.Cursor
	}

	suggestions := s.services.Autocomplete.Suggestions(input.Text, cursor)
	if suggestions == nil {
		suggestions = []autocomplete.Suggestion{}
	}

	s.ok(w, suggestOutput{
		Context:     autocomplete.DetectContext(string(runes[:cursor])),
		Suggestions: suggestions,
	})
}

type completeInput struct {
	Text       string                  `json:"text" validate:"max=1000"`
	Cursor     int                     `json:"cursor" validate:"min=0"`
	Suggestion autocomplete.Suggestion `json:"suggestion"`
}

type completeOutput struct {
	Text   string `json:"text"`
	Cursor int    `json:"cursor"`
}

func (s *server) completeHandler(w http.ResponseWriter, r *http.Request) {
	var input completeInput
	if !s.decode(w, r, &input) {
		return
	}

	text, cursor := s.services.Autocomplete.Completion(input.Text, input.Cursor, input.Suggestion)
	s.ok(w, completeOutput{Text: text, Cursor: cursor})
}

type highlightInput struct {
	Text string `json:"text" validate:"max=1000"`
}

func (s *server) highlightHandler(w http.ResponseWriter, r *http.Request) {
	var input highlightInput
	if !s.decode(w, r, &input) {
		return
	}

	segments := highlight.Highlight(input.Text)
	if segments == nil {
		segments = []highlight.Segment{}
	}

	s.ok(w, map[string]any{"segments": segments})
}

type sectionOutput struct {
	Name     section.Section `json:"name"`
	Template string          `json:"template"`
	Route    string          `json:"route"`
}

func (s *server) sectionsHandler(w http.ResponseWriter, r *http.Request) {
	all := section.All()
	out := make([]sectionOutput, 0, len(all))
	for _, sec := range all {
		out = append(out, sectionOutput{Name: sec, Template: sec.Template(), Route: sec.Route()})
	}

	s.ok(w, map[string]any{"sections": out})
}

// decode reads and validates the body, writing the error response itself.
func (s *server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := s.readJson(w, r, dst); err != nil {
		s.handleError(w, r, err)
		return false
	}

	if err := validateInput(dst); err != nil {
		s.handleError(w, r, err)
		return false
	}

	return true
}
