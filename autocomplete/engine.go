// Package autocomplete suggests commands, items and coded values for a
// partially typed command line.
package autocomplete

import (
	"regexp"
	"slices"
	"strings"

	"github.com/thisisjab/herdcomp/fieldmap"
)

type Context string

const (
	ContextCommand Context = "command"
	ContextItem    Context = "item"
	ContextValue   Context = "value"
	ContextGeneral Context = "general"
)

var (
	whitespace     = regexp.MustCompile(`\s`)
	afterFor       = regexp.MustCompile(`\sFOR\s+\w*$`)
	afterBy        = regexp.MustCompile(`\s(?:DOWN)?BY\s+\w*$`)
	itemCommand    = regexp.MustCompile(`^(?:LIST|SHOW|SUM|COUNT|PCT)\s+`)
	clauseKeyword  = regexp.MustCompile(`\s(?:FOR|BY|DOWNBY)\s`)
	trailingCmp    = regexp.MustCompile(`[=<>]+$`)
	lastWord       = regexp.MustCompile(`[A-Z0-9]+$`)
	rcValueContext = regexp.MustCompile(`\bRC\s*=?\s*\d*$`)
	vcValueContext = regexp.MustCompile(`\bVC\s*=?\s*\d*$`)
	partialToken   = regexp.MustCompile(`(?i)[A-Z0-9=<>]*$`)
)

// Engine holds prebuilt search indexes and is safe for concurrent use.
type Engine struct {
	commands  *index
	items     *index
	templates *index

	itemList []Suggestion
	rc       []Suggestion
	vc       []Suggestion
}

func New() *Engine {
	items := itemSuggestions()

	return &Engine{
		commands:  newIndex(commands, operators),
		items:     newIndex(items),
		templates: newIndex(templates),
		itemList:  items,
		rc:        codeValueSuggestions("RC", fieldmap.RCValues()),
		vc:        codeValueSuggestions("VC", fieldmap.VCValues()),
	}
}

// DetectContext classifies what the user is typing at the end of before,
// the text up to the cursor.
func DetectContext(before string) Context {
	upper := strings.ToUpper(before)

	switch {
	case !whitespace.MatchString(upper):
		return ContextCommand
	case afterFor.MatchString(upper):
		return ContextValue
	case afterBy.MatchString(upper):
		return ContextItem
	case itemCommand.MatchString(upper) && !clauseKeyword.MatchString(upper):
		return ContextItem
	case trailingCmp.MatchString(upper):
		return ContextValue
	default:
		return ContextGeneral
	}
}

// Suggestions returns candidates for the text at cursor, a rune offset
// into text.
func (e *Engine) Suggestions(text string, cursor int) []Suggestion {
	runes := []rune(text)
	cursor = clampCursor(cursor, len(runes))

	if strings.TrimSpace(text) == "" || cursor == 0 {
		return slices.Concat(commands[:5], templates[:3])
	}

	before := strings.ToUpper(string(runes[:cursor]))
	query := lastWord.FindString(before)

	switch DetectContext(before) {
	case ContextCommand:
		return e.searchCommands(query)
	case ContextItem:
		return e.searchItems(query)
	case ContextValue:
		return e.searchValues(before, query)
	default:
		return e.searchAll(query)
	}
}

// Completion replaces the partial token ending at cursor with the chosen
// suggestion followed by a space. It returns the new text and cursor.
func (e *Engine) Completion(text string, cursor int, s Suggestion) (string, int) {
	runes := []rune(text)
	cursor = clampCursor(cursor, len(runes))

	before := string(runes[:cursor])
	after := string(runes[cursor:])

	loc := partialToken.FindStringIndex(before)
	newBefore := before[:loc[0]] + s.Value + " "

	return newBefore + after, len([]rune(newBefore))
}

func (e *Engine) searchCommands(query string) []Suggestion {
	if query == "" {
		return slices.Clone(commands[:5])
	}
	return e.commands.search(query, 5)
}

func (e *Engine) searchItems(query string) []Suggestion {
	if query == "" {
		return slices.Clone(e.itemList[:10])
	}
	return e.items.search(query, 10)
}

func (e *Engine) searchValues(before, query string) []Suggestion {
	switch {
	case rcValueContext.MatchString(before):
		return slices.Clone(e.rc)
	case vcValueContext.MatchString(before):
		return slices.Clone(e.vc)
	default:
		return e.searchItems(query)
	}
}

func (e *Engine) searchAll(query string) []Suggestion {
	if query == "" {
		return slices.Concat(commands[:2], e.itemList[:5], templates[:2])
	}

	out := slices.Concat(
		e.commands.search(query, 2),
		e.items.search(query, 5),
		e.templates.search(query, 2),
	)
	slices.SortStableFunc(out, func(a, b Suggestion) int {
		switch {
		case a.Score < b.Score:
			return -1
		case a.Score > b.Score:
			return 1
		}
		return 0
	})

	return out
}

func clampCursor(cursor, length int) int {
	return min(max(cursor, 0), length)
}
