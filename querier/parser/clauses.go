package parser

import (
	"regexp"
	"strings"

	"github.com/thisisjab/herdcomp/querier/ast"
)

var (
	switchPattern = regexp.MustCompile(`(?i)\\([A-Z0-9]+)`)
	sortPattern   = regexp.MustCompile(`(?i)(?:^|\s)(DOWN)?BY\s+([A-Z][A-Z0-9]*)`)
	groupPattern  = regexp.MustCompile(`(?i)(?:^|\s)BY\s+([A-Z][A-Z0-9]*)`)
	forPattern    = regexp.MustCompile(`(?i)(?:^|\s)FOR(?:\s+|$)`)
	andPattern    = regexp.MustCompile(`(?i)\s+AND\s+`)
	itemPattern   = regexp.MustCompile(`(?i)^[A-Z][A-Z0-9]*$`)
)

// extractSwitches collects every \TOKEN and blanks them out of the text.
func extractSwitches(rest string) (string, []string) {
	matches := switchPattern.FindAllStringSubmatch(rest, -1)
	if len(matches) == 0 {
		return rest, nil
	}

	switches := make([]string, 0, len(matches))
	for _, m := range matches {
		switches = append(switches, strings.ToUpper(m[1]))
	}

	return switchPattern.ReplaceAllString(rest, " "), switches
}

// extractSort honors the first (DOWN)BY clause and drops everything from it onwards.
func extractSort(rest string) (string, *ast.Sort) {
	loc := sortPattern.FindStringSubmatchIndex(rest)
	if loc == nil {
		return rest, nil
	}

	sort := &ast.Sort{
		Field:      strings.ToUpper(rest[loc[4]:loc[5]]),
		Descending: loc[2] >= 0,
	}

	return rest[:loc[0]], sort
}

// extractGroup removes the first BY clause, keeping the text on both sides.
func extractGroup(rest string) (string, string) {
	loc := groupPattern.FindStringSubmatchIndex(rest)
	if loc == nil {
		return rest, ""
	}

	field := strings.ToUpper(rest[loc[2]:loc[3]])

	return rest[:loc[0]] + " " + rest[loc[1]:], field
}

// extractConditions splits off the FOR clause. Fragments that cannot be read
// as conditions are returned separately and never cause an error.
func extractConditions(rest string) (string, []ast.Condition, []string) {
	loc := forPattern.FindStringIndex(rest)
	if loc == nil {
		return rest, nil, nil
	}

	var conditions []ast.Condition

	tokens, rejected := conditionTokens(rest[loc[1]:])
	for _, tok := range tokens {
		if c, ok := parseCondition(tok); ok {
			conditions = append(conditions, c)
		} else {
			rejected = append(rejected, tok)
		}
	}

	return rest[:loc[0]], conditions, rejected
}

func extractItems(rest string) []string {
	var items []string
	for _, word := range strings.Fields(rest) {
		if itemPattern.MatchString(word) {
			items = append(items, strings.ToUpper(word))
		}
	}
	return items
}
