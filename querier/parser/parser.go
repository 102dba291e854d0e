package parser

import (
	"slices"
	"strings"
	"unicode"

	"github.com/thisisjab/herdcomp/fault"
	"github.com/thisisjab/herdcomp/querier/ast"
)

// Commands the interpreter can parse and execute.
var supported = []string{"LIST", "SHOW", "COUNT", "SUM", "BREDSUM", "PLOT", "EVENTS", "ECON", "COWVAL"}

// Every DairyComp command word the interpreter recognizes, supported or not.
var recognized = []string{
	"LIST", "SHOW", "COUNT", "SUM", "PCT", "GRAPH", "PLOT", "EGRAPH", "EPLOT",
	"EVENTS", "BREDSUM", "ECON", "MONITOR", "COWVAL", "SIRES", "FILEOUT", "CHKFILE",
}

// IsValidCommand reports whether word is a recognized DairyComp command.
func IsValidCommand(word string) bool {
	return slices.Contains(recognized, strings.ToUpper(word))
}

// IsSupported reports whether word is a command Parse accepts.
func IsSupported(word string) bool {
	return slices.Contains(supported, strings.ToUpper(word))
}

// Parse reads a single command line, dispatching on its first word.
func Parse(line string) (*ast.Command, error) {
	raw := strings.TrimSpace(line)
	if raw == "" {
		return nil, fault.New(fault.ParseCode, "Command cannot be empty")
	}

	keyword, rest := splitKeyword(raw)

	switch keyword {
	case "LIST", "SHOW":
		return parseList(keyword, rest, raw), nil
	case "COUNT", "SUM", "PLOT", "EVENTS", "BREDSUM", "ECON", "COWVAL":
		return parseReport(keyword, rest, raw), nil
	}

	if IsValidCommand(keyword) {
		return nil, fault.Newf(fault.NotImplementedCode, "Command %s not yet supported", keyword)
	}

	return nil, fault.Newf(fault.ParseCode, "Unknown command: %s", keyword)
}

// ParseList reads a LIST or SHOW command:
//
//	LIST|SHOW [ITEM...] [FOR cond (AND cond)*] [(DOWN)BY FIELD] [\SWITCH...]
func ParseList(line string) (*ast.Command, error) {
	raw := strings.TrimSpace(line)
	keyword, rest := splitKeyword(raw)

	if keyword != "LIST" && keyword != "SHOW" {
		return nil, fault.New(fault.ParseCode, "Command must start with LIST or SHOW")
	}

	return parseList(keyword, rest, raw), nil
}

// parseList applies the clause extractors in order. Each step removes what it
// matched, so a sort clause cuts off everything after it.
func parseList(keyword, rest, raw string) *ast.Command {
	cmd := &ast.Command{Command: keyword, Raw: raw}

	rest, cmd.Switches = extractSwitches(rest)
	rest, cmd.SortBy = extractSort(rest)
	rest, cmd.Conditions, cmd.Rejected = extractConditions(rest)
	cmd.Items = extractItems(rest)

	return cmd
}

// parseReport handles the grouping commands. The BY clause names a group
// field and may appear before or after FOR.
func parseReport(keyword, rest, raw string) *ast.Command {
	cmd := &ast.Command{Command: keyword, Raw: raw}

	rest, cmd.Switches = extractSwitches(rest)
	rest, cmd.GroupBy = extractGroup(rest)
	rest, cmd.Conditions, cmd.Rejected = extractConditions(rest)
	cmd.Items = extractItems(rest)

	return cmd
}

// splitKeyword cuts the command word at the first space or backslash, so a
// switch may be attached to it as in ECON\PEN.
func splitKeyword(raw string) (string, string) {
	idx := strings.IndexFunc(raw, func(r rune) bool { return unicode.IsSpace(r) || r == '\\' })
	if idx < 0 {
		return strings.ToUpper(raw), ""
	}
	return strings.ToUpper(raw[:idx]), strings.TrimSpace(raw[idx:])
}
