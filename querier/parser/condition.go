package parser

import (
	"slices"
	"strings"

	"github.com/thisisjab/herdcomp/querier/ast"
)

// conditionTokens splits a FOR clause into one token per condition. AND is
// the only separator. Whitespace around an operator is tolerated, so
// "RC = 5" yields the single token "RC=5". OR is not supported: a piece
// containing it is returned whole in rejected.
func conditionTokens(s string) (tokens, rejected []string) {
	for _, piece := range andPattern.Split(strings.TrimSpace(s), -1) {
		fields := strings.Fields(piece)

		if slices.ContainsFunc(fields, isOr) {
			rejected = append(rejected, strings.Join(fields, " "))
			continue
		}

		for i := 0; i < len(fields); i++ {
			tok := fields[i]
			if strings.EqualFold(tok, "AND") {
				continue
			}

			for i+1 < len(fields) && (endsWithOperator(tok) || startsWithOperator(fields[i+1])) {
				i++
				tok += fields[i]
			}

			tokens = append(tokens, tok)
		}
	}

	return tokens, rejected
}

func isOr(field string) bool {
	return strings.EqualFold(field, "OR")
}

// parseCondition splits a token on the first operator, in ast.Operators
// order, that yields exactly two parts.
func parseCondition(tok string) (ast.Condition, bool) {
	for _, op := range ast.Operators {
		parts := strings.Split(tok, string(op))
		if len(parts) != 2 {
			continue
		}

		field := strings.ToUpper(strings.TrimSpace(parts[0]))
		value := strings.ToUpper(strings.TrimSpace(parts[1]))

		if !itemPattern.MatchString(field) || value == "" {
			return ast.Condition{}, false
		}

		return ast.Condition{Field: field, Operator: op, Value: ast.ParseValue(value)}, true
	}

	return ast.Condition{}, false
}

func isOperatorChar(r byte) bool {
	return r == '=' || r == '<' || r == '>'
}

func endsWithOperator(s string) bool {
	return s != "" && isOperatorChar(s[len(s)-1])
}

func startsWithOperator(s string) bool {
	return s != "" && isOperatorChar(s[0])
}
