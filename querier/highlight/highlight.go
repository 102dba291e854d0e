// Package highlight colors DairyComp command lines for display.
package highlight

import (
	"html"
	"strings"

	"github.com/thisisjab/herdcomp/querier/lexer"
	"github.com/thisisjab/herdcomp/querier/token"
)

// Colors per token type, in hex.
var Colors = map[token.TokenType]string{
	token.KEYWORD:    "#61AFEF",
	token.OPERATOR:   "#98C379",
	token.ITEM:       "#E5C07B",
	token.COMPARISON: "#56B6C2",
	token.NUMBER:     "#D19A66",
	token.SWITCH:     "#C678DD",
	token.TEXT:       "#ABB2BF",
}

type Segment struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Color string `json:"color"`
}

// Highlight tokenizes input into colored segments. Blank input has no segments.
func Highlight(input string) []Segment {
	if strings.TrimSpace(input) == "" {
		return nil
	}

	tokens := lexer.New(input).Tokens()
	segments := make([]Segment, 0, len(tokens))

	for _, tok := range tokens {
		segments = append(segments, Segment{
			Type:  tok.Type.String(),
			Value: tok.Literal,
			Color: Colors[tok.Type],
		})
	}

	return segments
}

// HTML renders the segments as inline-styled spans.
func HTML(input string) string {
	var b strings.Builder
	for _, s := range Highlight(input) {
		b.WriteString(`<span style="color: `)
		b.WriteString(s.Color)
		b.WriteString(`">`)
		b.WriteString(html.EscapeString(s.Value))
		b.WriteString(`</span>`)
	}
	return b.String()
}
