package token

const (
	EOF TokenType = iota

	KEYWORD    // LIST, COUNT, BREDSUM ...
	OPERATOR   // FOR, BY, DOWNBY, AND ...
	ITEM       // ID, DIM, MILK ...
	COMPARISON // = > < >= <= <>
	NUMBER
	SWITCH // \T, \SI ...
	TEXT   // whitespace, unknown words and stray characters
)

type TokenType int

var names = [...]string{
	EOF:        "eof",
	KEYWORD:    "keyword",
	OPERATOR:   "operator",
	ITEM:       "item",
	COMPARISON: "comparison",
	NUMBER:     "number",
	SWITCH:     "switch",
	TEXT:       "text",
}

func (t TokenType) String() string {
	if t < 0 || int(t) >= len(names) {
		return "unknown"
	}
	return names[t]
}

type Token struct {
	Type    TokenType
	Literal string
}
