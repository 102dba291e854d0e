package lexer

import (
	"strings"

	"github.com/thisisjab/herdcomp/querier/token"
)

// Lexer splits a command line into highlightable tokens. Unlike the parser it
// never fails: every input character ends up in exactly one token, so the
// concatenated literals always reproduce the input.
type Lexer struct {
	input   []rune
	pos     int  // position of the current character in the input string
	readPos int  // position of the next character to be read
	char    rune // current character being processed
}

var keywords = toSet(
	"LIST", "SHOW", "COUNT", "SUM", "PCT",
	"GRAPH", "PLOT", "EGRAPH", "EPLOT",
	"EVENTS", "BREDSUM", "ECON", "MONITOR",
	"COWVAL", "SIRES", "FILEOUT", "CHKFILE",
	"ALTER", "SETUP", "LOGON", "CREATE", "ABSORB",
)

var operators = toSet("FOR", "BY", "DOWNBY", "AND", "OR", "SINCE", "SORT")

// DairyComp item names. Wider than the mapped items so that valid legacy
// commands still highlight even when the interpreter cannot execute them.
var items = toSet(
	"ID", "PEN", "VC", "REG", "EID", "CBRD", "DID", "DREG", "DBRD", "SID",
	"BDAT", "EDAT", "FDAT", "CDAT", "DDAT", "HDAT", "BLDAT", "ABDAT", "ADDAT", "VDAT", "TDAT", "ARDAT",
	"LACT", "RC", "SIR1", "SIR2", "LSIR", "SIRC", "TBRD",
	"TOTM", "TOTF", "TOTP", "MILK", "FCM", "305ME", "PCTP", "PCTF", "SCC",
	"PSIRC", "PDIM", "PDOPN", "PTBRD", "PTOTM", "PTOTF", "PTOTP",
	"DIM", "DOPN", "DDRY", "DUE", "DCC", "TODAY", "DSLH", "AGE",
	"EDAY", "EC", "INT", "REM",
	"CNTL", "RELV", "TPEN", "OLDID", "CODA", "COD1", "COD2", "XDAT", "NOTE", "TECH",
	"STAT", "CAR", "PVET", "VETC", "RPRO",
	"DCCP", "HINT", "CALF1", "CALF2", "CALF3",
	"BFDAT", "MKDAT", "LTDAT", "COST", "PN", "HPDAT", "RCDAT", "THD",
	"SCDAT", "SCTIM", "SCMTH", "SCPEN", "BNAME", "EASE", "CWVAL", "PGVAL",
	"SIR3", "SIR4", "SYDAT", "CLIV", "CVACC", "SF", "EXPCALF", "NAME", "AGEFR",
	"BCS",
)

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

func New(input string) *Lexer {
	l := &Lexer{[]rune(input), 0, 0, 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.char = 0
	} else {
		l.char = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) NextToken() token.Token {
	var tok token.Token

	switch l.char {
	case 0:
		if l.pos >= len(l.input) {
			return token.Token{Type: token.EOF, Literal: ""}
		}
		tok = token.Token{Type: token.TEXT, Literal: string(l.char)}
	case '\\':
		if isLetter(l.peekChar()) || isDigit(l.peekChar()) {
			return l.readSwitch()
		}
		tok = token.Token{Type: token.TEXT, Literal: "\\"}
	case '>', '<':
		if l.peekChar() == '=' || (l.char == '<' && l.peekChar() == '>') {
			first := l.char
			l.readChar()
			tok = token.Token{Type: token.COMPARISON, Literal: string(first) + string(l.char)}
		} else {
			tok = token.Token{Type: token.COMPARISON, Literal: string(l.char)}
		}
	case '=':
		tok = token.Token{Type: token.COMPARISON, Literal: "="}
	default:
		if isDigit(l.char) {
			return l.readNumber()
		} else if isLetter(l.char) {
			return l.readWord()
		}
		tok = token.Token{Type: token.TEXT, Literal: string(l.char)}
	}

	l.readChar()
	return tok
}

// Tokens drains the lexer, excluding the trailing EOF.
func (l *Lexer) Tokens() []token.Token {
	var out []token.Token
	for {
		tok := l.NextToken()
		if tok.Type == token.EOF {
			return out
		}
		out = append(out, tok)
	}
}

func (l *Lexer) readSwitch() token.Token {
	pos := l.pos
	l.readChar() // backslash

	for isLetter(l.char) || isDigit(l.char) {
		l.readChar()
	}

	return token.Token{Type: token.SWITCH, Literal: string(l.input[pos:l.pos])}
}

// readNumber reads digits with an optional fractional part. A trailing dot
// without digits is not part of the number.
func (l *Lexer) readNumber() token.Token {
	pos := l.pos

	for isDigit(l.char) {
		l.readChar()
	}

	if l.char == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.char) {
			l.readChar()
		}
	}

	return token.Token{Type: token.NUMBER, Literal: string(l.input[pos:l.pos])}
}

func (l *Lexer) readWord() token.Token {
	pos := l.pos

	for isLetter(l.char) || isDigit(l.char) {
		l.readChar()
	}

	literal := string(l.input[pos:l.pos])

	return token.Token{Type: lookupWord(literal), Literal: literal}
}

func lookupWord(word string) token.TokenType {
	w := strings.ToUpper(word)
	if _, ok := keywords[w]; ok {
		return token.KEYWORD
	}
	if _, ok := operators[w]; ok {
		return token.OPERATOR
	}
	if _, ok := items[w]; ok {
		return token.ITEM
	}
	return token.TEXT
}

func isLetter(r rune) bool {
	return 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z'
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}
