package token

import "fmt"

type TokenKind int

const (
	EOF TokenKind = iota

	// Single-character tokens.
	LEFTPAREN
	RIGHTPAREN
	COMMA

	// Literals and identifiers.
	NUMBER
	IDENT

	// Operators. The two-character comparisons are folded into single
	// sentinel characters by the lexer before scanning.
	CARET        // ^
	STAR         // *
	SLASH        // /
	BACKSLASH    // \
	PERCENT      // %
	PLUS         // +
	MINUS        // -
	ASSIGN       // =
	EQUAL        // == (@)
	NOTEQUAL     // != (~)
	GREATER      // >
	LESS         // <
	GREATEREQUAL // >= (#)
	LESSEQUAL    // <= ($)
)

var kindNames = [...]string{
	EOF:          "EOF",
	LEFTPAREN:    "LEFTPAREN",
	RIGHTPAREN:   "RIGHTPAREN",
	COMMA:        "COMMA",
	NUMBER:       "NUMBER",
	IDENT:        "IDENT",
	CARET:        "CARET",
	STAR:         "STAR",
	SLASH:        "SLASH",
	BACKSLASH:    "BACKSLASH",
	PERCENT:      "PERCENT",
	PLUS:         "PLUS",
	MINUS:        "MINUS",
	ASSIGN:       "ASSIGN",
	EQUAL:        "EQUAL",
	NOTEQUAL:     "NOTEQUAL",
	GREATER:      "GREATER",
	LESS:         "LESS",
	GREATEREQUAL: "GREATEREQUAL",
	LESSEQUAL:    "LESSEQUAL",
}

func (k TokenKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// IsOperator reports whether k is a binary or unary operator.
func (k TokenKind) IsOperator() bool {
	return k >= CARET && k <= LESSEQUAL
}

// Symbol returns the conventional spelling of an operator kind.
func (k TokenKind) Symbol() string {
	switch k {
	case CARET:
		return "^"
	case STAR:
		return "*"
	case SLASH:
		return "/"
	case BACKSLASH:
		return "\\"
	case PERCENT:
		return "%"
	case PLUS:
		return "+"
	case MINUS:
		return "-"
	case ASSIGN:
		return "="
	case EQUAL:
		return "=="
	case NOTEQUAL:
		return "!="
	case GREATER:
		return ">"
	case LESS:
		return "<"
	case GREATEREQUAL:
		return ">="
	case LESSEQUAL:
		return "<="
	case LEFTPAREN:
		return "("
	case RIGHTPAREN:
		return ")"
	case COMMA:
		return ","
	}
	return ""
}

type Token struct {
	Kind    TokenKind
	Lexeme  string
	Pos     int // byte offset in the normalized source
	Literal any
}

func (t Token) String() string {
	return fmt.Sprintf("{%v, %q, %d, %v}", t.Kind, t.Lexeme, t.Pos, t.Literal)
}

func (t Token) Base() Token {
	return t
}
