package lexer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/takoeight0821/rastercalc/internal/calcerr"
	"github.com/takoeight0821/rastercalc/internal/token"
)

// Sentinel characters for the two-character comparison operators. None of
// them is otherwise legal in an expression.
const (
	equalSentinel        = "@"
	notEqualSentinel     = "~"
	greaterEqualSentinel = "#"
	lessEqualSentinel    = "$"
)

var normalizer = strings.NewReplacer(
	"==", equalSentinel,
	"!=", notEqualSentinel,
	">=", greaterEqualSentinel,
	"<=", lessEqualSentinel,
	"π", strconv.FormatFloat(math.Pi, 'f', -1, 64),
	"×", "*",
	"÷", "/",
	"−", "-",
	"√", "sqrt",
)

// Normalize removes all whitespace from expr, expands the (-) negate
// shorthand, and folds multi-character operators into single characters.
func Normalize(expr string) string {
	expr = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, expr)
	expr = strings.ReplaceAll(expr, "(-)", "-1*")
	return normalizer.Replace(expr)
}

// Lex splits a normalized expression into tokens.
func Lex(source string) ([]token.Token, error) {
	l := lexer{
		source:  source,
		tokens:  []token.Token{},
		start:   0,
		current: 0,
	}

	var err error

	for !l.isAtEnd() {
		err = errors.Join(err, l.scanToken())
	}

	l.tokens = append(l.tokens, token.Token{Kind: token.EOF, Lexeme: "", Pos: l.current, Literal: nil})

	return l.tokens, err
}

type lexer struct {
	source string
	tokens []token.Token

	start   int // start of current lexeme
	current int // current position in source
}

func (l lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

func (l lexer) peek() rune {
	if l.isAtEnd() {
		return '\x00'
	}
	runeValue, _ := utf8.DecodeRuneInString(l.source[l.current:])

	return runeValue
}

func (l lexer) peekNext() rune {
	if l.isAtEnd() {
		return '\x00'
	}
	_, width := utf8.DecodeRuneInString(l.source[l.current:])
	if l.current+width >= len(l.source) {
		return '\x00'
	}
	runeValue, _ := utf8.DecodeRuneInString(l.source[l.current+width:])

	return runeValue
}

func (l *lexer) advance() rune {
	runeValue, width := utf8.DecodeRuneInString(l.source[l.current:])
	l.current += width

	return runeValue
}

func (l *lexer) addToken(kind token.TokenKind, literal any) {
	text := l.source[l.start:l.current]
	l.tokens = append(l.tokens, token.Token{Kind: kind, Lexeme: text, Pos: l.start, Literal: literal})
}

func (l *lexer) scanToken() error {
	l.start = l.current
	char := l.advance()
	if k, ok := getOperator(char); ok {
		l.addToken(k, nil)

		return nil
	}
	switch {
	case isDigit(char) || (char == '.' && isDigit(l.peek())):
		return l.number()
	case isAlpha(char):
		l.identifier()

		return nil
	}

	return calcerr.SyntaxError{Expr: l.source, Pos: l.start, Msg: fmt.Sprintf("unexpected character %q", char)}
}

func getOperator(char rune) (token.TokenKind, bool) {
	operators := map[rune]token.TokenKind{
		'(':  token.LEFTPAREN,
		')':  token.RIGHTPAREN,
		',':  token.COMMA,
		'^':  token.CARET,
		'*':  token.STAR,
		'/':  token.SLASH,
		'\\': token.BACKSLASH,
		'%':  token.PERCENT,
		'+':  token.PLUS,
		'-':  token.MINUS,
		'=':  token.ASSIGN,
		'@':  token.EQUAL,
		'~':  token.NOTEQUAL,
		'>':  token.GREATER,
		'<':  token.LESS,
		'#':  token.GREATEREQUAL,
		'$':  token.LESSEQUAL,
	}
	k, ok := operators[char]

	return k, ok
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func (l *lexer) number() error {
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' {
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	// An exponent only when digits follow, so that "2e" is not swallowed.
	if l.peek() == 'e' || l.peek() == 'E' {
		next := l.peekNext()
		if isDigit(next) {
			l.advance()
			for isDigit(l.peek()) {
				l.advance()
			}
		} else if (next == '+' || next == '-') && l.current+2 < len(l.source) && isDigit(rune(l.source[l.current+2])) {
			l.advance()
			l.advance()
			for isDigit(l.peek()) {
				l.advance()
			}
		}
	}

	text := l.source[l.start:l.current]
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return calcerr.SyntaxError{Expr: l.source, Pos: l.start, Msg: fmt.Sprintf("invalid number %q", text)}
	}
	l.addToken(token.NUMBER, value)

	return nil
}

func isAlpha(c rune) bool {
	return unicode.IsLetter(c) || c == '_'
}

func (l *lexer) identifier() {
	for isAlpha(l.peek()) || isDigit(l.peek()) {
		l.advance()
	}
	l.addToken(token.IDENT, nil)
}
