package parser

import (
	"fmt"
	"strings"

	"github.com/takoeight0821/rastercalc/internal/calcerr"
	"github.com/takoeight0821/rastercalc/internal/token"
)

// Precedence orders operators by binding strength. The lowest value binds
// last, so it is where an expression is split first.
type Precedence int

const (
	Assignment Precedence = iota + 1
	LessEqual
	GreaterEqual
	LessThan
	GreaterThan
	NotEqual
	Equal
	Plus
	Modulus
	IntDiv
	_ // unused slot kept so that Times and Power keep their historical values
	Times
	Power
	Unary
	None
)

// Of returns the precedence of a binary operator kind, or None.
func Of(kind token.TokenKind) Precedence {
	switch kind {
	case token.CARET:
		return Power
	case token.STAR, token.SLASH:
		return Times
	case token.BACKSLASH:
		return IntDiv
	case token.PERCENT:
		return Modulus
	case token.PLUS, token.MINUS:
		return Plus
	case token.ASSIGN:
		return Assignment
	case token.EQUAL:
		return Equal
	case token.NOTEQUAL:
		return NotEqual
	case token.GREATER:
		return GreaterThan
	case token.LESS:
		return LessThan
	case token.GREATEREQUAL:
		return GreaterEqual
	case token.LESSEQUAL:
		return LessEqual
	}
	return None
}

// Grouping decides which of several equal-precedence top-level operators an
// expression is split at.
type Grouping int

const (
	// RightToLeft splits at the leftmost operator, so a-b-c is a-(b-c).
	// This is the grouping the calculator documents.
	RightToLeft Grouping = iota
	// LeftToRight splits at the rightmost operator, so a-b-c is (a-b)-c,
	// the usual arithmetic grouping.
	LeftToRight
)

func (g Grouping) String() string {
	if g == LeftToRight {
		return "left-to-right"
	}
	return "right-to-left"
}

// ParseGrouping accepts the names produced by Grouping.String.
func ParseGrouping(s string) (Grouping, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "right-to-left", "rtl":
		return RightToLeft, nil
	case "left-to-right", "ltr":
		return LeftToRight, nil
	}
	return RightToLeft, fmt.Errorf("unknown grouping %q", s)
}

func (g Grouping) prefers(prec, best Precedence) bool {
	if g == LeftToRight {
		return prec <= best
	}
	return prec < best
}

// LowestPrecedence scans tokens for the top-level operator that binds last.
// It returns the index of that operator, or -1 if every token is an operand
// or is nested inside parentheses. The tokens must not include EOF.
func LowestPrecedence(tokens []token.Token, grouping Grouping) (int, error) {
	best := None
	bestPos := -1
	parens := 0
	isUnary := true

	for pos, t := range tokens {
		nextUnary := false
		switch {
		case t.Kind == token.LEFTPAREN:
			parens++
			nextUnary = true
		case t.Kind == token.RIGHTPAREN:
			parens--
			if parens < 0 {
				return -1, calcerr.SyntaxError{Pos: t.Pos, Msg: "too many )s"}
			}
		case t.Kind == token.COMMA:
			nextUnary = true
		case t.Kind.IsOperator():
			nextUnary = true
			if parens != 0 {
				break
			}
			if (t.Kind == token.PLUS || t.Kind == token.MINUS) && isUnary {
				// unary operators are handled after splitting
				break
			}
			if prec := Of(t.Kind); grouping.prefers(prec, best) {
				best = prec
				bestPos = pos
			}
		}
		isUnary = nextUnary
	}

	if parens != 0 {
		return -1, calcerr.SyntaxError{Pos: -1, Msg: "missing )"}
	}

	return bestPos, nil
}
