// Package parser builds the AST of a raster calculator expression.
//
// An expression is split at its lowest-precedence top-level operator and each
// side is parsed recursively, which is how the calculator has always grouped
// operators. The AST is built once so that evaluation never re-scans text.
package parser

import (
	"github.com/takoeight0821/rastercalc/internal/ast"
	"github.com/takoeight0821/rastercalc/internal/calcerr"
	"github.com/takoeight0821/rastercalc/internal/token"
)

type Parser struct {
	tokens   []token.Token
	source   string
	grouping Grouping
}

// NewParser creates a parser over the tokens produced by lexer.Lex. source
// is the normalized expression, used only in error messages.
func NewParser(tokens []token.Token, source string, grouping Grouping) *Parser {
	if n := len(tokens); n > 0 && tokens[n-1].Kind == token.EOF {
		tokens = tokens[:n-1]
	}
	return &Parser{tokens: tokens, source: source, grouping: grouping}
}

// Parse parses the whole token stream. An empty stream yields a nil node.
func (p *Parser) Parse() (ast.Node, error) {
	if len(p.tokens) == 0 {
		return nil, nil
	}
	return p.expr(0, len(p.tokens))
}

// expr parses tokens[lo:hi].
func (p *Parser) expr(lo, hi int) (ast.Node, error) {
	if lo >= hi {
		pos := len(p.source)
		if lo < len(p.tokens) {
			pos = p.tokens[lo].Pos
		}
		return nil, p.errorAt(pos, "missing operand")
	}

	split, err := LowestPrecedence(p.tokens[lo:hi], p.grouping)
	if err != nil {
		return nil, p.wrap(err)
	}
	if split >= 0 {
		return p.binary(lo, lo+split, hi)
	}

	first := p.tokens[lo]
	switch first.Kind {
	case token.LEFTPAREN:
		if p.closing(lo) == hi-1 {
			inner, err := p.expr(lo+1, hi-1)
			if err != nil {
				return nil, err
			}
			return &ast.Paren{Expr: inner}, nil
		}
	case token.MINUS:
		operand, err := p.expr(lo+1, hi)
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: first, Expr: operand}, nil
	case token.PLUS:
		return p.expr(lo+1, hi)
	case token.IDENT:
		if hi-lo == 1 {
			return &ast.Ident{Name: first}, nil
		}
		if p.tokens[lo+1].Kind == token.LEFTPAREN && p.closing(lo+1) == hi-1 {
			return p.call(lo, hi)
		}
	case token.NUMBER:
		if hi-lo == 1 {
			return &ast.Number{Token: first}, nil
		}
	}

	return nil, p.errorAt(first.Pos, "malformed expression")
}

func (p *Parser) binary(lo, at, hi int) (ast.Node, error) {
	left, err := p.expr(lo, at)
	if err != nil {
		return nil, err
	}
	right, err := p.expr(at+1, hi)
	if err != nil {
		return nil, err
	}
	return &ast.Binary{Left: left, Op: p.tokens[at], Right: right}, nil
}

// call parses name ( arg, arg, ... ) spanning tokens[lo:hi].
func (p *Parser) call(lo, hi int) (ast.Node, error) {
	name := p.tokens[lo]
	args := []ast.Node{}
	start := lo + 2
	end := hi - 1
	if start == end {
		return &ast.Call{Func: name, Args: args}, nil
	}

	depth := 0
	for i := start; i <= end; i++ {
		if i < end {
			switch p.tokens[i].Kind {
			case token.LEFTPAREN:
				depth++
				continue
			case token.RIGHTPAREN:
				depth--
				continue
			case token.COMMA:
				if depth != 0 {
					continue
				}
			default:
				continue
			}
		}
		arg, err := p.expr(start, i)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		start = i + 1
	}

	return &ast.Call{Func: name, Args: args}, nil
}

// closing returns the index of the parenthesis matching the one at open, or
// -1 if it is unbalanced.
func (p *Parser) closing(open int) int {
	depth := 0
	for i := open; i < len(p.tokens); i++ {
		switch p.tokens[i].Kind {
		case token.LEFTPAREN:
			depth++
		case token.RIGHTPAREN:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func (p *Parser) errorAt(pos int, msg string) error {
	return calcerr.SyntaxError{Expr: p.source, Pos: pos, Msg: msg}
}

func (p *Parser) wrap(err error) error {
	if se, ok := err.(calcerr.SyntaxError); ok {
		se.Expr = p.source
		return se
	}
	return err
}

// HasTopLevelAssignment reports whether tokens contain an = outside all
// parentheses.
func HasTopLevelAssignment(tokens []token.Token) bool {
	depth := 0
	for _, t := range tokens {
		switch t.Kind {
		case token.LEFTPAREN:
			depth++
		case token.RIGHTPAREN:
			depth--
		case token.ASSIGN:
			if depth == 0 {
				return true
			}
		}
	}
	return false
}
