package ast

import (
	"fmt"
	"strings"

	"github.com/takoeight0821/rastercalc/internal/token"
)

// AST

type Node interface {
	fmt.Stringer
	Base() token.Token
	// Plate applies the given function to each child node.
	// If f returns an error, f also must return the original argument n.
	// It is similar to Visitor pattern.
	// FYI: https://hackage.haskell.org/package/lens-5.2.3/docs/Control-Lens-Plated.html
	Plate(error, func(Node, error) (Node, error)) (Node, error)
}

type Number struct {
	token.Token
}

func (n Number) String() string {
	return parenthesize("number", lexeme(n.Token)).String()
}

func (n *Number) Base() token.Token {
	return n.Token
}

func (n *Number) Plate(err error, _ func(Node, error) (Node, error)) (Node, error) {
	return n, err
}

// Value returns the parsed literal.
func (n *Number) Value() float64 {
	v, _ := n.Literal.(float64)
	return v
}

var _ Node = &Number{}

// RefKind classifies what an identifier refers to. It is filled in by the
// resolve pass.
type RefKind int

const (
	Unresolved RefKind = iota
	Alias
	Keyword
)

type Ident struct {
	Name token.Token
	Ref  RefKind
}

func (i Ident) String() string {
	switch i.Ref {
	case Alias:
		return parenthesize("raster", lexeme(i.Name)).String()
	case Keyword:
		return parenthesize("keyword", lexeme(i.Name)).String()
	}
	return parenthesize("ident", lexeme(i.Name)).String()
}

func (i *Ident) Base() token.Token {
	return i.Name
}

func (i *Ident) Plate(err error, _ func(Node, error) (Node, error)) (Node, error) {
	return i, err
}

var _ Node = &Ident{}

type Paren struct {
	Expr Node
}

func (p Paren) String() string {
	return parenthesize("paren", p.Expr).String()
}

func (p *Paren) Base() token.Token {
	return p.Expr.Base()
}

func (p *Paren) Plate(err error, f func(Node, error) (Node, error)) (Node, error) {
	p.Expr, err = f(p.Expr, err)
	return p, err
}

var _ Node = &Paren{}

type Unary struct {
	Op   token.Token
	Expr Node
}

func (u Unary) String() string {
	return parenthesize("unary", symbol(u.Op), u.Expr).String()
}

func (u *Unary) Base() token.Token {
	return u.Op
}

func (u *Unary) Plate(err error, f func(Node, error) (Node, error)) (Node, error) {
	u.Expr, err = f(u.Expr, err)
	return u, err
}

var _ Node = &Unary{}

type Binary struct {
	Left  Node
	Op    token.Token
	Right Node
}

func (b Binary) String() string {
	return parenthesize("binary", b.Left, symbol(b.Op), b.Right).String()
}

func (b *Binary) Base() token.Token {
	return b.Op
}

func (b *Binary) Plate(err error, f func(Node, error) (Node, error)) (Node, error) {
	b.Left, err = f(b.Left, err)
	b.Right, err = f(b.Right, err)
	return b, err
}

var _ Node = &Binary{}

type Call struct {
	Func token.Token
	Args []Node
}

func (c Call) String() string {
	return parenthesize("call", lexeme(c.Func), concat(c.Args)).String()
}

func (c *Call) Base() token.Token {
	return c.Func
}

// Name returns the lower-cased function name.
func (c *Call) Name() string {
	return strings.ToLower(c.Func.Lexeme)
}

func (c *Call) Plate(err error, f func(Node, error) (Node, error)) (Node, error) {
	for i, arg := range c.Args {
		c.Args[i], err = f(arg, err)
	}
	return c, err
}

var _ Node = &Call{}

type lexeme token.Token

func (l lexeme) String() string {
	return l.Lexeme
}

type symbol token.Token

func (s symbol) String() string {
	return token.TokenKind(s.Kind).Symbol()
}

// parenthesize takes a head string and a variadic number of nodes that implement the fmt.Stringer interface.
// It returns a fmt.Stringer that represents a string where each node is parenthesized and separated by a space.
// If the head string is not empty, it is added at the beginning of the string.
func parenthesize(head string, elems ...fmt.Stringer) fmt.Stringer {
	var b strings.Builder
	b.WriteString("(")
	elemsStr := concat(elems).String()
	if head != "" {
		b.WriteString(head)
	}
	if elemsStr != "" {
		if head != "" {
			b.WriteString(" ")
		}
		b.WriteString(elemsStr)
	}
	b.WriteString(")")
	return &b
}

// concat takes a slice of nodes that implement the fmt.Stringer interface.
// It returns a fmt.Stringer that represents a string where each node is separated by a space.
func concat[T fmt.Stringer](elems []T) fmt.Stringer {
	var b strings.Builder
	for i, elem := range elems {
		// ignore empty string
		// e.g. concat({}) == ""
		str := elem.String()
		if str == "" {
			continue
		}
		if i != 0 {
			b.WriteString(" ")
		}
		b.WriteString(str)
	}
	return &b
}

// Traverse the [Node] in depth-first order.
// f is called for each node.
// If f returns an error, f also must return the original argument n.
// If n has children, Traverse modifies each child before n.
// Otherwise, n is directly applied to f.
func Traverse(n Node, f func(Node, error) (Node, error)) (Node, error) {
	n, err := n.Plate(nil, func(n Node, err error) (Node, error) {
		m, ferr := Traverse(n, f)
		if err != nil {
			return m, err
		}
		return m, ferr
	})
	return f(n, err)
}

func Children(n Node) []Node {
	var children []Node
	_, err := n.Plate(nil, func(n Node, _ error) (Node, error) {
		children = append(children, n)
		return n, nil
	})
	if err != nil {
		panic(fmt.Errorf("unexpected error: %w", err))
	}
	return children
}

func Universe(n Node) []Node {
	var nodes []Node
	_, err := Traverse(n, func(n Node, _ error) (Node, error) {
		nodes = append(nodes, n)
		return n, nil
	})
	if err != nil {
		panic(fmt.Errorf("unexpected error: %w", err))
	}
	return nodes
}
