// Package resolve classifies the identifiers of a parsed expression and
// checks function calls before anything is evaluated.
package resolve

import (
	"fmt"
	"strings"

	"github.com/takoeight0821/rastercalc/internal/ast"
	"github.com/takoeight0821/rastercalc/internal/calcerr"
	"github.com/takoeight0821/rastercalc/internal/token"
)

// AliasTable maps raster aliases to their backing paths.
type AliasTable interface {
	Lookup(alias string) (string, bool)
}

// Arity is the accepted argument count of a function. Max < 0 means any
// number of arguments from Min upward.
type Arity struct {
	Min, Max int
}

func (a Arity) accepts(n int) bool {
	return n >= a.Min && (a.Max < 0 || n <= a.Max)
}

func (a Arity) String() string {
	switch {
	case a.Max < 0:
		return fmt.Sprintf("at least %d", a.Min)
	case a.Min == a.Max:
		return fmt.Sprintf("%d", a.Min)
	}
	return fmt.Sprintf("%d to %d", a.Min, a.Max)
}

var (
	unary    = Arity{1, 1}
	binary   = Arity{2, 2}
	variadic = Arity{1, -1}
)

// Functions lists every function the calculator understands, keyed by
// lower-cased name.
var Functions = map[string]Arity{
	"sin":      unary,
	"cos":      unary,
	"tan":      unary,
	"arcsin":   unary,
	"arccos":   unary,
	"arctan":   unary,
	"sinh":     unary,
	"cosh":     unary,
	"tanh":     unary,
	"log":      unary,
	"log10":    unary,
	"ln":       unary,
	"log2":     unary,
	"exp":      unary,
	"abs":      unary,
	"sqr":      unary,
	"sqrt":     unary,
	"negate":   unary,
	"isnodata": unary,
	"min":      binary,
	"max":      binary,
	"pow":      binary,
	"and":      binary,
	"or":       binary,
	"xor":      binary,
	"not":      {1, 2},
	"if":       {3, 3},
	"delete":   variadic,
	"del":      variadic,
}

// Keywords are the named constants.
var Keywords = map[string]bool{
	"pi":     true,
	"e":      true,
	"nodata": true,
}

type NotDefinedError struct {
	Name token.Token
}

func (e NotDefinedError) Error() string {
	return fmt.Sprintf("at %d: %s is not defined", e.Name.Pos, e.Name.Lexeme)
}

type Resolver struct {
	aliases AliasTable
}

func NewResolver(aliases AliasTable) *Resolver {
	return &Resolver{aliases: aliases}
}

func (r *Resolver) Name() string {
	return "resolve.Resolver"
}

func (r *Resolver) Init([]ast.Node) error {
	return nil
}

func (r *Resolver) Run(program []ast.Node) ([]ast.Node, error) {
	for i, node := range program {
		var err error
		program[i], err = ast.Traverse(node, r.solve)
		if err != nil {
			return program, err
		}
	}
	return program, nil
}

func (r *Resolver) solve(node ast.Node, err error) (ast.Node, error) {
	if err != nil {
		return node, err
	}
	switch n := node.(type) {
	case *ast.Ident:
		if r.aliases != nil {
			if _, ok := r.aliases.Lookup(n.Name.Lexeme); ok {
				n.Ref = ast.Alias
				return n, nil
			}
		}
		if Keywords[strings.ToLower(n.Name.Lexeme)] {
			n.Ref = ast.Keyword
			return n, nil
		}
		return n, NotDefinedError{Name: n.Name}
	case *ast.Call:
		arity, ok := Functions[n.Name()]
		if !ok {
			return n, calcerr.UnsupportedOperationError{Op: n.Func.Lexeme, Msg: "unknown function"}
		}
		if !arity.accepts(len(n.Args)) {
			return n, calcerr.SyntaxError{
				Pos: n.Func.Pos,
				Msg: fmt.Sprintf("%s expects %s argument(s), got %d", n.Name(), arity, len(n.Args)),
			}
		}
	}
	return node, nil
}
