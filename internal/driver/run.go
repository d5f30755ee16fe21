package driver

import (
	"errors"
	"fmt"

	"github.com/takoeight0821/rastercalc/internal/ast"
	"github.com/takoeight0821/rastercalc/internal/calcerr"
	"github.com/takoeight0821/rastercalc/internal/lexer"
	"github.com/takoeight0821/rastercalc/internal/parser"
)

type Pass interface {
	Init([]ast.Node) error
	Run([]ast.Node) ([]ast.Node, error)
}

type PassRunner struct {
	passes   []Pass
	grouping parser.Grouping
}

func NewPassRunner(grouping parser.Grouping) *PassRunner {
	return &PassRunner{grouping: grouping}
}

// AddPass adds a pass to the end of the pass list.
func (r *PassRunner) AddPass(pass Pass) {
	r.passes = append(r.passes, pass)
}

// Run executes passes in order.
// If an error occurs, it stops the execution and returns the current program.
func (r *PassRunner) Run(program []ast.Node) ([]ast.Node, error) {
	for _, pass := range r.passes {
		err := pass.Init(program)
		if err != nil {
			return program, err
		}
		program, err = pass.Run(program)
		if err != nil {
			return program, err
		}
	}

	return program, nil
}

// RunSource normalizes, lexes and parses one expression, then executes
// passes in order. An empty expression yields an empty program.
func (r *PassRunner) RunSource(source string) ([]ast.Node, error) {
	source = lexer.Normalize(source)
	tokens, err := lexer.Lex(source)
	if err != nil {
		return nil, err
	}

	node, err := parser.NewParser(tokens, source, r.grouping).Parse()
	if err != nil {
		return nil, err
	}
	if node == nil {
		return []ast.Node{}, nil
	}

	program, err := r.Run([]ast.Node{node})
	return program, withSource(err, source)
}

// Compile turns source into a single resolved expression. It returns a nil
// node for an empty expression.
func Compile(source string, grouping parser.Grouping, passes ...Pass) (ast.Node, error) {
	r := NewPassRunner(grouping)
	for _, pass := range passes {
		r.AddPass(pass)
	}

	program, err := r.RunSource(source)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	if len(program) == 0 {
		return nil, nil
	}
	return program[0], nil
}

func withSource(err error, source string) error {
	var se calcerr.SyntaxError
	if errors.As(err, &se) && se.Expr == "" {
		se.Expr = source
		return se
	}
	return err
}
