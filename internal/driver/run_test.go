package driver_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/takoeight0821/rastercalc/internal/ast"
	"github.com/takoeight0821/rastercalc/internal/calcerr"
	"github.com/takoeight0821/rastercalc/internal/driver"
	"github.com/takoeight0821/rastercalc/internal/parser"
)

// recorder is a pass that remembers the programs it saw.
type recorder struct {
	name  string
	log   *[]string
	fail  error
	inits int
}

func (r *recorder) Init([]ast.Node) error {
	r.inits++
	return nil
}

func (r *recorder) Run(program []ast.Node) ([]ast.Node, error) {
	for _, node := range program {
		*r.log = append(*r.log, r.name+" "+node.String())
	}
	return program, r.fail
}

func TestPassOrder(t *testing.T) {
	t.Parallel()
	var log []string
	first := &recorder{name: "first", log: &log}
	second := &recorder{name: "second", log: &log}

	r := driver.NewPassRunner(parser.RightToLeft)
	r.AddPass(first)
	r.AddPass(second)
	program, err := r.RunSource("1 + 2")
	if err != nil {
		t.Fatal(err)
	}
	if len(program) != 1 {
		t.Fatalf("RunSource returned %d nodes", len(program))
	}
	expected := []string{
		"first (binary (number 1) + (number 2))",
		"second (binary (number 1) + (number 2))",
	}
	if diff := cmp.Diff(expected, log); diff != "" {
		t.Errorf("passes mismatch (-want +got):\n%s", diff)
	}
	if first.inits != 1 || second.inits != 1 {
		t.Errorf("each pass should be initialized once")
	}
}

func TestPassError(t *testing.T) {
	t.Parallel()
	var log []string
	boom := errors.New("boom")
	r := driver.NewPassRunner(parser.RightToLeft)
	r.AddPass(&recorder{name: "failing", log: &log, fail: boom})
	r.AddPass(&recorder{name: "skipped", log: &log})

	if _, err := r.RunSource("1"); !errors.Is(err, boom) {
		t.Errorf("RunSource returned %v", err)
	}
	if diff := cmp.Diff([]string{"failing (number 1)"}, log); diff != "" {
		t.Errorf("passes mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile(t *testing.T) {
	t.Parallel()
	node, err := driver.Compile("", parser.RightToLeft)
	if err != nil || node != nil {
		t.Errorf("Compile(\"\") = %v, %v", node, err)
	}

	node, err = driver.Compile("2 × (3 − 1)", parser.LeftToRight)
	if err != nil {
		t.Fatal(err)
	}
	expected := "(binary (number 2) * (paren (binary (number 3) - (number 1))))"
	if diff := cmp.Diff(expected, node.String()); diff != "" {
		t.Errorf("Compile mismatch (-want +got):\n%s", diff)
	}

	_, err = driver.Compile("(1 + 2", parser.RightToLeft)
	var syntax calcerr.SyntaxError
	if !errors.As(err, &syntax) {
		t.Fatalf("Compile returned %v, want SyntaxError", err)
	}
	if syntax.Expr != "(1+2" {
		t.Errorf("the error should carry the normalized expression, got %q", syntax.Expr)
	}
}
