package resolve_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/takoeight0821/rastercalc/internal/calcerr"
	"github.com/takoeight0821/rastercalc/internal/driver"
	"github.com/takoeight0821/rastercalc/internal/parser"
	"github.com/takoeight0821/rastercalc/internal/resolve"
)

type table map[string]string

func (t table) Lookup(alias string) (string, bool) {
	path, ok := t[alias]
	return path, ok
}

var aliases = table{"IMAGE1": "/data/dem.dep", "IMAGE2": "/data/slope.dep"}

func TestResolve(t *testing.T) {
	t.Parallel()
	testcases := []struct {
		input    string
		expected string
	}{
		{"IMAGE1+pi", "(binary (raster IMAGE1) + (keyword pi))"},
		{"Sqrt(E)", "(call Sqrt (keyword E))"},
		{"if(IMAGE1>IMAGE2, nodata, 1)", "(call if (binary (raster IMAGE1) > (raster IMAGE2)) (keyword nodata) (number 1))"},
		{"del(IMAGE1, IMAGE2)", "(call del (raster IMAGE1) (raster IMAGE2))"},
		{"not(IMAGE1)", "(call not (raster IMAGE1))"},
	}

	for _, testcase := range testcases {
		node, err := driver.Compile(testcase.input, parser.RightToLeft, resolve.NewResolver(aliases))
		if err != nil {
			t.Errorf("Compile(%q) returned error: %v", testcase.input, err)
			continue
		}
		if diff := cmp.Diff(testcase.expected, node.String()); diff != "" {
			t.Errorf("Compile(%q) mismatch (-want +got):\n%s", testcase.input, diff)
		}
	}
}

func TestNotDefined(t *testing.T) {
	t.Parallel()
	_, err := driver.Compile("IMAGE1+IMAGE3", parser.RightToLeft, resolve.NewResolver(aliases))
	var notDefined resolve.NotDefinedError
	if !errors.As(err, &notDefined) {
		t.Fatalf("Compile returned %v, want NotDefinedError", err)
	}
	if notDefined.Name.Lexeme != "IMAGE3" || notDefined.Name.Pos != 7 {
		t.Errorf("NotDefinedError names %q at %d", notDefined.Name.Lexeme, notDefined.Name.Pos)
	}

	// Without an alias table only keywords resolve.
	if _, err := driver.Compile("IMAGE1", parser.RightToLeft, resolve.NewResolver(nil)); !errors.As(err, &notDefined) {
		t.Errorf("Compile without aliases returned %v", err)
	}
}

func TestCalls(t *testing.T) {
	t.Parallel()
	testcases := []struct {
		input string
		msg   string
	}{
		{"sin(1,2)", "sin expects 1 argument(s), got 2"},
		{"not()", "not expects 1 to 2 argument(s), got 0"},
		{"if(1)", "if expects 3 argument(s), got 1"},
		{"delete()", "delete expects at least 1 argument(s), got 0"},
	}

	for _, testcase := range testcases {
		_, err := driver.Compile(testcase.input, parser.RightToLeft, resolve.NewResolver(aliases))
		var syntax calcerr.SyntaxError
		if !errors.As(err, &syntax) {
			t.Errorf("Compile(%q) returned %v, want SyntaxError", testcase.input, err)
			continue
		}
		if syntax.Msg != testcase.msg {
			t.Errorf("Compile(%q) reported %q, want %q", testcase.input, syntax.Msg, testcase.msg)
		}
		if syntax.Expr != testcase.input {
			t.Errorf("Compile(%q) error carries %q", testcase.input, syntax.Expr)
		}
	}

	_, err := driver.Compile("slope(IMAGE1)", parser.RightToLeft, resolve.NewResolver(aliases))
	var unsupported calcerr.UnsupportedOperationError
	if !errors.As(err, &unsupported) || unsupported.Op != "slope" {
		t.Errorf("unknown function returned %v", err)
	}
}

func TestFunctionsAreLowerCase(t *testing.T) {
	t.Parallel()
	for name, arity := range resolve.Functions {
		for _, r := range name {
			if r < 'a' || r > 'z' {
				if r < '0' || r > '9' {
					t.Errorf("function %q is not lower-case", name)
				}
			}
		}
		if arity.Min < 1 {
			t.Errorf("%s accepts no arguments", name)
		}
	}
}
