package rasterop

import (
	"context"
	"fmt"

	"github.com/takoeight0821/rastercalc/internal/calcerr"
)

// Tool is a raster operation registered with a Manager.
type Tool interface {
	Name() string
	Description() string
	// Inputs is the number of arguments before the output path.
	Inputs() int
	Run(ctx context.Context, m *Manager, args []string, out string) error
}

type binaryTool struct {
	name, description string
	f                 binaryFunc
}

func (t binaryTool) Name() string        { return t.name }
func (t binaryTool) Description() string { return t.description }
func (t binaryTool) Inputs() int         { return 2 }

// Run writes no-data where the operation is undefined, such as division by
// zero.
func (t binaryTool) Run(ctx context.Context, m *Manager, args []string, out string) error {
	return m.cellwise(ctx, t.name, args, out, skipNoData(func(v []float64) (float64, bool) {
		z, err := t.f(v[0], v[1])
		return z, err == nil && valid(z)
	}))
}

type unaryTool struct {
	name, description string
	f                 unaryFunc
}

func (t unaryTool) Name() string        { return t.name }
func (t unaryTool) Description() string { return t.description }
func (t unaryTool) Inputs() int         { return 1 }

func (t unaryTool) Run(ctx context.Context, m *Manager, args []string, out string) error {
	return m.cellwise(ctx, t.name, args, out, skipNoData(func(v []float64) (float64, bool) {
		z := t.f(v[0])
		return z, valid(z)
	}))
}

// isNoDataTool marks no-data cells with 1 and valid cells with 0.
type isNoDataTool struct{}

func (isNoDataTool) Name() string        { return "isnodata" }
func (isNoDataTool) Description() string { return "Flags no-data cells" }
func (isNoDataTool) Inputs() int         { return 1 }

func (t isNoDataTool) Run(ctx context.Context, m *Manager, args []string, out string) error {
	return m.cellwise(ctx, t.Name(), args, out, func(_ []float64, nodata []bool) (float64, bool) {
		return boolean(nodata[0]), true
	})
}

// ifThenElseTool selects, cell by cell, the second input where the first is
// true and the third where it is false. The first input must be a raster.
// A no-data condition leaves the output cell no-data, as does selecting a
// no-data branch cell or a branch given as NoDataArg.
type ifThenElseTool struct{}

func (ifThenElseTool) Name() string        { return "ifthenelse" }
func (ifThenElseTool) Description() string { return "Conditional evaluation" }
func (ifThenElseTool) Inputs() int         { return 3 }

func (t ifThenElseTool) Run(ctx context.Context, m *Manager, args []string, out string) error {
	if cond := parseInput(args[0]); !cond.isRaster() {
		return calcerr.UnsupportedOperationError{Op: "if", Msg: "the condition must be a raster"}
	}
	thenND := parseInput(args[1]).nodata
	elseND := parseInput(args[2]).nodata
	return m.cellwise(ctx, t.Name(), args, out, func(v []float64, nodata []bool) (float64, bool) {
		if nodata[0] {
			return 0, false
		}
		if truth(v[0]) {
			return v[1], !nodata[1] && !thenND
		}
		return v[2], !nodata[2] && !elseND
	})
}

var descriptions = map[string]string{
	"add":      "Adds two rasters or a raster and a constant",
	"subtract": "Subtracts the second operand from the first",
	"multiply": "Multiplies two operands",
	"divide":   "Divides the first operand by the second",
	"intdiv":   "Integer division of truncated operands",
	"modulo":   "Floating-point remainder",
	"power":    "Raises the first operand to the power of the second",
	"min":      "Cell-wise minimum",
	"max":      "Cell-wise maximum",
	"eq":       "Equal to",
	"ne":       "Not equal to",
	"gt":       "Greater than",
	"lt":       "Less than",
	"ge":       "Greater than or equal to",
	"le":       "Less than or equal to",
	"and":      "Logical AND",
	"or":       "Logical OR",
	"xor":      "Logical XOR",
	"andnot":   "Logical AND NOT",
	"negate":   "Negation",
	"sin":      "Sine",
	"cos":      "Cosine",
	"tan":      "Tangent",
	"arcsin":   "Inverse sine",
	"arccos":   "Inverse cosine",
	"arctan":   "Inverse tangent",
	"sinh":     "Hyperbolic sine",
	"cosh":     "Hyperbolic cosine",
	"tanh":     "Hyperbolic tangent",
	"log10":    "Base-10 logarithm",
	"ln":       "Natural logarithm",
	"log2":     "Base-2 logarithm",
	"exp":      "Exponential",
	"abs":      "Absolute value",
	"sqr":      "Square",
	"sqrt":     "Square root",
	"not":      "Logical NOT",
}

func defaultTools() []Tool {
	var tools []Tool
	for name, f := range binaryOps {
		tools = append(tools, binaryTool{name: name, description: descriptions[name], f: f})
	}
	for name, f := range unaryOps {
		tools = append(tools, unaryTool{name: name, description: descriptions[name], f: f})
	}
	return append(tools, isNoDataTool{}, ifThenElseTool{})
}

func checkArgs(t Tool, args []string) error {
	if len(args) != t.Inputs()+1 {
		return fmt.Errorf("%s: expected %d input(s) and an output, got %d argument(s)", t.Name(), t.Inputs(), len(args))
	}
	return nil
}
