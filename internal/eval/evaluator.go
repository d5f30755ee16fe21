// Package eval evaluates raster calculator expressions.
//
// Scalars are computed directly. Whenever an operand is a raster, the
// operation is handed to a rasterop.Dispatcher, which writes its result to a
// temporary raster owned by the line's Session.
package eval

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/takoeight0821/rastercalc/internal/ast"
	"github.com/takoeight0821/rastercalc/internal/calcerr"
	"github.com/takoeight0821/rastercalc/internal/driver"
	"github.com/takoeight0821/rastercalc/internal/logutil"
	"github.com/takoeight0821/rastercalc/internal/parser"
	"github.com/takoeight0821/rastercalc/internal/raster"
	"github.com/takoeight0821/rastercalc/internal/rasterop"
	"github.com/takoeight0821/rastercalc/internal/resolve"
	"github.com/takoeight0821/rastercalc/internal/token"
)

// FilesDeleted is the result of delete.
const FilesDeleted = Text("Files deleted!")

type Evaluator struct {
	dispatcher rasterop.Dispatcher
	grouping   parser.Grouping
	nodata     float64
	logger     *log.Logger
}

type Option func(*Evaluator)

func WithLogger(l *log.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logutil.OrDiscard(l)
	}
}

func WithGrouping(g parser.Grouping) Option {
	return func(e *Evaluator) {
		e.grouping = g
	}
}

// WithNoData sets the value of the nodata keyword where no raster supplies
// one.
func WithNoData(v float64) Option {
	return func(e *Evaluator) {
		e.nodata = v
	}
}

func New(d rasterop.Dispatcher, opts ...Option) *Evaluator {
	e := &Evaluator{
		dispatcher: d,
		grouping:   parser.RightToLeft,
		nodata:     raster.DefaultNoData,
		logger:     logutil.Discard,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate parses and evaluates text, whose raster references have already
// been replaced by aliases registered in sess. An empty expression yields a
// nil operand.
//
// Temporary rasters are released before Evaluate returns, except a
// temporary raster returned as the result, which lives until sess.Close.
func (e *Evaluator) Evaluate(ctx context.Context, sess *Session, text string) (Operand, error) {
	e.logger.Printf("eval: session %d: %s", sess.ID(), text)

	node, err := driver.Compile(text, e.grouping, resolve.NewResolver(sess))
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, nil
	}
	return e.eval(ctx, sess, node)
}

func (e *Evaluator) eval(ctx context.Context, s *Session, node ast.Node) (result Operand, err error) {
	s.enter()
	defer func() {
		if err != nil {
			result = nil
		}
		if cerr := s.leave(result); cerr != nil {
			e.logger.Printf("eval: cleanup: %v", cerr)
		}
	}()

	if cerr := ctx.Err(); cerr != nil {
		return nil, fmt.Errorf("%w: %w", calcerr.ErrCancelled, cerr)
	}

	switch n := node.(type) {
	case *ast.Number:
		return Scalar(n.Value()), nil
	case *ast.Ident:
		return e.ident(s, n)
	case *ast.Paren:
		return e.eval(ctx, s, n.Expr)
	case *ast.Unary:
		return e.unary(ctx, s, n)
	case *ast.Binary:
		if n.Op.Kind == token.ASSIGN {
			return e.assign(ctx, s, n)
		}
		return e.binary(ctx, s, n)
	case *ast.Call:
		return e.call(ctx, s, n)
	}
	return nil, fmt.Errorf("unexpected node %v", node)
}

func (e *Evaluator) ident(s *Session, n *ast.Ident) (Operand, error) {
	switch n.Ref {
	case ast.Alias:
		if h := s.Handle(n.Name.Lexeme); h != nil {
			return Raster{h}, nil
		}
	case ast.Keyword:
		switch keyword(n) {
		case "pi":
			return Scalar(math.Pi), nil
		case "e":
			return Scalar(math.E), nil
		case "nodata":
			return NoData{Value: e.nodata}, nil
		}
	}
	return nil, resolve.NotDefinedError{Name: n.Name}
}

func keyword(n *ast.Ident) string {
	return strings.ToLower(n.Name.Lexeme)
}

func (e *Evaluator) unary(ctx context.Context, s *Session, n *ast.Unary) (Operand, error) {
	operand, err := e.eval(ctx, s, n.Expr)
	if err != nil {
		return nil, err
	}
	if n.Op.Kind == token.PLUS {
		return operand, nil
	}
	return e.applyUnary(ctx, s, "negate", operand)
}

var binaryOps = map[token.TokenKind]string{
	token.CARET:        "power",
	token.STAR:         "multiply",
	token.SLASH:        "divide",
	token.BACKSLASH:    "intdiv",
	token.PERCENT:      "modulo",
	token.PLUS:         "add",
	token.MINUS:        "subtract",
	token.EQUAL:        "eq",
	token.NOTEQUAL:     "ne",
	token.GREATER:      "gt",
	token.LESS:         "lt",
	token.GREATEREQUAL: "ge",
	token.LESSEQUAL:    "le",
}

func (e *Evaluator) binary(ctx context.Context, s *Session, n *ast.Binary) (Operand, error) {
	op, ok := binaryOps[n.Op.Kind]
	if !ok {
		return nil, unsupported(n.Op.Lexeme, "unknown operator")
	}
	left, err := e.eval(ctx, s, n.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.eval(ctx, s, n.Right)
	if err != nil {
		return nil, err
	}
	return e.applyBinary(ctx, s, op, left, right)
}

// assign copies a raster onto the path of the raster on the left. Between
// scalars it only echoes the statement.
func (e *Evaluator) assign(ctx context.Context, s *Session, n *ast.Binary) (Operand, error) {
	left, err := e.eval(ctx, s, n.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.eval(ctx, s, n.Right)
	if err != nil {
		return nil, err
	}

	l, lok := scalarOf(left)
	r, rok := scalarOf(right)
	if lok && rok {
		return Text(formatFloat(l) + "=" + formatFloat(r)), nil
	}

	target, ok := left.(Raster)
	if !ok {
		return nil, unsupported("=", "cannot assign to %s", left)
	}
	source, ok := right.(Raster)
	if !ok {
		return nil, unsupported("=", "cannot assign %s to the raster %s", right, target.Path)
	}
	if err := raster.Copy(source.Path, target.Path); err != nil {
		return nil, err
	}
	e.logger.Printf("eval: %s = %s", target.Path, source.Path)
	return target, nil
}

var unaryFunctions = map[string]string{
	"sin":    "sin",
	"cos":    "cos",
	"tan":    "tan",
	"arcsin": "arcsin",
	"arccos": "arccos",
	"arctan": "arctan",
	"sinh":   "sinh",
	"cosh":   "cosh",
	"tanh":   "tanh",
	"log":    "log10",
	"log10":  "log10",
	"ln":     "ln",
	"log2":   "log2",
	"exp":    "exp",
	"abs":    "abs",
	"sqr":    "sqr",
	"sqrt":   "sqrt",
	"negate": "negate",
}

var binaryFunctions = map[string]string{
	"min": "min",
	"max": "max",
	"pow": "power",
	"and": "and",
	"or":  "or",
	"xor": "xor",
}

func (e *Evaluator) call(ctx context.Context, s *Session, n *ast.Call) (Operand, error) {
	args := make([]Operand, len(n.Args))
	for i, arg := range n.Args {
		var err error
		args[i], err = e.eval(ctx, s, arg)
		if err != nil {
			return nil, err
		}
	}

	name := n.Name()
	if op, ok := unaryFunctions[name]; ok {
		return e.applyUnary(ctx, s, op, args[0])
	}
	if op, ok := binaryFunctions[name]; ok {
		return e.applyBinary(ctx, s, op, args[0], args[1])
	}

	switch name {
	case "not":
		if len(args) == 2 {
			return e.applyBinary(ctx, s, "andnot", args[0], args[1])
		}
		return e.applyUnary(ctx, s, "not", args[0])
	case "isnodata":
		if _, ok := args[0].(Raster); !ok {
			return nil, unsupported(name, "the argument must be a raster")
		}
		return e.dispatch(ctx, s, "isnodata", args...)
	case "if":
		if _, ok := args[0].(Raster); !ok {
			return nil, unsupported(name, "the condition must be a raster")
		}
		return e.dispatch(ctx, s, "ifthenelse", args...)
	case "delete", "del":
		return e.delete(s, name, args)
	}
	return nil, unsupported(n.Func.Lexeme, "unknown function")
}

func (e *Evaluator) delete(s *Session, name string, args []Operand) (Operand, error) {
	for _, arg := range args {
		if _, ok := arg.(Raster); !ok {
			return nil, unsupported(name, "%s is not a raster", arg)
		}
	}
	for _, arg := range args {
		h := arg.(Raster).Handle
		if h.Temp {
			if err := s.release(h); err != nil {
				return nil, err
			}
			continue
		}
		if err := raster.Remove(h.Path); err != nil {
			return nil, err
		}
		e.logger.Printf("eval: deleted %s", h.Path)
	}
	return FilesDeleted, nil
}

func (e *Evaluator) applyUnary(ctx context.Context, s *Session, op string, a Operand) (Operand, error) {
	if v, ok := scalarOf(a); ok {
		z, err := rasterop.ApplyUnary(op, v)
		if err != nil {
			return nil, err
		}
		return Scalar(z), nil
	}
	return e.dispatch(ctx, s, op, a)
}

func (e *Evaluator) applyBinary(ctx context.Context, s *Session, op string, a, b Operand) (Operand, error) {
	x, aok := scalarOf(a)
	y, bok := scalarOf(b)
	if aok && bok {
		z, err := rasterop.ApplyBinary(op, x, y)
		if err != nil {
			return nil, err
		}
		return Scalar(z), nil
	}
	return e.dispatch(ctx, s, op, a, b)
}

// dispatch runs op over the operands and returns its temporary output.
func (e *Evaluator) dispatch(ctx context.Context, s *Session, op string, operands ...Operand) (Operand, error) {
	args := make([]string, 0, len(operands)+1)
	for _, o := range operands {
		arg, err := argument(op, o)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	out := s.newTemp()
	if err := e.dispatcher.Dispatch(ctx, op, append(args, out.Path)); err != nil {
		return nil, err
	}
	return Raster{out}, nil
}

func unsupported(op, format string, args ...any) error {
	return calcerr.UnsupportedOperationError{Op: op, Msg: fmt.Sprintf(format, args...)}
}
