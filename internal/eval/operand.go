package eval

import (
	"fmt"
	"strconv"

	"github.com/takoeight0821/rastercalc/internal/rasterop"
)

// Operand is the value of an evaluated subexpression.
type Operand interface {
	fmt.Stringer
	operand()
}

type Scalar float64

func (s Scalar) String() string {
	return formatFloat(float64(s))
}

func (Scalar) operand() {}

var _ Operand = Scalar(0)

// NoData is the nodata keyword. It behaves as a scalar holding the
// configured no-data value, but raster operations receive it symbolically
// and use the no-data value of the raster they are computed over.
type NoData struct {
	Value float64
}

func (n NoData) String() string {
	return formatFloat(n.Value)
}

func (NoData) operand() {}

var _ Operand = NoData{}

// Raster is a raster operand backed by files on disk.
type Raster struct {
	*Handle
}

func (r Raster) String() string {
	return r.Path
}

func (Raster) operand() {}

var _ Operand = Raster{}

// Text is a display-only result, such as the echo of a scalar assignment.
type Text string

func (t Text) String() string {
	return string(t)
}

func (Text) operand() {}

var _ Operand = Text("")

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// scalarOf returns the numeric value of a scalar-like operand.
func scalarOf(o Operand) (float64, bool) {
	switch o := o.(type) {
	case Scalar:
		return float64(o), true
	case NoData:
		return o.Value, true
	}
	return 0, false
}

// argument renders o as an argument of a raster operation.
func argument(op string, o Operand) (string, error) {
	switch o := o.(type) {
	case Scalar:
		return o.String(), nil
	case NoData:
		return rasterop.NoDataArg, nil
	case Raster:
		return o.Path, nil
	}
	return "", unsupported(op, "%q is not a raster or a number", o)
}
