package rasterop

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/takoeight0821/rastercalc/internal/calcerr"
	"github.com/takoeight0821/rastercalc/internal/raster"
)

// NoDataArg is the argument text standing for the no-data value of the
// raster an operation is computed over.
const NoDataArg = "nodata"

// input is one argument of a cell-by-cell operation: a raster or a constant.
type input struct {
	path   string
	raster *raster.Raster
	value  float64
	nodata bool // constant given as NoDataArg
}

func (in *input) isRaster() bool {
	return in.path != ""
}

// at returns the cell value of the input and whether it is no-data.
// Constants, NoDataArg included, are plain values.
func (in *input) at(row, col int) (float64, bool) {
	if in.raster == nil {
		return in.value, false
	}
	v := in.raster.Value(row, col)
	return v, in.raster.IsNoData(v)
}

func parseInput(arg string) input {
	arg = strings.TrimSpace(arg)
	if strings.EqualFold(arg, NoDataArg) {
		return input{nodata: true}
	}
	if v, err := strconv.ParseFloat(arg, 64); err == nil {
		return input{value: v}
	}
	return input{path: arg}
}

// kernel computes one output cell from the values of the inputs at that
// cell. Returning false leaves the output cell as no-data.
type kernel func(values []float64, nodata []bool) (float64, bool)

// skipNoData wraps f so that a cell where any input is no-data stays no-data.
func skipNoData(f func(values []float64) (float64, bool)) kernel {
	return func(values []float64, nodata []bool) (float64, bool) {
		for _, nd := range nodata {
			if nd {
				return 0, false
			}
		}
		return f(values)
	}
}

// valid reports whether v can be stored as a cell value.
func valid(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// cellwise applies k to every cell of the inputs and saves the result to
// out. The first raster input is the template: it gives the output's size,
// georeferencing and no-data value, and replaces NoDataArg constants.
func (m *Manager) cellwise(ctx context.Context, name string, args []string, out string, k kernel) error {
	inputs := make([]input, len(args))
	template := -1
	for i, arg := range args {
		inputs[i] = parseInput(arg)
		if template < 0 && inputs[i].isRaster() {
			template = i
		}
	}
	if template < 0 {
		return calcerr.UnsupportedOperationError{Op: name, Msg: "at least one raster operand is required"}
	}

	// Check the headers before reading any data.
	var tmpl raster.Header
	for i := range inputs {
		if !inputs[i].isRaster() {
			continue
		}
		h, err := raster.ReadHeader(inputs[i].path)
		if err != nil {
			return err
		}
		if m.maxCells > 0 && h.Cells() > m.maxCells {
			return fmt.Errorf("%s: %s has %d cells: %w", name, inputs[i].path, h.Cells(), calcerr.ErrOutOfMemory)
		}
		if i == template {
			tmpl = h
			continue
		}
		if !tmpl.SameDimensions(h) {
			return calcerr.DimensionMismatchError{
				Op:           name,
				Want:         [2]int{tmpl.Rows, tmpl.Columns},
				Got:          [2]int{h.Rows, h.Columns},
				WantPath:     inputs[template].path,
				MismatchPath: inputs[i].path,
			}
		}
	}

	for i := range inputs {
		switch {
		case inputs[i].isRaster():
			r, err := raster.Open(inputs[i].path)
			if err != nil {
				return err
			}
			inputs[i].raster = r
		case inputs[i].nodata:
			inputs[i].value = tmpl.NoData
		}
	}

	hdr := tmpl
	hdr.DataType = raster.Float
	// Cells are stored as float32; the header must match what is read back.
	hdr.NoData = float64(float32(tmpl.NoData))
	hdr.Palette = ""
	hdr.Metadata = nil
	output, err := raster.Create(out, hdr)
	if err != nil {
		return err
	}

	values := make([]float64, len(inputs))
	nodata := make([]bool, len(inputs))
	oldProgress := -1
	for row := 0; row < hdr.Rows; row++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		for col := 0; col < hdr.Columns; col++ {
			for i := range inputs {
				values[i], nodata[i] = inputs[i].at(row, col)
			}
			if v, ok := k(values, nodata); ok {
				output.SetValue(row, col, v)
			}
		}
		progress := int(100 * float64(row+1) / float64(hdr.Rows))
		if progress != oldProgress {
			m.progress(name, progress)
			oldProgress = progress
		}
	}

	output.AddMetadata(fmt.Sprintf("Created by the Raster Calculator %s operation", name))
	return output.Save()
}
