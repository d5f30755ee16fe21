package raster

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const asciiHeaderLines = 6

func (r *Raster) readASCII() error {
	f, err := os.Open(r.path)
	if err != nil {
		return err
	}
	defer f.Close()

	r.NoData = DefaultNoData
	r.DataType = Float

	var (
		cellSize             float64
		xll, yll             float64
		centered, haveOrigin bool
		cell                 int
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	line := 0
	for scanner.Scan() {
		fields := strings.Fields(strings.ToLower(scanner.Text()))
		if len(fields) == 0 {
			continue
		}
		line++

		if line <= asciiHeaderLines && len(fields) == 2 && !isNumeric(fields[0]) {
			var err error
			switch fields[0] {
			case "ncols":
				r.Columns, err = strconv.Atoi(fields[1])
			case "nrows":
				r.Rows, err = strconv.Atoi(fields[1])
			case "cellsize":
				cellSize, err = strconv.ParseFloat(fields[1], 64)
			case "nodata_value":
				r.NoData, err = strconv.ParseFloat(fields[1], 64)
			case "xllcorner", "xllcenter":
				xll, err = strconv.ParseFloat(fields[1], 64)
				centered = fields[0] == "xllcenter"
				haveOrigin = true
			case "yllcorner", "yllcenter":
				yll, err = strconv.ParseFloat(fields[1], 64)
			}
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrMalformed, fields[0], err)
			}
			continue
		}

		if r.data == nil {
			if r.Rows <= 0 || r.Columns <= 0 || !haveOrigin {
				return fmt.Errorf("%w: incomplete header", ErrMalformed)
			}
			r.data = make([]float64, r.Cells())
		}
		for _, v := range fields {
			if cell >= len(r.data) {
				return fmt.Errorf("%w: more than %d cells", ErrMalformed, len(r.data))
			}
			value, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%w: cell %d: %v", ErrMalformed, cell, err)
			}
			r.data[cell] = value
			cell++
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if r.data == nil || cell != len(r.data) {
		return fmt.Errorf("%w: expected %d cells, found %d", ErrMalformed, r.Cells(), cell)
	}

	if centered {
		xll -= cellSize / 2
		yll -= cellSize / 2
	}
	r.West = xll
	r.South = yll
	r.East = xll + float64(r.Columns)*cellSize
	r.North = yll + float64(r.Rows)*cellSize
	return nil
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func (r *Raster) writeASCII() error {
	f, err := os.Create(r.path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)

	float := func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	fmt.Fprintf(w, "NCOLS         %d\n", r.Columns)
	fmt.Fprintf(w, "NROWS         %d\n", r.Rows)
	fmt.Fprintf(w, "XLLCORNER     %s\n", float(r.West))
	fmt.Fprintf(w, "YLLCORNER     %s\n", float(r.South))
	fmt.Fprintf(w, "CELLSIZE      %s\n", float(r.CellSizeX()))
	fmt.Fprintf(w, "NODATA_VALUE  %s\n", float(r.NoData))

	for row := 0; row < r.Rows; row++ {
		for col, v := range r.Row(row) {
			if col > 0 {
				w.WriteByte(' ')
			}
			w.WriteString(float(v))
		}
		w.WriteByte('\n')
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
