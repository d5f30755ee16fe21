package raster

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const notSpecified = "not specified"

func (r *Raster) readWhitebox() error {
	if err := r.readWhiteboxHeader(); err != nil {
		return err
	}

	raw, err := os.ReadFile(dataFile(r.path))
	if err != nil {
		return err
	}

	n := r.Cells()
	buf := bytes.NewReader(raw)
	r.data = make([]float64, n)

	switch r.DataType {
	case Double:
		err = binary.Read(buf, r.ByteOrder, r.data)
	case Float:
		native := make([]float32, n)
		err = binary.Read(buf, r.ByteOrder, native)
		for i, v := range native {
			r.data[i] = float64(v)
		}
	case Integer:
		native := make([]int16, n)
		err = binary.Read(buf, r.ByteOrder, native)
		for i, v := range native {
			r.data[i] = float64(v)
		}
	case Byte:
		native := make([]int8, n)
		err = binary.Read(buf, r.ByteOrder, native)
		for i, v := range native {
			r.data[i] = float64(v)
		}
	}
	if err != nil {
		return fmt.Errorf("%w: data file holds fewer than %d cells", ErrMalformed, n)
	}
	return nil
}

func (r *Raster) readWhiteboxHeader() error {
	content, err := os.ReadFile(r.path)
	if err != nil {
		return err
	}

	r.NoData = DefaultNoData
	r.ByteOrder = binary.LittleEndian
	r.DataType = Float

	var rows, cols bool
	lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")
	for _, line := range lines {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		var err error
		switch key {
		case "north":
			r.North, err = strconv.ParseFloat(value, 64)
		case "south":
			r.South, err = strconv.ParseFloat(value, 64)
		case "east":
			r.East, err = strconv.ParseFloat(value, 64)
		case "west":
			r.West, err = strconv.ParseFloat(value, 64)
		case "cols":
			r.Columns, err = strconv.Atoi(value)
			cols = true
		case "rows":
			r.Rows, err = strconv.Atoi(value)
			rows = true
		case "nodata":
			r.NoData, err = strconv.ParseFloat(value, 64)
		case "data type":
			r.DataType = parseDataType(value)
		case "byte order":
			if strings.EqualFold(value, "BIG_ENDIAN") {
				r.ByteOrder = binary.BigEndian
			}
		case "z units":
			r.ZUnits = value
		case "xy units":
			r.XYUnits = value
		case "projection":
			r.Projection = value
		case "data scale":
			r.DataScale = value
		case "preferred palette":
			r.Palette = value
		case "metadata entry":
			r.Metadata = append(r.Metadata, strings.ReplaceAll(value, ";", ":"))
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
		}
	}

	if !rows || !cols || r.Rows <= 0 || r.Columns <= 0 {
		return fmt.Errorf("%w: missing rows or columns", ErrMalformed)
	}
	return nil
}

func (r *Raster) writeWhitebox() error {
	if err := removeIfExists(replaceExt(r.path, ".wstat")); err != nil {
		return err
	}
	if err := r.writeWhiteboxHeader(); err != nil {
		return err
	}

	var native any
	switch r.DataType {
	case Double:
		native = r.data
	case Integer:
		out := make([]int16, len(r.data))
		for i, v := range r.data {
			out[i] = int16(v)
		}
		native = out
	case Byte:
		out := make([]int8, len(r.data))
		for i, v := range r.data {
			out[i] = int8(v)
		}
		native = out
	default:
		out := make([]float32, len(r.data))
		for i, v := range r.data {
			out[i] = float32(v)
		}
		native = out
	}

	f, err := os.Create(dataFile(r.path))
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := binary.Write(w, r.ByteOrder, native); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (r *Raster) writeWhiteboxHeader() error {
	lo, hi := r.MinMax()
	order := "LITTLE_ENDIAN"
	if r.ByteOrder == binary.BigEndian {
		order = "BIG_ENDIAN"
	}

	var b strings.Builder
	field := func(key, value string) {
		b.WriteString(key)
		b.WriteString(":\t")
		b.WriteString(value)
		b.WriteString("\n")
	}
	float := func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	field("Min", float(lo))
	field("Max", float(hi))
	field("North", float(r.North))
	field("South", float(r.South))
	field("East", float(r.East))
	field("West", float(r.West))
	field("Cols", strconv.Itoa(r.Columns))
	field("Rows", strconv.Itoa(r.Rows))
	field("Stacks", "1")
	field("Data Type", r.DataType.String())
	field("Z Units", orNotSpecified(r.ZUnits))
	field("XY Units", orNotSpecified(r.XYUnits))
	field("Projection", orNotSpecified(r.Projection))
	field("Data Scale", orDefault(r.DataScale, "continuous"))
	field("Display Min", float(lo))
	field("Display Max", float(hi))
	field("Preferred Palette", orDefault(r.Palette, "grey.pal"))
	field("NoData", float(r.NoData))
	field("Byte Order", order)
	field("Palette Nonlinearity", "1")
	for _, entry := range r.Metadata {
		if strings.TrimSpace(entry) != "" {
			field("Metadata Entry", strings.ReplaceAll(entry, ":", ";"))
		}
	}

	return os.WriteFile(r.path, []byte(b.String()), 0o644)
}

func orNotSpecified(s string) string {
	return orDefault(s, notSpecified)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" || s == notSpecified {
		return def
	}
	return s
}
