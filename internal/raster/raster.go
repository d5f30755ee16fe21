// Package raster reads and writes the grid files the calculator operates on.
//
// Two formats are supported: the Whitebox GAT format, a text header (.dep)
// with a binary data file (.tas), and the ArcGIS ASCII grid (.asc, .txt).
// A raster is held in memory as float64 cells in row-major order.
package raster

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/takoeight0821/rastercalc/internal/calcerr"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported raster format")
	ErrMalformed         = errors.New("raster file is not properly formatted")
)

// DataType is the on-disk cell type.
type DataType int

const (
	Float DataType = iota
	Double
	Integer
	Byte
)

func (d DataType) String() string {
	switch d {
	case Double:
		return "DOUBLE"
	case Integer:
		return "INTEGER"
	case Byte:
		return "BYTE"
	}
	return "FLOAT"
}

func parseDataType(s string) DataType {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.Contains(s, "double"):
		return Double
	case strings.Contains(s, "float"):
		return Float
	case strings.Contains(s, "int"):
		return Integer
	case strings.Contains(s, "byte"):
		return Byte
	}
	return Float
}

// Format identifies a file format by extension.
type Format int

const (
	UnknownFormat Format = iota
	Whitebox
	ArcGISASCII
)

func (f Format) String() string {
	switch f {
	case Whitebox:
		return "WhiteboxRaster"
	case ArcGISASCII:
		return "ArcGisAsciiRaster"
	}
	return "UnknownRaster"
}

// FormatOf determines the format of path from its extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dep", ".tas":
		return Whitebox
	case ".asc", ".txt":
		return ArcGISASCII
	}
	return UnknownFormat
}

// IsSupportedExtension reports whether path names a raster format this
// package can read and write.
func IsSupportedExtension(path string) bool {
	return FormatOf(path) != UnknownFormat
}

type Header struct {
	Rows, Columns            int
	North, South, East, West float64
	NoData                   float64
	DataType                 DataType
	ByteOrder                binary.ByteOrder

	ZUnits, XYUnits string
	Projection      string
	DataScale       string
	Palette         string
	Metadata        []string
}

// DefaultNoData is the no-data value used when none is specified.
const DefaultNoData = -32768.0

func (h Header) Cells() int {
	return h.Rows * h.Columns
}

func (h Header) CellSizeX() float64 {
	if h.Columns == 0 {
		return 0
	}
	return (h.East - h.West) / float64(h.Columns)
}

func (h Header) CellSizeY() float64 {
	if h.Rows == 0 {
		return 0
	}
	return (h.North - h.South) / float64(h.Rows)
}

// SameDimensions reports whether h and other have equal row and column counts.
func (h Header) SameDimensions(other Header) bool {
	return h.Rows == other.Rows && h.Columns == other.Columns
}

// Raster is an in-memory grid bound to a file path.
type Raster struct {
	Header
	path   string
	format Format
	data   []float64
}

// Open reads the raster at path.
func Open(path string) (*Raster, error) {
	format := FormatOf(path)
	r := &Raster{path: path, format: format}

	var err error
	switch format {
	case Whitebox:
		r.path = headerFile(path)
		err = r.readWhitebox()
	case ArcGISASCII:
		err = r.readASCII()
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil, calcerr.FileNotFoundError{Path: path}
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return r, nil
}

// ReadHeader reads only the header of the raster at path.
func ReadHeader(path string) (Header, error) {
	if FormatOf(path) != Whitebox {
		r, err := Open(path)
		if err != nil {
			return Header{}, err
		}
		return r.Header, nil
	}

	r := &Raster{path: headerFile(path), format: Whitebox}
	err := r.readWhiteboxHeader()
	if errors.Is(err, os.ErrNotExist) {
		return Header{}, calcerr.FileNotFoundError{Path: path}
	}
	if err != nil {
		return Header{}, fmt.Errorf("open %s: %w", path, err)
	}
	return r.Header, nil
}

// Create makes a new raster at path with the dimensions and georeferencing
// of tmpl. Every cell starts as tmpl.NoData. Any existing files at path are
// removed; nothing is written until Save.
func Create(path string, tmpl Header) (*Raster, error) {
	format := FormatOf(path)
	if format == UnknownFormat {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if tmpl.Rows <= 0 || tmpl.Columns <= 0 {
		return nil, fmt.Errorf("create %s: invalid dimensions %dx%d", path, tmpl.Rows, tmpl.Columns)
	}
	if err := Remove(path); err != nil {
		return nil, err
	}

	h := tmpl
	if h.ByteOrder == nil {
		h.ByteOrder = binary.LittleEndian
	}
	h.Metadata = append([]string(nil), tmpl.Metadata...)

	if format == Whitebox {
		path = headerFile(path)
	}
	r := &Raster{Header: h, path: path, format: format, data: make([]float64, h.Cells())}
	for i := range r.data {
		r.data[i] = h.NoData
	}
	return r, nil
}

// Path returns the main file of the raster: the header file for Whitebox
// rasters.
func (r *Raster) Path() string {
	return r.path
}

// Value returns the cell at row, col. Cells outside the grid read as no-data.
func (r *Raster) Value(row, col int) float64 {
	if row < 0 || col < 0 || row >= r.Rows || col >= r.Columns {
		return r.NoData
	}
	return r.data[row*r.Columns+col]
}

func (r *Raster) SetValue(row, col int, v float64) {
	if row < 0 || col < 0 || row >= r.Rows || col >= r.Columns {
		return
	}
	r.data[row*r.Columns+col] = v
}

// Row returns the cells of one row. The slice aliases the raster's storage.
func (r *Raster) Row(row int) []float64 {
	return r.data[row*r.Columns : (row+1)*r.Columns]
}

// IsNoData reports whether v is the raster's no-data value. Float rasters
// compare at float32 precision.
func (r *Raster) IsNoData(v float64) bool {
	if r.DataType == Float && !math.IsNaN(r.NoData) {
		return float32(v) == float32(r.NoData)
	}
	return v == r.NoData || math.IsNaN(v) && math.IsNaN(r.NoData)
}

// AddMetadata appends a metadata entry. Formats without metadata ignore it.
func (r *Raster) AddMetadata(entry string) {
	if strings.TrimSpace(entry) == "" {
		return
	}
	r.Metadata = append(r.Metadata, entry)
}

// MinMax returns the smallest and largest valid cell values.
func (r *Raster) MinMax() (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range r.data {
		if r.IsNoData(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > hi {
		return r.NoData, r.NoData
	}
	return lo, hi
}

// Save writes the raster to its files, replacing any existing ones.
func (r *Raster) Save() error {
	var err error
	switch r.format {
	case Whitebox:
		err = r.writeWhitebox()
	case ArcGISASCII:
		err = r.writeASCII()
	default:
		err = ErrUnsupportedFormat
	}
	if err != nil {
		return fmt.Errorf("save %s: %w", r.path, err)
	}
	return nil
}

// Files lists the files backing the raster at path.
func Files(path string) []string {
	if FormatOf(path) == Whitebox {
		return []string{headerFile(path), dataFile(path)}
	}
	return []string{path}
}

// Exists reports whether every file backing path exists.
func Exists(path string) bool {
	for _, f := range Files(path) {
		if _, err := os.Stat(f); err != nil {
			return false
		}
	}
	return true
}

// Remove deletes the files backing path, including Whitebox statistics
// sidecars. Missing files are not an error.
func Remove(path string) error {
	files := Files(path)
	if FormatOf(path) == Whitebox {
		files = append(files, replaceExt(path, ".wstat"))
	}
	for _, f := range files {
		if err := removeIfExists(f); err != nil {
			return err
		}
	}
	return nil
}

// Copy makes dst a copy of the raster at src, overwriting it. Rasters of the
// same format are copied file by file; otherwise the grid is converted.
func Copy(src, dst string) error {
	if !Exists(src) {
		return calcerr.FileNotFoundError{Path: src}
	}
	if FormatOf(dst) == UnknownFormat {
		return fmt.Errorf("%s: %w", dst, ErrUnsupportedFormat)
	}
	if sameFile(src, dst) {
		return nil
	}

	if FormatOf(src) == FormatOf(dst) {
		if err := Remove(dst); err != nil {
			return err
		}
		from, to := Files(src), Files(dst)
		for i := range from {
			if err := copyFile(from[i], to[i]); err != nil {
				return err
			}
		}
		return nil
	}

	in, err := Open(src)
	if err != nil {
		return err
	}
	out, err := Create(dst, in.Header)
	if err != nil {
		return err
	}
	copy(out.data, in.data)
	return out.Save()
}

func sameFile(a, b string) bool {
	ha, hb := Files(a)[0], Files(b)[0]
	if ha == hb {
		return true
	}
	sa, err := os.Stat(ha)
	if err != nil {
		return false
	}
	sb, err := os.Stat(hb)
	if err != nil {
		return false
	}
	return os.SameFile(sa, sb)
}

func copyFile(from, to string) error {
	in, err := os.Open(from)
	if err != nil {
		return fmt.Errorf("copy %s: %w", from, err)
	}
	defer in.Close()

	out, err := os.Create(to)
	if err != nil {
		return fmt.Errorf("copy %s: %w", from, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s to %s: %w", from, to, err)
	}
	return out.Close()
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	return fmt.Errorf("remove %s: %w", path, err)
}

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

func headerFile(path string) string {
	return replaceExt(path, ".dep")
}

func dataFile(path string) string {
	return replaceExt(path, ".tas")
}
