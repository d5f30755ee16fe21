package raster_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/takoeight0821/rastercalc/internal/calcerr"
	"github.com/takoeight0821/rastercalc/internal/raster"
)

func template() raster.Header {
	return raster.Header{
		Rows:     2,
		Columns:  3,
		North:    20,
		South:    0,
		East:     30,
		West:     0,
		NoData:   -9999,
		DataType: raster.Float,
	}
}

func cells(r *raster.Raster) [][]float64 {
	var out [][]float64
	for row := 0; row < r.Rows; row++ {
		out = append(out, append([]float64(nil), r.Row(row)...))
	}
	return out
}

var headerOpts = cmpopts.IgnoreFields(raster.Header{}, "ByteOrder", "ZUnits", "XYUnits", "Projection", "DataScale", "Palette", "Metadata")

func TestWhiteboxRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "dem.dep")

	r, err := raster.Create(path, template())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	r.SetValue(0, 0, 1.5)
	r.SetValue(0, 1, 2)
	r.SetValue(1, 2, -3.25)
	r.AddMetadata("Created by: add")
	if err := r.Save(); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	for _, f := range raster.Files(path) {
		if _, err := os.Stat(f); err != nil {
			t.Errorf("expected %s to exist: %v", f, err)
		}
	}

	got, err := raster.Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if diff := cmp.Diff(template(), got.Header, headerOpts); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	want := [][]float64{{1.5, 2, -9999}, {-9999, -9999, -3.25}}
	if diff := cmp.Diff(want, cells(got)); diff != "" {
		t.Errorf("cells mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Created by: add"}, got.Metadata); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}
}

func TestReadHeader(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "dem.dep")

	r, err := raster.Create(path, template())
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Save(); err != nil {
		t.Fatal(err)
	}

	h, err := raster.ReadHeader(filepath.Join(filepath.Dir(path), "dem.tas"))
	if err != nil {
		t.Fatalf("ReadHeader returned error: %v", err)
	}
	if h.Rows != 2 || h.Columns != 3 || h.CellSizeX() != 10 || h.CellSizeY() != 10 {
		t.Errorf("unexpected header %+v", h)
	}
}

func TestASCII(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "grid.asc")
	src := "ncols 2\nnrows 2\nxllcenter 5\nyllcenter 5\ncellsize 10\nNODATA_value -1\n1 2\n3 -1\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := raster.Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	want := raster.Header{Rows: 2, Columns: 2, North: 20, South: 0, East: 20, West: 0, NoData: -1}
	if diff := cmp.Diff(want, r.Header, headerOpts); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]float64{{1, 2}, {3, -1}}, cells(r)); diff != "" {
		t.Errorf("cells mismatch (-want +got):\n%s", diff)
	}
	if !r.IsNoData(r.Value(1, 1)) {
		t.Errorf("expected (1, 1) to be no-data")
	}
	if got := r.Value(5, 5); got != -1 {
		t.Errorf("Value outside the grid = %v, want no-data", got)
	}

	// convert to Whitebox and back
	dep := filepath.Join(dir, "grid.dep")
	if err := raster.Copy(path, dep); err != nil {
		t.Fatalf("Copy returned error: %v", err)
	}
	back, err := raster.Open(dep)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cells(r), cells(back)); diff != "" {
		t.Errorf("converted cells mismatch (-want +got):\n%s", diff)
	}
}

func TestMalformedASCII(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bad.asc")
	if err := os.WriteFile(path, []byte("ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := raster.Open(path); !errors.Is(err, raster.ErrMalformed) {
		t.Errorf("Open returned %v, want ErrMalformed", err)
	}
}

func TestCopyAndRemove(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	src := filepath.Join(dir, "a.dep")
	dst := filepath.Join(dir, "b.dep")

	r, err := raster.Create(src, template())
	if err != nil {
		t.Fatal(err)
	}
	r.SetValue(1, 1, 7)
	if err := r.Save(); err != nil {
		t.Fatal(err)
	}

	if err := raster.Copy(src, dst); err != nil {
		t.Fatalf("Copy returned error: %v", err)
	}
	copied, err := raster.Open(dst)
	if err != nil {
		t.Fatal(err)
	}
	if got := copied.Value(1, 1); got != 7 {
		t.Errorf("copied value = %v, want 7", got)
	}

	if err := raster.Remove(src); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if raster.Exists(src) {
		t.Errorf("expected %s to be removed", src)
	}
	if err := raster.Remove(src); err != nil {
		t.Errorf("second Remove returned error: %v", err)
	}

	var notFound calcerr.FileNotFoundError
	if err := raster.Copy(src, dst); !errors.As(err, &notFound) {
		t.Errorf("Copy of a missing raster returned %v, want FileNotFoundError", err)
	}
	if _, err := raster.Open(src); !errors.As(err, &notFound) {
		t.Errorf("Open of a missing raster returned %v, want FileNotFoundError", err)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	t.Parallel()
	if raster.IsSupportedExtension("x.tif") {
		t.Errorf("x.tif should not be supported")
	}
	if _, err := raster.Create(filepath.Join(t.TempDir(), "x.tif"), template()); !errors.Is(err, raster.ErrUnsupportedFormat) {
		t.Errorf("Create returned %v, want ErrUnsupportedFormat", err)
	}
}
