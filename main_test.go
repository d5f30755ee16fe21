package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/takoeight0821/rastercalc/internal/config"
	"github.com/takoeight0821/rastercalc/internal/raster"
)

func setup(t *testing.T, opts Options) (*App, string, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := "working_dir: " + dir + "\nhistory: " + filepath.Join(dir, "history.db") + "\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	h := raster.Header{Rows: 1, Columns: 2, North: 1, East: 2, NoData: -9999, DataType: raster.Double}
	r, err := raster.Create(filepath.Join(dir, "a.dep"), h)
	if err != nil {
		t.Fatal(err)
	}
	r.SetValue(0, 0, 1)
	r.SetValue(0, 1, 2)
	if err := r.Save(); err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	opts.ConfigPath = cfgPath
	opts.Out = &out
	opts.Err = &errOut
	app, err := NewApp(opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { app.Close() })
	return app, dir, &out, &errOut
}

func TestRun(t *testing.T) {
	t.Parallel()
	app, dir, out, _ := setup(t, Options{})

	if err := app.Run(context.Background(), "[a]*2\n1+1\n"); err != nil {
		t.Fatal(err)
	}
	expected := filepath.Join(dir, "Calc_Output_1.dep") + "\n2\n"
	if diff := cmp.Diff(expected, out.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRunFailures(t *testing.T) {
	t.Parallel()
	app, _, out, errOut := setup(t, Options{})

	err := app.Run(context.Background(), "10/0\n2^3")
	if err == nil || err.Error() != "1 line(s) failed" {
		t.Errorf("Run returned %v", err)
	}
	if !strings.Contains(errOut.String(), "Error: line 1: ") {
		t.Errorf("stderr = %q", errOut.String())
	}
	if out.String() != "8\n" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestOverrides(t *testing.T) {
	t.Parallel()
	app, _, out, _ := setup(t, Options{Grouping: "left-to-right", Concurrency: 2})

	if err := app.Run(context.Background(), "8-3-2"); err != nil {
		t.Fatal(err)
	}
	if out.String() != "3\n" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestInvalidOverride(t *testing.T) {
	t.Parallel()
	_, err := NewApp(Options{ConfigPath: filepath.Join(t.TempDir(), "absent.yaml")})
	if err == nil {
		t.Errorf("NewApp should fail on a missing config file")
	}

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("history: \"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = NewApp(Options{ConfigPath: cfgPath, Grouping: "sideways"})
	var field config.FieldError
	if !errors.As(err, &field) || field.Field != "grouping" {
		t.Errorf("NewApp returned %v, want a grouping FieldError", err)
	}
}

func TestHistory(t *testing.T) {
	t.Parallel()
	app, _, out, _ := setup(t, Options{})

	if err := app.Run(context.Background(), "1+2\nfoo(3)"); err == nil {
		t.Fatal("the second line should fail")
	}
	out.Reset()
	if err := app.PrintHistory(10); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("history = %q", out.String())
	}
	if !strings.HasSuffix(lines[0], "1+2 => 3") || !strings.Contains(lines[1], "foo(3) => error: ") {
		t.Errorf("history = %q", out.String())
	}
}

func TestListTools(t *testing.T) {
	t.Parallel()
	app, _, out, _ := setup(t, Options{})
	app.ListTools()
	for _, name := range []string{"add", "ifthenelse", "isnodata", "sqrt"} {
		if !strings.Contains(out.String(), name) {
			t.Errorf("tool list misses %s", name)
		}
	}
}

func TestRunTool(t *testing.T) {
	t.Parallel()
	_, dir, _, _ := setup(t, Options{})
	out := filepath.Join(dir, "b.dep")

	if code := RunTool([]string{"add", filepath.Join(dir, "a.dep"), "1", out}); code != 0 {
		t.Fatalf("RunTool exited with %d", code)
	}
	r, err := raster.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{2, 3}, r.Row(0)); diff != "" {
		t.Errorf("cells mismatch (-want +got):\n%s", diff)
	}
	if code := RunTool([]string{"hillshade", out, out}); code != 1 {
		t.Errorf("unknown operation exited with %d", code)
	}
}

func TestPrintError(t *testing.T) {
	t.Parallel()
	var b bytes.Buffer
	printError(&b, errors.Join(errors.New("first"), errors.New("second")))
	if diff := cmp.Diff("Error: first\nError: second\n", b.String()); diff != "" {
		t.Errorf("printError mismatch (-want +got):\n%s", diff)
	}
}
