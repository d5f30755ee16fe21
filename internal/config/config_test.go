package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/takoeight0821/rastercalc/internal/config"
	"github.com/takoeight0821/rastercalc/internal/parser"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
working_dir: /data
extension: tas
nodata: -9999
grouping: left-to-right
concurrency: 4
max_cells: 1000000
tool_command: whitebox_tools --run
history: /tmp/history.db
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	expected := config.Config{
		WorkingDir:  "/data",
		Extension:   ".tas",
		NoData:      -9999,
		Grouping:    "left-to-right",
		Concurrency: 4,
		MaxCells:    1000000,
		ToolCommand: "whitebox_tools --run",
		History:     "/tmp/history.db",
	}
	if diff := cmp.Diff(expected, cfg); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
	if cfg.GroupingPolicy() != parser.LeftToRight {
		t.Errorf("GroupingPolicy() = %v", cfg.GroupingPolicy())
	}
}

func TestDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.Load(writeConfig(t, "concurrency: 2\n"))
	if err != nil {
		t.Fatal(err)
	}
	d := config.Default()
	d.Concurrency = 2
	if diff := cmp.Diff(d, cfg); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
	if cfg.GroupingPolicy() != parser.RightToLeft {
		t.Errorf("the default grouping should be right-to-left")
	}
}

func TestMissingExplicitFile(t *testing.T) {
	t.Parallel()
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load returned %v, want ErrNotExist", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	testcases := []struct {
		content string
		field   string
	}{
		{"extension: .png\n", "extension"},
		{"grouping: sideways\n", "grouping"},
		{"concurrency: 0\n", "concurrency"},
		{"max_cells: -1\n", "max_cells"},
		{"working_dir: \"\"\n", "working_dir"},
	}

	for _, testcase := range testcases {
		_, err := config.Load(writeConfig(t, testcase.content))
		var field config.FieldError
		if !errors.As(err, &field) {
			t.Errorf("Load(%q) returned %v, want FieldError", testcase.content, err)
			continue
		}
		if field.Field != testcase.field {
			t.Errorf("Load(%q) blamed %s, want %s", testcase.content, field.Field, testcase.field)
		}
	}
}

func TestMalformed(t *testing.T) {
	t.Parallel()
	if _, err := config.Load(writeConfig(t, "concurrency: [1\n")); err == nil {
		t.Errorf("Load should reject malformed YAML")
	}
}
