// Package config loads the calculator settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/takoeight0821/rastercalc/internal/parser"
	"github.com/takoeight0821/rastercalc/internal/raster"
)

const appName = "rastercalc"

type Config struct {
	// WorkingDir resolves raster names without a directory.
	WorkingDir string `yaml:"working_dir"`
	// Extension is appended to raster names without a supported extension.
	Extension   string  `yaml:"extension"`
	NoData      float64 `yaml:"nodata"`
	Grouping    string  `yaml:"grouping"`
	Concurrency int     `yaml:"concurrency"`
	// MaxCells bounds the grids a raster operation loads. Zero means no
	// bound.
	MaxCells int `yaml:"max_cells"`
	// ToolCommand runs raster operations out of process when set.
	ToolCommand string `yaml:"tool_command"`
	History     string `yaml:"history"`
}

// FieldError reports an invalid setting.
type FieldError struct {
	Field string
	Msg   string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

// DefaultPath is $XDG_CONFIG_HOME/rastercalc/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

func Default() Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return Config{
		WorkingDir:  wd,
		Extension:   ".dep",
		NoData:      raster.DefaultNoData,
		Grouping:    parser.RightToLeft.String(),
		Concurrency: 1,
		History:     filepath.Join(xdg.DataHome, appName, "history.db"),
	}
}

// Load reads path over the defaults. A missing file is not an error when
// path is the default location.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, cfg.Validate()
		}
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate normalizes the extension and checks every field.
func (c *Config) Validate() error {
	var errs error
	if c.WorkingDir == "" {
		errs = errors.Join(errs, FieldError{"working_dir", "must not be empty"})
	}
	if c.Extension != "" && !strings.HasPrefix(c.Extension, ".") {
		c.Extension = "." + c.Extension
	}
	if !raster.IsSupportedExtension("x" + c.Extension) {
		errs = errors.Join(errs, FieldError{"extension", fmt.Sprintf("unsupported raster extension %q", c.Extension)})
	}
	if _, err := parser.ParseGrouping(c.Grouping); err != nil {
		errs = errors.Join(errs, FieldError{"grouping", err.Error()})
	}
	if c.Concurrency < 1 {
		errs = errors.Join(errs, FieldError{"concurrency", "must be at least 1"})
	}
	if c.MaxCells < 0 {
		errs = errors.Join(errs, FieldError{"max_cells", "must not be negative"})
	}
	return errs
}

// GroupingPolicy returns the parsed grouping. Call it on a validated
// Config.
func (c Config) GroupingPolicy() parser.Grouping {
	g, _ := parser.ParseGrouping(c.Grouping)
	return g
}
