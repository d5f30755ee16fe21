// Package rasterop performs raster operations cell by cell.
//
// An operation is named by a string and takes its inputs as text: a raster
// path, a numeric constant, or NoDataArg. The last argument is always the
// output raster path.
package rasterop

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/takoeight0821/rastercalc/internal/calcerr"
	"github.com/takoeight0821/rastercalc/internal/logutil"
)

// Dispatcher runs a named raster operation.
type Dispatcher interface {
	Dispatch(ctx context.Context, op string, args []string) error
}

// ProgressFunc receives the completion of a running operation in percent.
type ProgressFunc func(label string, percent int)

// Manager runs the built-in tools in process.
type Manager struct {
	tools    map[string]Tool
	progress ProgressFunc
	maxCells int
	logger   *log.Logger
}

type Option func(*Manager)

func WithProgress(f ProgressFunc) Option {
	return func(m *Manager) {
		if f != nil {
			m.progress = f
		}
	}
}

// WithMaxCells limits the size of the rasters a tool loads. Zero means no
// limit.
func WithMaxCells(n int) Option {
	return func(m *Manager) {
		m.maxCells = n
	}
}

func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		m.logger = logutil.OrDiscard(l)
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		tools:    make(map[string]Tool),
		progress: func(string, int) {},
		logger:   logutil.Discard,
	}
	for _, t := range defaultTools() {
		m.Register(t)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds t, replacing any tool of the same name.
func (m *Manager) Register(t Tool) {
	m.tools[strings.ToLower(t.Name())] = t
}

// Tools returns the registered tools sorted by name.
func (m *Manager) Tools() []Tool {
	ret := make([]Tool, 0, len(m.tools))
	for _, t := range m.tools {
		ret = append(ret, t)
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Name() < ret[j].Name()
	})
	return ret
}

func (m *Manager) Dispatch(ctx context.Context, op string, args []string) error {
	t, ok := m.tools[strings.ToLower(op)]
	if !ok {
		return calcerr.UnsupportedOperationError{Op: op, Msg: "unrecognized raster operation"}
	}
	if err := checkArgs(t, args); err != nil {
		return err
	}
	m.logger.Printf("rasterop: %s %s", t.Name(), strings.Join(args, " "))

	err := t.Run(ctx, m, args[:len(args)-1], args[len(args)-1])
	if err != nil {
		m.logger.Printf("rasterop: %s failed: %v", t.Name(), err)
	}
	return err
}

var _ Dispatcher = (*Manager)(nil)
