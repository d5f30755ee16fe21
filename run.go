package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/takoeight0821/rastercalc/internal/config"
	"github.com/takoeight0821/rastercalc/internal/eval"
	"github.com/takoeight0821/rastercalc/internal/history"
	"github.com/takoeight0821/rastercalc/internal/logutil"
	"github.com/takoeight0821/rastercalc/internal/rasterop"
	"github.com/takoeight0821/rastercalc/internal/session"
)

// Options override the configuration file.
type Options struct {
	ConfigPath  string
	LogPath     string
	Grouping    string
	Concurrency int
	Out, Err    io.Writer
}

func defaultConfigPath() string {
	return config.DefaultPath()
}

// App wires the calculator from its configuration.
type App struct {
	cfg        config.Config
	manager    *rasterop.Manager
	controller *session.Controller
	history    *history.Store
	listener   *cliListener
	logger     *log.Logger
	closeLog   func() error
	closed     bool
}

func NewApp(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Grouping != "" {
		cfg.Grouping = opts.Grouping
	}
	if opts.Concurrency != 0 {
		cfg.Concurrency = opts.Concurrency
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, closeLog, err := logutil.OpenFile(opts.LogPath, "rastercalc: ")
	if err != nil {
		return nil, err
	}
	app := &App{cfg: cfg, logger: logger, closeLog: closeLog}
	app.listener = newCLIListener(opts.Out, opts.Err)

	app.manager = rasterop.NewManager(
		rasterop.WithProgress(app.listener.UpdateProgress),
		rasterop.WithMaxCells(cfg.MaxCells),
		rasterop.WithLogger(logger),
	)
	var dispatcher rasterop.Dispatcher = app.manager
	if cfg.ToolCommand != "" {
		d, err := rasterop.NewExecDispatcher(cfg.ToolCommand)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("config: tool_command: %w", err)
		}
		dispatcher = d
	}

	if cfg.History != "" {
		store, err := history.Open(cfg.History)
		if err != nil {
			// The calculator works without a history.
			logger.Printf("history disabled: %v", err)
		} else {
			app.history = store
		}
	}

	evaluator := eval.New(dispatcher,
		eval.WithLogger(logger),
		eval.WithGrouping(cfg.GroupingPolicy()),
		eval.WithNoData(cfg.NoData),
	)
	app.controller = session.NewController(cfg, evaluator, app.listener,
		session.WithLogger(logger),
		session.WithHistory(app.history),
	)
	return app, nil
}

// Run evaluates every line of program. Line errors are reported as they
// happen; the returned error counts them.
func (a *App) Run(ctx context.Context, program string) error {
	before := a.listener.failures()
	if err := a.controller.Process(ctx, program); err != nil {
		return err
	}
	if n := a.listener.failures() - before; n > 0 {
		return fmt.Errorf("%d line(s) failed", n)
	}
	return nil
}

func (a *App) ListTools() {
	for _, t := range a.manager.Tools() {
		fmt.Fprintf(a.listener.out, "%-12s %d  %s\n", t.Name(), t.Inputs(), t.Description())
	}
}

func (a *App) PrintHistory(n int) error {
	if a.history == nil {
		return fmt.Errorf("history is disabled")
	}
	entries, err := a.history.List(n)
	if err != nil {
		return err
	}
	for _, e := range entries {
		outcome := e.Result
		if e.Error != "" {
			outcome = "error: " + e.Error
		}
		fmt.Fprintf(a.listener.out, "%5d  %s  %s => %s\n", e.Seq, e.Time.Format("2006-01-02 15:04:05"), e.Line, outcome)
	}
	return nil
}

func (a *App) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	var err error
	if a.history != nil {
		err = a.history.Close()
	}
	if cerr := a.closeLog(); err == nil {
		err = cerr
	}
	return err
}

// RunTool runs a single raster operation in process:
//
//	rastercalc tool <op> <inputs...> <output>
//
// It lets the calculator serve as its own tool_command.
func RunTool(args []string) int {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: rastercalc tool <op> <inputs...> <output>")
		return 2
	}
	if err := rasterop.NewManager().Dispatch(context.Background(), args[0], args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// cliListener prints results to out and everything else to errOut.
// Progress is only drawn when errOut is a terminal.
type cliListener struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	tty    bool
	drawn  bool
	failed int
}

func newCLIListener(out, errOut io.Writer) *cliListener {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	return &cliListener{out: out, errOut: errOut, tty: isTerminal(errOut)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (l *cliListener) ShowFeedback(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clearProgress()
	fmt.Fprintln(l.errOut, msg)
}

func (l *cliListener) UpdateProgress(label string, percent int) {
	if !l.tty {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.errOut, "\r%s: %3d%%", label, percent)
	l.drawn = true
}

func (l *cliListener) NotifyOfReturn(_ int, value string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clearProgress()
	fmt.Fprintln(l.out, value)
}

func (l *cliListener) NotifyOfThreadComplete(int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clearProgress()
}

func (l *cliListener) PassOnThreadException(line int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clearProgress()
	l.failed++
	printError(l.errOut, fmt.Errorf("line %d: %w", line, err))
}

func (l *cliListener) failures() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failed
}

// clearProgress ends a drawn progress line. Callers hold mu.
func (l *cliListener) clearProgress() {
	if l.drawn {
		fmt.Fprintln(l.errOut)
		l.drawn = false
	}
}

var _ session.Listener = (*cliListener)(nil)
