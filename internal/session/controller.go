// Package session runs programs of calculator lines. Raster references
// written as [name] are bound to aliases, lines that only compute a raster
// get an output file, and every line is evaluated as a task.
package session

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/takoeight0821/rastercalc/internal/calcerr"
	"github.com/takoeight0821/rastercalc/internal/config"
	"github.com/takoeight0821/rastercalc/internal/eval"
	"github.com/takoeight0821/rastercalc/internal/history"
	"github.com/takoeight0821/rastercalc/internal/lexer"
	"github.com/takoeight0821/rastercalc/internal/logutil"
	"github.com/takoeight0821/rastercalc/internal/parser"
	"github.com/takoeight0821/rastercalc/internal/raster"
)

const (
	outputPrefix = "Calc_Output_"
	maxOutputs   = 1000
)

type Controller struct {
	cfg       config.Config
	evaluator *eval.Evaluator
	alloc     *eval.TempAllocator
	listener  Listener
	history   *history.Store
	logger    *log.Logger

	mu       sync.Mutex
	reserved map[string]bool
	// tails holds, per backing path, the completion of the last line
	// touching it.
	tails map[string]chan struct{}
}

type Option func(*Controller)

func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		c.logger = logutil.OrDiscard(l)
	}
}

// WithHistory records every line run in s.
func WithHistory(s *history.Store) Option {
	return func(c *Controller) {
		c.history = s
	}
}

func NewController(cfg config.Config, e *eval.Evaluator, l Listener, opts ...Option) *Controller {
	if l == nil {
		l = nopListener{}
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	c := &Controller{
		cfg:       cfg,
		evaluator: e,
		listener:  l,
		logger:    logutil.Discard,
		reserved:  make(map[string]bool),
		tails:     make(map[string]chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.alloc = eval.NewTempAllocator(cfg.WorkingDir, cfg.Extension, c.logger)
	return c
}

// task is a prepared line.
type task struct {
	num    int
	source string
	text   string
	sess   *eval.Session
	output string
	paths  []string
	wait   []chan struct{}
	done   chan struct{}
}

// Process runs every non-empty line of program. A failing line is reported
// to the listener and does not stop the others. Lines touching the same
// raster run in program order.
func (c *Controller) Process(ctx context.Context, program string) error {
	var g errgroup.Group
	g.SetLimit(c.cfg.Concurrency)

	for i, line := range strings.Split(program, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		t, err := c.prepare(i+1, line)
		if err != nil {
			c.fail(i+1, line, err)
			c.listener.NotifyOfThreadComplete(i + 1)
			continue
		}
		c.schedule(t)
		g.Go(func() error {
			c.run(ctx, t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", calcerr.ErrCancelled, err)
	}
	return nil
}

// prepare binds the raster references of line and decides its output.
func (c *Controller) prepare(num int, line string) (*task, error) {
	t := &task{num: num, source: line, sess: c.alloc.NewSession(), done: make(chan struct{})}

	text, paths, err := c.substitute(t.sess, line)
	if err != nil {
		return nil, err
	}
	t.text = text
	t.paths = paths

	if len(paths) > 0 && !isDelete(text) && !hasAssignment(text) {
		out, err := c.reserveOutput()
		if err != nil {
			return nil, err
		}
		t.output = out
		t.text = t.sess.Alias(out) + "=" + text
		t.paths = append(t.paths, out)
		c.listener.ShowFeedback(fmt.Sprintf("line %d: writing %s", num, out))
	}
	c.logger.Printf("session: line %d: %s", num, t.text)
	return t, nil
}

// substitute replaces every [name] of line with an alias of its path.
func (c *Controller) substitute(sess *eval.Session, line string) (string, []string, error) {
	var b strings.Builder
	var paths []string
	seen := make(map[string]bool)
	rest := line
	for {
		open := strings.IndexByte(rest, '[')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[open:], ']')
		if end < 0 {
			return "", nil, calcerr.SyntaxError{Expr: line, Pos: len(line) - len(rest) + open, Msg: "missing ]"}
		}
		name := strings.TrimSpace(rest[open+1 : open+end])
		if name == "" {
			return "", nil, calcerr.SyntaxError{Expr: line, Pos: len(line) - len(rest) + open, Msg: "empty raster name"}
		}
		path := c.resolvePath(name)
		if !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}
		b.WriteString(rest[:open])
		b.WriteString(sess.Alias(path))
		rest = rest[open+end+1:]
	}
	return b.String(), paths, nil
}

// resolvePath joins name to the working directory when it has no directory
// and appends the default extension when it has no raster extension.
func (c *Controller) resolvePath(name string) string {
	if !strings.ContainsAny(name, "/"+string(os.PathSeparator)) {
		name = filepath.Join(c.cfg.WorkingDir, name)
	}
	if !raster.IsSupportedExtension(name) {
		name += c.cfg.Extension
	}
	return name
}

func (c *Controller) reserveOutput() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for n := 1; n <= maxOutputs; n++ {
		path := filepath.Join(c.cfg.WorkingDir, outputPrefix+strconv.Itoa(n)+c.cfg.Extension)
		if c.reserved[path] || raster.Exists(path) {
			continue
		}
		c.reserved[path] = true
		return path, nil
	}
	return "", fmt.Errorf("no free output name in %s after %d tries", c.cfg.WorkingDir, maxOutputs)
}

func (c *Controller) unreserve(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.reserved, path)
}

// schedule chains t behind the earlier lines touching its paths.
func (c *Controller) schedule(t *task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, path := range t.paths {
		if prev, ok := c.tails[path]; ok {
			t.wait = append(t.wait, prev)
		}
		c.tails[path] = t.done
	}
}

func (c *Controller) run(ctx context.Context, t *task) {
	defer c.listener.NotifyOfThreadComplete(t.num)
	defer close(t.done)
	defer func() {
		if t.output != "" {
			c.unreserve(t.output)
		}
	}()

	for _, ch := range t.wait {
		select {
		case <-ch:
		case <-ctx.Done():
			c.fail(t.num, t.source, fmt.Errorf("%w: %w", calcerr.ErrCancelled, ctx.Err()))
			return
		}
	}

	result, err := c.evaluator.Evaluate(ctx, t.sess, t.text)
	if err != nil {
		c.fail(t.num, t.source, err)
	} else if result != nil {
		c.listener.NotifyOfReturn(t.num, result.String())
		c.record(history.Entry{Line: t.source, Result: result.String()})
	}
	if err := t.sess.Close(); err != nil {
		c.logger.Printf("session: line %d: cleanup: %v", t.num, err)
	}
}

func (c *Controller) fail(num int, line string, err error) {
	c.logger.Printf("session: line %d: %v", num, err)
	c.listener.PassOnThreadException(num, err)
	c.record(history.Entry{Line: line, Error: err.Error()})
}

func (c *Controller) record(e history.Entry) {
	if c.history == nil {
		return
	}
	if _, err := c.history.Add(e); err != nil {
		c.logger.Printf("session: history: %v", err)
	}
}

// isDelete reports whether text is a delete or del call.
func isDelete(text string) bool {
	s := strings.ToLower(lexer.Normalize(text))
	return strings.HasPrefix(s, "delete(") || strings.HasPrefix(s, "del(")
}

// hasAssignment reports whether text assigns at the top level. Text that
// does not lex is left to the evaluator to report.
func hasAssignment(text string) bool {
	tokens, err := lexer.Lex(lexer.Normalize(text))
	if err != nil {
		return false
	}
	return parser.HasTopLevelAssignment(tokens)
}
