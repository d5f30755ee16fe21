package eval

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/takoeight0821/rastercalc/internal/logutil"
	"github.com/takoeight0821/rastercalc/internal/raster"
)

const aliasPrefix = "IMAGE"

// Handle binds an alias to the path of a raster. Temporary handles own
// their files and delete them when released.
type Handle struct {
	Alias    string
	Path     string
	Temp     bool
	released bool
}

// Released reports whether the files of a temporary handle were deleted.
func (h *Handle) Released() bool {
	return h.released
}

// TempAllocator names the temporary rasters of every session. It is safe
// for concurrent use.
type TempAllocator struct {
	dir      string
	ext      string
	sessions atomic.Int64
	logger   *log.Logger
}

// NewTempAllocator creates temporaries in dir with the raster extension ext.
func NewTempAllocator(dir, ext string, logger *log.Logger) *TempAllocator {
	if ext == "" {
		ext = ".dep"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &TempAllocator{dir: dir, ext: ext, logger: logutil.OrDiscard(logger)}
}

// NewSession starts the alias namespace of one line.
func (a *TempAllocator) NewSession() *Session {
	return &Session{
		id:      a.sessions.Add(1),
		alloc:   a,
		handles: make(map[string]*Handle),
		byPath:  make(map[string]*Handle),
	}
}

// Session holds the aliases and temporary rasters of one line. It is not
// safe for concurrent use.
type Session struct {
	id      int64
	alloc   *TempAllocator
	seq     int
	handles map[string]*Handle
	byPath  map[string]*Handle
	order   []*Handle
	depth   int
	result  *Handle
}

func (s *Session) ID() int64 {
	return s.id
}

// Lookup returns the path bound to alias.
func (s *Session) Lookup(alias string) (string, bool) {
	h, ok := s.handles[alias]
	if !ok {
		return "", false
	}
	return h.Path, true
}

// Handle returns the handle bound to alias, or nil.
func (s *Session) Handle(alias string) *Handle {
	return s.handles[alias]
}

// Alias returns the alias of path, binding a fresh one on first use.
// Bindings are never changed once made.
func (s *Session) Alias(path string) string {
	if h, ok := s.byPath[path]; ok && !h.Temp {
		return h.Alias
	}
	s.seq++
	alias := aliasPrefix + strconv.Itoa(s.seq)
	s.bind(&Handle{Alias: alias, Path: path})
	return alias
}

func (s *Session) bind(h *Handle) {
	s.handles[h.Alias] = h
	if _, ok := s.byPath[h.Path]; !ok {
		s.byPath[h.Path] = h
	}
	s.order = append(s.order, h)
}

// newTemp allocates a temporary raster named IMAGE<k>_<session><ext>.
func (s *Session) newTemp() *Handle {
	s.seq++
	alias := aliasPrefix + strconv.Itoa(s.seq)
	name := fmt.Sprintf("%s_%d%s", alias, s.id, s.alloc.ext)
	h := &Handle{Alias: alias, Path: filepath.Join(s.alloc.dir, name), Temp: true}
	s.bind(h)
	return h
}

// Temps returns the temporary handles that have not been released.
func (s *Session) Temps() []*Handle {
	var live []*Handle
	for _, h := range s.order {
		if h.Temp && !h.released {
			live = append(live, h)
		}
	}
	return live
}

func (s *Session) enter() {
	s.depth++
}

// leave ends the evaluation of one node. When the outermost node is done,
// every temporary is released except keep.
func (s *Session) leave(keep Operand) error {
	s.depth--
	if s.depth > 0 {
		return nil
	}

	s.result = nil
	if r, ok := keep.(Raster); ok && r.Temp {
		s.result = r.Handle
	}
	var errs error
	for _, h := range s.Temps() {
		if h == s.result {
			continue
		}
		errs = errors.Join(errs, s.release(h))
	}
	return errs
}

// release deletes the files of h. Releasing twice is a no-op.
func (s *Session) release(h *Handle) error {
	if h.released {
		return nil
	}
	h.released = true
	s.alloc.logger.Printf("eval: release %s (%s)", h.Alias, h.Path)
	return raster.Remove(h.Path)
}

// Close releases every remaining temporary, including a temporary result
// returned to the caller.
func (s *Session) Close() error {
	var errs error
	for _, h := range s.Temps() {
		errs = errors.Join(errs, s.release(h))
	}
	s.result = nil
	return errs
}
