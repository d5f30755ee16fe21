package history_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/takoeight0821/rastercalc/internal/history"
)

func open(t *testing.T) *history.Store {
	t.Helper()
	s, err := history.Open(filepath.Join(t.TempDir(), "sub", "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndList(t *testing.T) {
	t.Parallel()
	s := open(t)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	lines := []history.Entry{
		{Line: "1+2", Result: "3", Time: at},
		{Line: "10/0", Error: "division by zero", Time: at},
		{Line: "[dem]*2", Result: "/data/Calc_Output_1.dep", Time: at},
	}
	for i, e := range lines {
		seq, err := s.Add(e)
		if err != nil {
			t.Fatal(err)
		}
		if seq != i+1 {
			t.Errorf("Add returned sequence %d, want %d", seq, i+1)
		}
		lines[i].Seq = seq
	}

	all, err := s.List(0)
	if err != nil {
		t.Fatal(err)
	}
	timeEqual := cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })
	if diff := cmp.Diff(lines, all, timeEqual); diff != "" {
		t.Errorf("List(0) mismatch (-want +got):\n%s", diff)
	}

	last, err := s.List(2)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(lines[1:], last, timeEqual); diff != "" {
		t.Errorf("List(2) mismatch (-want +got):\n%s", diff)
	}
}

func TestGetAndDelete(t *testing.T) {
	t.Parallel()
	s := open(t)

	seq, err := s.Add(history.Entry{Line: "pi"})
	if err != nil {
		t.Fatal(err)
	}
	e, err := s.Get(seq)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(history.Entry{Seq: seq, Line: "pi"}, e, cmpopts.IgnoreFields(history.Entry{}, "Time")); diff != "" {
		t.Errorf("Get mismatch (-want +got):\n%s", diff)
	}
	if e.Time.IsZero() {
		t.Errorf("Add should stamp the entry")
	}

	if err := s.Delete(seq); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(seq); !errors.Is(err, history.ErrNoEntry) {
		t.Errorf("Get after Delete returned %v, want ErrNoEntry", err)
	}
}

func TestReopen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := history.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(history.Entry{Line: "1"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = history.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	seq, err := s.Add(history.Entry{Line: "2"})
	if err != nil {
		t.Fatal(err)
	}
	if seq != 2 {
		t.Errorf("sequence after reopening = %d, want 2", seq)
	}
}
