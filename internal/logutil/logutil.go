package logutil

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Discard is a Logger that ignores all loggings.
var Discard = log.New(io.Discard, "", 0)

// OpenFile returns a Logger appending to the file at path, and a function
// closing the file. An empty path gives Discard.
func OpenFile(path, prefix string) (*log.Logger, func() error, error) {
	if path == "" {
		return Discard, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	return log.New(f, prefix, log.LstdFlags|log.Lmicroseconds), f.Close, nil
}

// OrDiscard returns l, or Discard if l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard
	}
	return l
}
