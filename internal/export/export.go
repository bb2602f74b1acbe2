// Package export writes extracted function records as a single JSON array
// and reads such documents back.
package export

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"blockgraph/internal/graph"
)

// ErrClosed is returned when writing to a finished sink.
var ErrClosed = errors.New("sink closed")

// Writer streams function records into a JSON array. Close writes the
// closing bracket; a Writer that is never closed leaves an incomplete
// document, which is why file output goes through File.
type Writer struct {
	w      *bufio.Writer
	indent bool
	n      int
	closed bool
}

// NewWriter returns a Writer on w. With indent set, each record is indented
// by two spaces.
func NewWriter(w io.Writer, indent bool) *Writer {
	return &Writer{w: bufio.NewWriter(w), indent: indent}
}

// WriteFunction appends one record.
func (w *Writer) WriteFunction(rec *graph.FunctionRecord) error {
	if w.closed {
		return ErrClosed
	}

	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(rec, "  ", "  ")
	} else {
		data, err = json.Marshal(rec)
	}
	if err != nil {
		return fmt.Errorf("encode function %q: %w", rec.Name, err)
	}

	sep := ","
	if w.n == 0 {
		sep = "["
	}
	if w.indent {
		sep += "\n  "
	}
	if _, err := w.w.WriteString(sep); err != nil {
		return err
	}
	if _, err := w.w.Write(data); err != nil {
		return err
	}
	w.n++
	return nil
}

// Count is the number of records written.
func (w *Writer) Count() int { return w.n }

// Close terminates the array and flushes. An empty document is "[]".
func (w *Writer) Close() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true

	tail := "]\n"
	if w.n == 0 {
		tail = "[]\n"
	} else if w.indent {
		tail = "\n]\n"
	}
	if _, err := w.w.WriteString(tail); err != nil {
		return err
	}
	return w.w.Flush()
}

// File is a Writer on a temporary file next to its destination. The
// destination only appears, complete, on Commit.
type File struct {
	*Writer
	path string
	tmp  *os.File
	done bool
}

// Create opens a sink that will be committed to path.
func Create(path string, indent bool) (*File, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	return &File{Writer: NewWriter(tmp, indent), path: path, tmp: tmp}, nil
}

// Path is the final destination.
func (f *File) Path() string { return f.path }

// Commit completes the document and moves it into place.
func (f *File) Commit() error {
	if f.done {
		return ErrClosed
	}
	f.done = true

	if err := f.Writer.Close(); err != nil {
		f.tmp.Close()
		os.Remove(f.tmp.Name())
		return fmt.Errorf("write output: %w", err)
	}
	if err := f.tmp.Close(); err != nil {
		os.Remove(f.tmp.Name())
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(f.tmp.Name(), f.path); err != nil {
		os.Remove(f.tmp.Name())
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}

// Discard drops everything written. It is a no-op after Commit.
func (f *File) Discard() error {
	if f.done {
		return nil
	}
	f.done = true
	f.Writer.closed = true
	f.tmp.Close()
	return os.Remove(f.tmp.Name())
}

// ReadDocument decodes a JSON array of function records, relinking edges.
func ReadDocument(r io.Reader) ([]*graph.FunctionRecord, error) {
	var recs []*graph.FunctionRecord
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return recs, nil
}

// ReadFile decodes the document at path.
func ReadFile(path string) ([]*graph.FunctionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()
	return ReadDocument(f)
}
