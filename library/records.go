package library

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ErrMalformedRow matches every *ParseError.
var ErrMalformedRow = errors.New("malformed record row")

// ErrInvalidRecord is returned when a record would be persisted as a row
// that reading the file back would reject or alter. Nothing is written.
var ErrInvalidRecord = errors.New("invalid record")

// IOError reports a record file that could not be opened, read or written.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

// ParseError reports a persisted row that does not match its schema.
// Line is 1-based; the header is line 1.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrMalformedRow }

// table is one homogeneous record collection persisted as a CSV file with a
// fixed header row.
type table[T any] struct {
	path   string
	header []string
	encode func(T) []string
	decode func([]string) (T, error)
}

// ensureFile creates the file holding only the header row. Existing files are
// left alone.
func (t *table[T]) ensureFile() error {
	if dir := filepath.Dir(t.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &IOError{Op: "mkdir", Path: dir, Err: err}
		}
	}
	f, err := os.OpenFile(t.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		return &IOError{Op: "create", Path: t.path, Err: err}
	}
	if err := writeRows(f, t.header, nil); err != nil {
		f.Close()
		return &IOError{Op: "write", Path: t.path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &IOError{Op: "close", Path: t.path, Err: err}
	}
	return nil
}

// readAll returns every record in file order.
func (t *table[T]) readAll() ([]T, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: t.path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // column counts are checked per row below

	header, err := r.Read()
	if err == io.EOF {
		return nil, &ParseError{Path: t.path, Line: 1, Err: errors.New("missing header row")}
	}
	if err != nil {
		return nil, t.readError(err)
	}
	if !slices.Equal(header, t.header) {
		return nil, &ParseError{Path: t.path, Line: 1, Err: fmt.Errorf("unexpected header %v", header)}
	}

	var records []T
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, t.readError(err)
		}
		line, _ := r.FieldPos(0)
		if len(row) != len(t.header) {
			return nil, &ParseError{Path: t.path, Line: line,
				Err: fmt.Errorf("want %d columns, got %d", len(t.header), len(row))}
		}
		rec, err := t.decode(row)
		if err != nil {
			return nil, &ParseError{Path: t.path, Line: line, Err: err}
		}
		records = append(records, rec)
	}
	return records, nil
}

func (t *table[T]) readError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Path: t.path, Line: pe.StartLine, Err: pe.Err}
	}
	return &IOError{Op: "read", Path: t.path, Err: err}
}

// writeAll replaces the file with header + records. The new content goes to
// a temp file in the same directory which is then renamed over the target,
// so readers see either the old file or the new one.
func (t *table[T]) writeAll(records []T) error {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row, err := t.encodeChecked(rec)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	dir, base := filepath.Split(t.path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, base+".*.tmp")
	if err != nil {
		return &IOError{Op: "create", Path: t.path, Err: err}
	}
	tmpName := tmp.Name()
	fail := func(op string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return &IOError{Op: op, Path: t.path, Err: err}
	}

	if err := writeRows(tmp, t.header, rows); err != nil {
		return fail("write", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fail("chmod", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("sync", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &IOError{Op: "close", Path: t.path, Err: err}
	}
	if err := os.Rename(tmpName, t.path); err != nil {
		os.Remove(tmpName)
		return &IOError{Op: "rename", Path: t.path, Err: err}
	}
	return nil
}

// appendRow adds one record at the end of the file.
func (t *table[T]) appendRow(rec T) error {
	row, err := t.encodeChecked(rec)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(t.path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return &IOError{Op: "open", Path: t.path, Err: err}
	}
	if err := writeRows(f, nil, [][]string{row}); err != nil {
		f.Close()
		return &IOError{Op: "append", Path: t.path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &IOError{Op: "close", Path: t.path, Err: err}
	}
	return nil
}

// encodeChecked encodes rec and runs the row back through decode. encoding/csv
// reads a quoted \r\n back as \n, so carriage returns are refused outright.
func (t *table[T]) encodeChecked(rec T) ([]string, error) {
	row := t.encode(rec)
	for i, field := range row {
		if strings.ContainsRune(field, '\r') {
			return nil, fmt.Errorf("%w: %s contains a carriage return", ErrInvalidRecord, t.header[i])
		}
	}
	if _, err := t.decode(row); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return row, nil
}

func writeRows(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if header != nil {
		if err := cw.Write(header); err != nil {
			return err
		}
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
