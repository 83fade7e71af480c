// Package journal persists the append-only CSV logs that back exactly-once
// delivery. A record's key is derived from its row; a key present in the
// journal is never sent again.
package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// Log is one append-only CSV file. keyFn derives the dedupe key from a row;
// rows it cannot key (short rows, header rows) are ignored on read.
type Log struct {
	path    string
	headers []string
	keyFn   func(row []string) (string, bool)
}

func New(path string, headers []string, keyFn func(row []string) (string, bool)) *Log {
	return &Log{path: path, headers: headers, keyFn: keyFn}
}

// Keys reads the whole journal and returns the set of known record keys. A
// missing file means an empty journal, not an error.
func (l *Log) Keys() (map[string]struct{}, error) {
	keys := make(map[string]struct{})

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return keys, nil
		}

		return nil, fmt.Errorf("open journal %s: %w", l.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("read journal %s: %w", l.path, err)
		}

		if key, ok := l.keyFn(row); ok {
			keys[key] = struct{}{}
		}
	}

	return keys, nil
}

// Append writes rows to the end of the journal, creating the file with its
// header row first when it is new or empty.
func (l *Log) Append(rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open journal %s: %w", l.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat journal %s: %w", l.path, err)
	}

	w := csv.NewWriter(f)

	if info.Size() == 0 && len(l.headers) > 0 {
		if err := w.Write(l.headers); err != nil {
			return fmt.Errorf("write journal header: %w", err)
		}
	}

	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write journal row: %w", err)
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return fmt.Errorf("flush journal %s: %w", l.path, err)
	}

	return nil
}

// Keyed is anything with a stable dedupe key.
type Keyed interface {
	Key() string
}

// FilterNew returns the records whose keys are not in seen, preserving input
// order. Duplicate keys within the input collapse to the first occurrence.
func FilterNew[T Keyed](records []T, seen map[string]struct{}) []T {
	out := make([]T, 0, len(records))
	taken := make(map[string]struct{}, len(records))

	for _, rec := range records {
		key := rec.Key()

		if _, ok := seen[key]; ok {
			continue
		}

		if _, ok := taken[key]; ok {
			continue
		}

		taken[key] = struct{}{}

		out = append(out, rec)
	}

	return out
}
