package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// JsonlStorage appends log records to a newline-delimited JSON file.
type JsonlStorage struct {
	mu   sync.Mutex
	file *os.File
	w    *bufio.Writer
	enc  *json.Encoder
}

// NewJsonlStorage opens (or creates) the file at path for appending.
func NewJsonlStorage(path string) (*JsonlStorage, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create raw log dir: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open raw log file: %w", err)
	}
	w := bufio.NewWriter(file)
	return &JsonlStorage{file: file, w: w, enc: json.NewEncoder(w)}, nil
}

// Append writes one record as a single JSON line.
func (s *JsonlStorage) Append(record LogRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(record); err != nil {
		return fmt.Errorf("append raw log: %w", err)
	}
	return nil
}

// Close flushes buffered lines and closes the file.
func (s *JsonlStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Flush(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// JsonlReader iterates records from a JSONL capture file.
type JsonlReader struct {
	closer  io.Closer
	scanner *bufio.Scanner
	line    int
}

// NewJsonlReader opens the capture file at path for reading.
func NewJsonlReader(path string) (*JsonlReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open raw log file: %w", err)
	}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return &JsonlReader{closer: file, scanner: scanner}, nil
}

// Next returns the next record, or io.EOF when the file is exhausted.
func (r *JsonlReader) Next() (LogRecord, error) {
	for r.scanner.Scan() {
		r.line++
		raw := r.scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var record LogRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return LogRecord{}, fmt.Errorf("parse raw log line %d: %w", r.line, err)
		}
		return record, nil
	}
	if err := r.scanner.Err(); err != nil {
		return LogRecord{}, err
	}
	return LogRecord{}, io.EOF
}

func (r *JsonlReader) Close() error {
	return r.closer.Close()
}
