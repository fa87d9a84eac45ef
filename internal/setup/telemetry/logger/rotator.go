// Package logger provides the file writer behind the session log files.
package logger

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Rotator appends to a log file and keeps only its newest lines.
// The file is rewritten once twice the line budget has been written,
// so rewrites stay rare on busy loggers.
type Rotator struct {
	mu       sync.Mutex
	file     *os.File
	path     string
	maxLines int
	lines    [][]byte
	written  int
}

// NewRotator opens the file for appending. A maxLines of zero or less disables trimming.
func NewRotator(path string, maxLines int) (*Rotator, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open log file %s: %w", path, err)
	}

	return &Rotator{
		file:     file,
		path:     path,
		maxLines: maxLines,
	}, nil
}

// Write implements io.Writer.
func (r *Rotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, err := r.file.Write(p)
	if err != nil || r.maxLines <= 0 {
		return n, err
	}

	for line := range bytes.SplitSeq(bytes.TrimRight(p, "\n"), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		r.lines = append(r.lines, bytes.Clone(line))
		if len(r.lines) > r.maxLines {
			r.lines = r.lines[len(r.lines)-r.maxLines:]
		}
		r.written++
	}

	if r.written >= r.maxLines*2 {
		if err := r.rotate(); err != nil {
			return n, fmt.Errorf("failed to rotate log file: %w", err)
		}
		r.written = len(r.lines)
	}

	return n, nil
}

// Sync flushes the file.
func (r *Rotator) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Sync()
}

// Close closes the file.
func (r *Rotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}

// rotate replaces the file with the retained lines.
func (r *Rotator) rotate() error {
	temp, err := os.CreateTemp(filepath.Dir(r.path), "temp-log-")
	if err != nil {
		return err
	}
	tempPath := temp.Name()

	content := append(bytes.Join(r.lines, []byte("\n")), '\n')
	if _, err := temp.Write(content); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return err
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}

	r.file.Close()
	if err := os.Rename(tempPath, r.path); err != nil {
		return err
	}

	file, err := os.OpenFile(r.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	r.file = file

	return nil
}
