package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Trace entry kinds.
const (
	TraceMismatches = "mismatches" // verify: mismatches found for a size
	TraceNsPerOp    = "ns_per_op"  // bench: mean time per kernel call
	TraceMeanCost   = "mean_cost"  // search: mean best SAD per block
	TraceProgress   = "progress"   // fraction of the job completed
)

const traceFile = "trace.jsonl"

// TraceEntry is one measurement recorded while a job runs, stored as one
// JSON line of <baseDir>/jobs/<jobID>/trace.jsonl.
type TraceEntry struct {
	// Seq numbers entries in the order they were produced
	Seq int `json:"seq"`

	// Kind says what Value measures (see the Trace* constants)
	Kind string `json:"kind"`

	// Size is the block size the entry belongs to, empty for job-wide entries
	Size string `json:"size,omitempty"`

	// Strategy is the accumulation strategy measured, if any
	Strategy string `json:"strategy,omitempty"`

	Value float64 `json:"value"`

	Timestamp time.Time `json:"timestamp"`
}

func tracePath(baseDir, jobID string) string {
	return filepath.Join(baseDir, "jobs", jobID, traceFile)
}

// TraceWriter appends entries to a job's trace. It is safe for concurrent
// use; every Record is flushed so readers see complete lines while the job
// is still running.
type TraceWriter struct {
	mu     sync.Mutex
	file   *os.File
	buf    *bufio.Writer
	enc    *json.Encoder
	path   string
	seq    int
	closed bool
}

// NewTraceWriter opens the trace of jobID under baseDir. With resume set the
// existing entries are kept and numbering continues after them; otherwise
// the trace is truncated.
func NewTraceWriter(baseDir, jobID string, resume bool) (*TraceWriter, error) {
	path := tracePath(baseDir, jobID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create job directory: %w", err)
	}

	seq := 0
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if resume {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
		n, err := countLines(path)
		if err != nil {
			return nil, err
		}
		seq = n
	}

	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	buf := bufio.NewWriter(file)
	return &TraceWriter{
		file: file,
		buf:  buf,
		enc:  json.NewEncoder(buf),
		path: path,
		seq:  seq,
	}, nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		n++
	}
	return n, sc.Err()
}

// Write stores entry as given. Use Record to number and stamp entries.
func (tw *TraceWriter) Write(entry TraceEntry) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.writeLocked(entry)
}

func (tw *TraceWriter) writeLocked(entry TraceEntry) error {
	if tw.closed {
		return errors.New("trace writer is closed")
	}
	// Encode terminates every value with a newline.
	if err := tw.enc.Encode(entry); err != nil {
		return fmt.Errorf("failed to write trace entry: %w", err)
	}
	return nil
}

// Record writes an entry with the next sequence number and the current time.
func (tw *TraceWriter) Record(kind, size, strategy string, value float64) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	tw.seq++
	err := tw.writeLocked(TraceEntry{
		Seq:       tw.seq,
		Kind:      kind,
		Size:      size,
		Strategy:  strategy,
		Value:     value,
		Timestamp: time.Now(),
	})
	if err != nil {
		return err
	}
	return tw.buf.Flush()
}

// Close flushes and closes the trace. Closing twice is a no-op.
func (tw *TraceWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.closed {
		return nil
	}
	tw.closed = true

	flushErr := tw.buf.Flush()
	closeErr := tw.file.Close()
	if flushErr != nil {
		return fmt.Errorf("failed to flush on close: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close trace file: %w", closeErr)
	}
	return nil
}

// Path returns the filesystem path to the trace file.
func (tw *TraceWriter) Path() string {
	return tw.path
}

// TraceReader decodes the entries of a trace one at a time.
type TraceReader struct {
	file *os.File
	dec  *json.Decoder
}

// NewTraceReader opens the trace of jobID. A missing trace yields a
// *NotFoundError.
func NewTraceReader(baseDir, jobID string) (*TraceReader, error) {
	file, err := os.Open(tracePath(baseDir, jobID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, &NotFoundError{JobID: jobID}
	} else if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	return &TraceReader{file: file, dec: json.NewDecoder(bufio.NewReader(file))}, nil
}

// Read returns the next entry, or io.EOF at the end of the trace.
func (tr *TraceReader) Read() (*TraceEntry, error) {
	var entry TraceEntry
	if err := tr.dec.Decode(&entry); err == io.EOF {
		return nil, io.EOF
	} else if err != nil {
		return nil, fmt.Errorf("failed to decode trace entry: %w", err)
	}
	return &entry, nil
}

// ReadAll reads the remaining entries.
func (tr *TraceReader) ReadAll() ([]TraceEntry, error) {
	var entries []TraceEntry
	for {
		entry, err := tr.Read()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
}

// Close closes the underlying file.
func (tr *TraceReader) Close() error {
	return tr.file.Close()
}

// DeleteTrace removes the trace of jobID. A missing trace is not an error.
func DeleteTrace(baseDir, jobID string) error {
	err := os.Remove(tracePath(baseDir, jobID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete trace file: %w", err)
	}
	return nil
}
