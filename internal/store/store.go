// internal/store/store.go
package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/tamzrod/flowmeter-logger/internal/fault"
	"github.com/tamzrod/flowmeter-logger/internal/frame"
)

const timeLayout = "2006-01-02 15:04:05"

var header = []string{
	"Timestamp",
	"Instantaneous Flow",
	"Accumulated Flow",
	"Temperature 1",
	"Temperature 2",
}

// Store owns the in-memory series and the durable session log.
//
// Access discipline: the polling worker is the sole writer; the HTTP surface
// only reads. The RWMutex guarantees readers observe the series either
// before or after an append, never a half-written sample.
//
// Durability policy: on a durable write failure the in-memory append is
// KEPT and the error is surfaced to the caller. Losing visibility of a live
// reading is worse than a missed durable row.
type Store struct {
	mu sync.RWMutex

	dir  string
	line string

	samples []frame.Sample

	logPath string
	file    *os.File

	now func() time.Time
}

// New creates a store logging into dir, with file names carrying the line
// identifier. The first log file is bound lazily on the first append.
func New(dir, line string) *Store {
	s := &Store{dir: dir, line: line, now: time.Now}
	s.logPath = s.sessionPath(s.now())
	return s
}

func (s *Store) sessionPath(at time.Time) string {
	name := fmt.Sprintf("Flow_rate_Line_%s_%s.csv", s.line, at.Format("20060102_150405"))
	return filepath.Join(s.dir, name)
}

// Append adds one sample to the series and one row to the session log.
// The header row is written when the file is first created.
func (s *Store) Append(sample frame.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.samples = append(s.samples, sample)

	if err := s.appendRow(sample); err != nil {
		return fault.New(fault.KindPersist, "store append", err)
	}
	return nil
}

func (s *Store) appendRow(sample frame.Sample) error {
	if s.file == nil {
		if s.dir != "" {
			if err := os.MkdirAll(s.dir, 0o755); err != nil {
				return err
			}
		}

		_, statErr := os.Stat(s.logPath)
		fresh := os.IsNotExist(statErr)

		f, err := os.OpenFile(s.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		s.file = f

		if fresh {
			if err := writeRecord(s.file, header); err != nil {
				return err
			}
		}
	}

	if err := writeRecord(s.file, row(sample)); err != nil {
		return err
	}
	return s.file.Sync()
}

func writeRecord(w io.Writer, record []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(record); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func row(sample frame.Sample) []string {
	return []string{
		sample.Timestamp.Format(timeLayout),
		strconv.FormatFloat(sample.InstantFlow, 'f', 2, 64),
		strconv.FormatUint(uint64(sample.AccumFlow), 10),
		strconv.FormatFloat(sample.Temp1, 'f', 1, 64),
		strconv.FormatFloat(sample.Temp2, 'f', 1, 64),
	}
}

// Latest returns the most recently appended sample.
func (s *Store) Latest() (frame.Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.samples) == 0 {
		return frame.Sample{}, false
	}
	return s.samples[len(s.samples)-1], true
}

// Len returns the number of samples in the current series.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples)
}

// Snapshot returns a copy of the current series.
func (s *Store) Snapshot() []frame.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]frame.Sample, len(s.samples))
	copy(out, s.samples)
	return out
}

// Export serializes the full in-memory series in the log-file row format.
// Independent of the durable log, so it reflects memory even when durable
// writes have been failing.
func (s *Store) Export(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fault.New(fault.KindPersist, "store export", err)
	}
	for _, sample := range s.samples {
		if err := cw.Write(row(sample)); err != nil {
			return fault.New(fault.KindPersist, "store export", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fault.New(fault.KindPersist, "store export", err)
	}
	return nil
}

// Reset clears the series and rotates to a freshly named session log.
// Prior log files are left untouched.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.samples = nil

	var closeErr error
	if s.file != nil {
		closeErr = s.file.Close()
		s.file = nil
	}
	s.logPath = s.sessionPath(s.now())

	if closeErr != nil {
		return fault.New(fault.KindPersist, "store reset", closeErr)
	}
	return nil
}

// LogPath returns the path of the currently bound session log.
func (s *Store) LogPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logPath
}

// Close releases the session log file handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
