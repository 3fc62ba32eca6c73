package activity

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/stridestats/stridestats/internal/models"
	"github.com/stridestats/stridestats/internal/stats"
)

// Log is the local activity store: one JSON-lines file per athlete and tier
// under the configured data directory. Writing happens once per refresh job;
// reading is a lazy single-pass stream so a full history never has to fit in
// memory, and each caller gets its own independent stream.
type Log struct {
	dataDir string
}

// NewLog creates a Log rooted at dataDir.
func NewLog(dataDir string) *Log {
	return &Log{dataDir: dataDir}
}

func (l *Log) path(athleteID int64, tier models.Tier) string {
	return filepath.Join(l.dataDir, fmt.Sprintf("%d", athleteID), fmt.Sprintf("%s.jsonl", tier))
}

// SaveSummary replaces the athlete's summary file with the given records.
func (l *Log) SaveSummary(athleteID int64, records []models.ActivityRecord) error {
	path := l.path(athleteID, models.TierSummary)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating athlete data dir: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating summary file: %w", err)
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i := range records {
		if err := enc.Encode(&records[i]); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("encoding activity %d: %w", records[i].ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("flushing summary file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing summary file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing summary file: %w", err)
	}
	return nil
}

// BeginDetailed truncates the athlete's detailed file so a fresh download can
// append into it.
func (l *Log) BeginDetailed(athleteID int64) error {
	path := l.path(athleteID, models.TierDetailed)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating athlete data dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("truncating detailed file: %w", err)
	}
	return f.Close()
}

// AppendDetailed appends one detailed record. Appending one at a time keeps
// partial progress on disk if a long download is interrupted.
func (l *Log) AppendDetailed(athleteID int64, rec *models.ActivityRecord) error {
	path := l.path(athleteID, models.TierDetailed)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening detailed file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(rec); err != nil {
		return fmt.Errorf("encoding activity %d: %w", rec.ID, err)
	}
	return nil
}

// Has reports whether activity data exists locally for the athlete and tier.
func (l *Log) Has(athleteID int64, tier models.Tier) bool {
	info, err := os.Stat(l.path(athleteID, tier))
	return err == nil && info.Size() > 0
}

// Delete removes the stored activities for the athlete and tier.
func (l *Log) Delete(athleteID int64, tier models.Tier) error {
	err := os.Remove(l.path(athleteID, tier))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting activity file: %w", err)
	}
	return nil
}

// Stream opens a fresh single-pass stream over the stored activities. Every
// call returns an independent reader, so concurrent passes never observe each
// other's consumption. The underlying file closes itself at EOF or on a read
// error; abandon a stream early via its Close method.
func (l *Log) Stream(athleteID int64, tier models.Tier) (stats.Stream, error) {
	f, err := os.Open(l.path(athleteID, tier))
	if err != nil {
		return nil, fmt.Errorf("opening activity file: %w", err)
	}

	sc := bufio.NewScanner(f)
	// Detailed records carry best efforts, segment efforts and polylines;
	// lines can be big.
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	return &fileStream{file: f, scanner: sc}, nil
}

type fileStream struct {
	file    *os.File
	scanner *bufio.Scanner
	closed  bool
}

func (s *fileStream) Next() (*models.ActivityRecord, error) {
	if s.closed {
		return nil, io.EOF
	}

	if !s.scanner.Scan() {
		s.Close()
		if err := s.scanner.Err(); err != nil {
			return nil, fmt.Errorf("scanning activity file: %w", err)
		}
		return nil, io.EOF
	}

	var rec models.ActivityRecord
	if err := json.Unmarshal(s.scanner.Bytes(), &rec); err != nil {
		s.Close()
		return nil, fmt.Errorf("decoding activity line: %w", err)
	}
	return &rec, nil
}

func (s *fileStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}
