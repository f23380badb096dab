package repository

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/wellscreen/internal/domain/model"
	"github.com/okian/wellscreen/pkg/metrics"
)

// DriverJSONL appends records to day-partitioned JSON lines files.
const DriverJSONL = "jsonl"

const ledgerFile = "screenings.jsonl"

// ledgerLine is one line of the ledger.
type ledgerLine struct {
	ID  string       `json:"id"`
	Doc model.Record `json:"doc"`
}

// location points at one line inside a ledger file.
type location struct {
	path   string
	offset int64
	length int
}

// JSONLStore is an append-only ledger laid out as <root>/<YYYY-MM-DD>/screenings.jsonl.
// Lines are never rewritten. An id index is rebuilt from disk on open so Get
// reads exactly one line.
type JSONLStore struct {
	mu      sync.RWMutex
	root    string
	index   map[string]location
	day     string
	current *os.File
	closed  bool
	opts    options
}

// OpenJSONL opens the ledger under root, creating it if needed.
func OpenJSONL(root string, opts ...Option) (*JSONLStore, error) {
	if root == "" {
		return nil, ErrMissingStorePath
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("create ledger root: %w", err)
	}

	s := &JSONLStore{
		root:  root,
		index: make(map[string]location),
		opts:  applyOptions(opts),
	}
	if err := s.rebuildIndex(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JSONLStore) rebuildIndex() error {
	paths, err := filepath.Glob(filepath.Join(s.root, "*", ledgerFile))
	if err != nil {
		return fmt.Errorf("list ledger files: %w", err)
	}
	for _, path := range paths {
		if err := s.indexFile(path); err != nil {
			return fmt.Errorf("index %s: %w", path, err)
		}
	}
	return nil
}

// indexFile records the position of every complete line in path. A torn
// trailing line from an interrupted write is cut off so the next append
// starts on a fresh line.
func (s *JSONLStore) indexFile(path string) error {
	end, err := s.scanFile(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() > end {
		if err := os.Truncate(path, end); err != nil {
			return fmt.Errorf("truncate torn line: %w", err)
		}
	}
	return nil
}

// scanFile indexes path and returns the offset just past its last newline.
func (s *JSONLStore) scanFile(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var offset, end int64
	for {
		line, err := r.ReadBytes('\n')
		if len(line) > 0 && line[len(line)-1] == '\n' {
			var head struct {
				ID string `json:"id"`
			}
			if json.Unmarshal(line, &head) == nil && head.ID != "" {
				s.index[head.ID] = location{path: path, offset: offset, length: len(line)}
			}
			end = offset + int64(len(line))
		}
		offset += int64(len(line))
		if errors.Is(err, io.EOF) {
			return end, nil
		}
		if err != nil {
			return 0, err
		}
	}
}

func (s *JSONLStore) AppendRecord(ctx context.Context, rec model.Record) (id string, err error) {
	start := time.Now()
	defer func() { observeAppend(DriverJSONL, start, err) }()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	id = s.opts.newID()
	b, err := json.Marshal(ledgerLine{ID: id, Doc: rec})
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	b = append(b, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrStoreClosed
	}

	f, err := s.fileFor(rec.CreatedAt)
	if err != nil {
		return "", unavailable("open ledger", err)
	}
	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return "", unavailable("seek ledger", err)
	}
	if _, err := f.Write(b); err != nil {
		return "", unavailable("append ledger", err)
	}
	if err := f.Sync(); err != nil {
		return "", unavailable("sync ledger", err)
	}

	s.index[id] = location{path: f.Name(), offset: offset, length: len(b)}
	return id, nil
}

// fileFor returns the open ledger file for the day of at, rotating when the
// day changes. Must be called with s.mu held.
func (s *JSONLStore) fileFor(at time.Time) (*os.File, error) {
	day := at.UTC().Format("2006-01-02")
	if s.current != nil && s.day == day {
		return s.current, nil
	}

	dir := filepath.Join(s.root, day)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, ledgerFile), os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}
	if s.current != nil {
		_ = s.current.Close()
	}
	s.current, s.day = f, day
	return f, nil
}

func (s *JSONLStore) Get(ctx context.Context, id string) (model.Record, error) {
	s.mu.RLock()
	loc, ok := s.index[id]
	s.mu.RUnlock()
	if !ok {
		metrics.RecordErrorByComponent("repository_jsonl", "not_found")
		return model.Record{}, ErrNotFound
	}

	f, err := os.Open(loc.path)
	if err != nil {
		return model.Record{}, unavailable("open ledger", err)
	}
	defer f.Close()

	buf := make([]byte, loc.length)
	if _, err := f.ReadAt(buf, loc.offset); err != nil {
		return model.Record{}, unavailable("read ledger", err)
	}

	var line ledgerLine
	if err := json.NewDecoder(bytes.NewReader(buf)).Decode(&line); err != nil {
		return model.Record{}, fmt.Errorf("decode record %s: %w", id, err)
	}
	return line.Doc, nil
}

func (s *JSONLStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index)
}

// Close closes the active ledger file.
func (s *JSONLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.current == nil {
		return nil
	}
	err := s.current.Close()
	s.current = nil
	return err
}
