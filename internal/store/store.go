// Package store persists the detection count as a small JSON document.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fmueller/jabcount/internal/atomicfile"
	"github.com/fmueller/jabcount/internal/session"
)

// Record is the persisted document.
type Record struct {
	Count       int64     `json:"count"`
	LastUpdated time.Time `json:"last_updated"`
	Engine      string    `json:"engine,omitempty"`
	Model       string    `json:"model,omitempty"`
}

// File saves a Record to Path on every published update.
type File struct {
	Path   string
	Engine string
	Model  string
	Now    func() time.Time
}

func (f *File) Publish(_ context.Context, u session.Update) error {
	at := u.At
	if at.IsZero() {
		at = f.now()
	}
	return f.Save(Record{Count: u.Count, LastUpdated: at, Engine: f.Engine, Model: f.Model})
}

func (f *File) Save(rec Record) error {
	if f.Path == "" {
		return errors.New("store path is required")
	}

	content, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode count record: %w", err)
	}
	content = append(content, '\n')

	return atomicfile.WriteFile(f.Path, content, 0o644)
}

// Load reads the last saved Record. A missing file yields a zero Record and
// no error so a first run can resume from nothing.
func (f *File) Load() (Record, error) {
	content, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return Record{}, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("read count record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(content, &rec); err != nil {
		return Record{}, fmt.Errorf("decode count record %s: %w", f.Path, err)
	}
	if rec.Count < 0 {
		return Record{}, fmt.Errorf("count record %s has negative count %d", f.Path, rec.Count)
	}
	return rec, nil
}

func (f *File) now() time.Time {
	if f.Now == nil {
		return time.Now()
	}
	return f.Now()
}
