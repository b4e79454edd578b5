package testutil

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/roach88/dbsearch/internal/dbfile"
	"github.com/roach88/dbsearch/internal/ir"
)

// MemorySource is a dbfile.Source over records held in memory. Offsets
// advance by one per record, so Size() equals the record count.
type MemorySource struct {
	name   string
	recs   []ir.Record
	enc    dbfile.Encoding
	next   int
	closed bool
	// FailAt, when > 0, makes the FailAt-th record a malformed record.
	FailAt int
}

// NewMemorySource returns a binary-encoded source over recs.
func NewMemorySource(name string, recs ...ir.Record) *MemorySource {
	return &MemorySource{name: name, recs: recs, enc: dbfile.Binary}
}

// AsText makes the source report the text encoding, which enables the
// per-record checks of the first pass.
func (s *MemorySource) AsText() *MemorySource {
	s.enc = dbfile.Text
	return s
}

func (s *MemorySource) Next() (ir.Record, error) {
	if s.closed || s.next >= len(s.recs) {
		return ir.Record{}, io.EOF
	}
	s.next++
	if s.FailAt == s.next {
		return ir.Record{}, &dbfile.MalformedRecordError{
			File:    s.name,
			Ordinal: s.next,
			Offset:  int64(s.next),
			Err:     fmt.Errorf("injected failure"),
		}
	}
	return s.recs[s.next-1], nil
}

func (s *MemorySource) Name() string              { return s.name }
func (s *MemorySource) Size() int64               { return int64(len(s.recs)) }
func (s *MemorySource) Encoding() dbfile.Encoding { return s.enc }
func (s *MemorySource) Closed() bool              { return s.closed }

func (s *MemorySource) Position() dbfile.Position {
	return dbfile.Position{Offset: int64(s.next), Ordinal: s.next}
}

func (s *MemorySource) Close() error {
	s.closed = true
	return nil
}

// MemoryDB is a named set of in-memory databases. Its Open method is a
// dbfile.Opener that hands out a fresh source per call.
//
// Thread-safety: MemoryDB is safe for concurrent use.
type MemoryDB struct {
	mu    sync.Mutex
	dbs   map[string][]ir.Record
	text  map[string]bool
	fail  map[string]int
	opens map[string]int
}

// NewMemoryDB returns an empty MemoryDB.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		dbs:   make(map[string][]ir.Record),
		text:  make(map[string]bool),
		fail:  make(map[string]int),
		opens: make(map[string]int),
	}
}

// Add registers a database.
func (m *MemoryDB) Add(name string, recs ...ir.Record) *MemoryDB {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dbs[name] = recs
	return m
}

// AddText registers a database that reports the text encoding.
func (m *MemoryDB) AddText(name string, recs ...ir.Record) *MemoryDB {
	m.Add(name, recs...)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text[name] = true
	return m
}

// FailAt makes the ordinal-th record of name malformed.
func (m *MemoryDB) FailAt(name string, ordinal int) *MemoryDB {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[name] = ordinal
	return m
}

// Open implements dbfile.Opener.
func (m *MemoryDB) Open(name string) (dbfile.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs, ok := m.dbs[name]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", name, os.ErrNotExist)
	}
	m.opens[name]++
	src := NewMemorySource(name, recs...)
	src.FailAt = m.fail[name]
	if m.text[name] {
		src.AsText()
	}
	return src, nil
}

// Opens returns how many times name was opened.
func (m *MemoryDB) Opens(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens[name]
}

// TextOpener returns a dbfile.Opener over text databases given as strings.
func TextOpener(files map[string]string) dbfile.Opener {
	return func(name string) (dbfile.Source, error) {
		content, ok := files[name]
		if !ok {
			return nil, fmt.Errorf("open %s: %w", name, os.ErrNotExist)
		}
		return dbfile.NewTextSource(name, strings.NewReader(content), int64(len(content))), nil
	}
}
