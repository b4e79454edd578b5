package dbfile

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/roach88/dbsearch/internal/chem"
	"github.com/roach88/dbsearch/internal/ir"
)

// Encoding identifies the on-disk format of a database.
type Encoding int

const (
	Text Encoding = iota
	Binary
)

func (e Encoding) String() string {
	switch e {
	case Text:
		return "text"
	case Binary:
		return "binary"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// EncodingFor chooses the encoding from a file name: names ending in "db"
// (any case) are binary, everything else is text.
func EncodingFor(path string) Encoding {
	if strings.HasSuffix(strings.ToLower(path), "db") {
		return Binary
	}
	return Text
}

// Position locates the cursor inside a source.
type Position struct {
	// Offset is the number of bytes consumed so far.
	Offset int64
	// Ordinal is the 1-based number of the last record returned.
	Ordinal int
}

// Source is a forward-only stream of records from one database.
type Source interface {
	// Next returns the next record, or io.EOF after the last one.
	// A record that cannot be decoded is reported as *MalformedRecordError.
	Next() (ir.Record, error)
	Name() string
	// Size is the total byte size, or 0 when unknown.
	Size() int64
	Position() Position
	Encoding() Encoding
	Close() error
}

// Opener opens a database by name.
type Opener func(name string) (Source, error)

// MalformedRecordError reports a record that could not be decoded.
type MalformedRecordError struct {
	File    string
	Ordinal int
	Offset  int64
	Err     error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%s: record %d (offset %d): %v", e.File, e.Ordinal, e.Offset, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// IsMalformed reports whether err is a *MalformedRecordError.
func IsMalformed(err error) bool {
	var me *MalformedRecordError
	return errors.As(err, &me)
}

// Open opens the database at path with the encoding chosen by EncodingFor.
func Open(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat database: %w", err)
	}
	if EncodingFor(path) == Binary {
		return NewBinarySource(path, f, info.Size()), nil
	}
	return NewTextSource(path, f, info.Size()), nil
}

// Fraction returns how far through a source of the given size the cursor
// is, in [0, 1]. An unknown size reports 0.
func Fraction(pos Position, size int64) float64 {
	if size <= 0 {
		return 0
	}
	f := float64(pos.Offset) / float64(size)
	if f > 1 {
		return 1
	}
	return f
}

// Average bytes per record, measured on real databases.
const (
	bytesPerTextRecord   = 54.675
	bytesPerBinaryRecord = 124.929
)

// EstimateRecords estimates the number of records in a database of the
// given size without scanning it.
func EstimateRecords(size int64, enc Encoding) int {
	if size <= 0 {
		return 0
	}
	per := bytesPerTextRecord
	if enc == Binary {
		per = bytesPerBinaryRecord
	}
	n := int(float64(size)/per + 0.5)
	if n < 1 {
		return 1
	}
	return n
}

// validate checks record invariants shared by both encodings.
func validate(rec ir.Record) error {
	if strings.TrimSpace(rec.Name) == "" {
		return errors.New("empty reaction name")
	}
	for i, s := range rec.Slots {
		if s.IsEmpty() {
			if s.Coef != 0 {
				return fmt.Errorf("slot %d: coefficient %g without component", i+1, s.Coef)
			}
			continue
		}
		for j := 0; j < i; j++ {
			if chem.NameEqual(rec.Slots[j].Name, s.Name) {
				return fmt.Errorf("component %q appears twice", s.Name)
			}
		}
	}
	return nil
}
