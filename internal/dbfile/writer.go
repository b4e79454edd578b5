package dbfile

import (
	"fmt"
	"io"
	"os"

	"github.com/roach88/dbsearch/internal/ir"
)

// Writer encodes records in one of the database encodings.
type Writer interface {
	Write(rec ir.Record) error
	Flush() error
}

// NewWriter returns a writer for the given encoding.
func NewWriter(w io.Writer, enc Encoding) Writer {
	if enc == Binary {
		return NewBinaryWriter(w)
	}
	return NewTextWriter(w)
}

// Convert copies every record of src to a new database at dst, encoded per
// EncodingFor(dst). It returns the number of records written.
func Convert(src Source, dst string) (int, error) {
	f, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dst, err)
	}
	w := NewWriter(f, EncodingFor(dst))
	n := 0
	for {
		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			f.Close()
			return n, err
		}
		if err := w.Write(rec); err != nil {
			f.Close()
			return n, fmt.Errorf("write %s: %w", rec.Name, err)
		}
		n++
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return n, fmt.Errorf("flush %s: %w", dst, err)
	}
	return n, f.Close()
}
