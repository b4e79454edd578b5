package dbfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roach88/dbsearch/internal/chem"
	"github.com/roach88/dbsearch/internal/ir"
)

// TextSource reads a comma separated database.
type TextSource struct {
	name    string
	size    int64
	closer  io.Closer
	r       *csv.Reader
	ordinal int
	done    bool
}

// NewTextSource wraps r. If r is an io.Closer it is closed by Close.
func NewTextSource(name string, r io.Reader, size int64) *TextSource {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	s := &TextSource{name: name, size: size, r: cr}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

func (s *TextSource) Name() string       { return s.name }
func (s *TextSource) Size() int64        { return s.size }
func (s *TextSource) Encoding() Encoding { return Text }

func (s *TextSource) Position() Position {
	return Position{Offset: s.r.InputOffset(), Ordinal: s.ordinal}
}

// Next returns the next reaction. Blank lines are skipped.
func (s *TextSource) Next() (ir.Record, error) {
	if s.done {
		return ir.Record{}, io.EOF
	}
	for {
		fields, err := s.r.Read()
		if errors.Is(err, io.EOF) {
			s.done = true
			return ir.Record{}, io.EOF
		}
		if err != nil {
			s.ordinal++
			return ir.Record{}, s.malformed(err)
		}
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			continue
		}
		s.ordinal++
		rec, err := parseTextRecord(fields)
		if err != nil {
			return ir.Record{}, s.malformed(err)
		}
		return rec, nil
	}
}

func (s *TextSource) malformed(err error) error {
	return &MalformedRecordError{File: s.name, Ordinal: s.ordinal, Offset: s.r.InputOffset(), Err: err}
}

func (s *TextSource) Close() error {
	s.done = true
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func parseTextRecord(fields []string) (ir.Record, error) {
	var rec ir.Record
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if len(fields) < 5 {
		return rec, fmt.Errorf("expected at least 5 fields, got %d", len(fields))
	}
	rec.Name = fields[0]

	var err error
	if rec.LogK, err = strconv.ParseFloat(fields[1], 64); err != nil {
		return rec, fmt.Errorf("logK: %w", err)
	}
	if rec.DeltaH, err = parseOptional(fields[2]); err != nil {
		return rec, fmt.Errorf("deltaH: %w", err)
	}
	if rec.DeltaCp, err = parseOptional(fields[3]); err != nil {
		return rec, fmt.Errorf("deltaCp: %w", err)
	}
	n, err := strconv.Atoi(fields[4])
	if err != nil {
		return rec, fmt.Errorf("component count: %w", err)
	}
	if n < 0 || n > ir.NDim {
		return rec, fmt.Errorf("component count %d outside 0..%d", n, ir.NDim)
	}
	if len(fields) < 5+2*n {
		return rec, fmt.Errorf("expected %d components, got %d fields", n, len(fields)-5)
	}
	for i := 0; i < n; i++ {
		name := fields[5+2*i]
		coef, err := strconv.ParseFloat(fields[6+2*i], 64)
		if err != nil {
			return rec, fmt.Errorf("coefficient of %q: %w", name, err)
		}
		rec.Slots[i] = ir.Slot{Name: name, Coef: coef}
		if chem.IsProton(name) {
			rec.Proton = coef
		}
	}
	if rest := fields[5+2*n:]; len(rest) > 0 {
		rec.Reference = strings.Join(rest, ", ")
	}
	if err := validate(rec); err != nil {
		return rec, err
	}
	return rec, nil
}

func parseOptional(field string) (ir.Optional, error) {
	if field == "" || field == "-" {
		return ir.None(), nil
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return ir.None(), err
	}
	return ir.Some(v), nil
}

// TextWriter writes records in the text encoding.
type TextWriter struct {
	w *csv.Writer
}

// NewTextWriter returns a writer that emits one line per record.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: csv.NewWriter(w)}
}

// Write encodes rec. A proton count not carried by any slot is written as
// an explicit H+ component.
func (tw *TextWriter) Write(rec ir.Record) error {
	comps := rec.Components()
	if rec.Proton != 0 && !hasProtonSlot(rec) {
		if len(comps) >= ir.NDim {
			return fmt.Errorf("%s: no free slot for the proton", rec.Name)
		}
		comps = append(comps, ir.Slot{Name: "H+", Coef: rec.Proton})
	}
	fields := []string{
		rec.Name,
		formatFloat(rec.LogK),
		formatOptional(rec.DeltaH),
		formatOptional(rec.DeltaCp),
		strconv.Itoa(len(comps)),
	}
	for _, c := range comps {
		fields = append(fields, c.Name, formatFloat(c.Coef))
	}
	if rec.Reference != "" {
		fields = append(fields, rec.Reference)
	}
	return tw.w.Write(fields)
}

// Flush writes buffered lines to the underlying writer.
func (tw *TextWriter) Flush() error {
	tw.w.Flush()
	return tw.w.Error()
}

func hasProtonSlot(rec ir.Record) bool {
	for _, s := range rec.Slots {
		if !s.IsEmpty() && chem.IsProton(s.Name) {
			return true
		}
	}
	return false
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatOptional(o ir.Optional) string {
	v, ok := o.Get()
	if !ok {
		return "-"
	}
	return formatFloat(v)
}
