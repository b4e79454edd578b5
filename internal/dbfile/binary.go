package dbfile

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/roach88/dbsearch/internal/ir"
)

// binaryMagic opens every binary database.
var binaryMagic = [4]byte{'D', 'B', 'S', '1'}

const (
	flagDeltaH  = 1 << 0
	flagDeltaCp = 1 << 1
)

// countingReader tracks the number of bytes consumed.
type countingReader struct {
	r *bufio.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// BinarySource reads a binary database.
//
// Layout after the 4-byte magic, per record:
//
//	name      string
//	logK      f64
//	flags     u8   (bit 0: deltaH present, bit 1: deltaCp present)
//	deltaH    f64
//	deltaCp   f64
//	proton    f64
//	n         u8
//	n × (component string, coef f64)
//	reference string
//
// Strings are a u16 byte length followed by UTF-8. All numbers are big-endian.
type BinarySource struct {
	name    string
	size    int64
	closer  io.Closer
	r       *countingReader
	ordinal int
	started bool
	done    bool
}

// NewBinarySource wraps r. If r is an io.Closer it is closed by Close.
func NewBinarySource(name string, r io.Reader, size int64) *BinarySource {
	s := &BinarySource{name: name, size: size, r: &countingReader{r: bufio.NewReader(r)}}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

func (s *BinarySource) Name() string       { return s.name }
func (s *BinarySource) Size() int64        { return s.size }
func (s *BinarySource) Encoding() Encoding { return Binary }

func (s *BinarySource) Position() Position {
	return Position{Offset: s.r.n, Ordinal: s.ordinal}
}

func (s *BinarySource) Next() (ir.Record, error) {
	if s.done {
		return ir.Record{}, io.EOF
	}
	if !s.started {
		s.started = true
		var magic [4]byte
		if _, err := io.ReadFull(s.r, magic[:]); err != nil {
			if errors.Is(err, io.EOF) {
				s.done = true
				return ir.Record{}, io.EOF
			}
			return ir.Record{}, s.malformed(fmt.Errorf("header: %w", err))
		}
		if magic != binaryMagic {
			return ir.Record{}, s.malformed(fmt.Errorf("bad magic %q", magic[:]))
		}
	}
	if _, err := s.r.r.Peek(1); errors.Is(err, io.EOF) {
		s.done = true
		return ir.Record{}, io.EOF
	}
	s.ordinal++
	rec, err := s.readRecord()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return ir.Record{}, s.malformed(err)
	}
	if err := validate(rec); err != nil {
		return ir.Record{}, s.malformed(err)
	}
	return rec, nil
}

func (s *BinarySource) readRecord() (ir.Record, error) {
	var rec ir.Record
	var err error
	if rec.Name, err = readString(s.r); err != nil {
		return rec, fmt.Errorf("name: %w", err)
	}
	if rec.LogK, err = readFloat(s.r); err != nil {
		return rec, fmt.Errorf("logK: %w", err)
	}
	var flags uint8
	if err := binary.Read(s.r, binary.BigEndian, &flags); err != nil {
		return rec, fmt.Errorf("flags: %w", err)
	}
	dh, err := readFloat(s.r)
	if err != nil {
		return rec, fmt.Errorf("deltaH: %w", err)
	}
	dcp, err := readFloat(s.r)
	if err != nil {
		return rec, fmt.Errorf("deltaCp: %w", err)
	}
	if flags&flagDeltaH != 0 {
		rec.DeltaH = ir.Some(dh)
	}
	if flags&flagDeltaCp != 0 {
		rec.DeltaCp = ir.Some(dcp)
	}
	if rec.Proton, err = readFloat(s.r); err != nil {
		return rec, fmt.Errorf("proton: %w", err)
	}
	var n uint8
	if err := binary.Read(s.r, binary.BigEndian, &n); err != nil {
		return rec, fmt.Errorf("component count: %w", err)
	}
	if int(n) > ir.NDim {
		return rec, fmt.Errorf("component count %d exceeds %d", n, ir.NDim)
	}
	for i := 0; i < int(n); i++ {
		name, err := readString(s.r)
		if err != nil {
			return rec, fmt.Errorf("component %d: %w", i+1, err)
		}
		coef, err := readFloat(s.r)
		if err != nil {
			return rec, fmt.Errorf("coefficient %d: %w", i+1, err)
		}
		rec.Slots[i] = ir.Slot{Name: name, Coef: coef}
	}
	if rec.Reference, err = readString(s.r); err != nil {
		return rec, fmt.Errorf("reference: %w", err)
	}
	return rec, nil
}

func (s *BinarySource) malformed(err error) error {
	return &MalformedRecordError{File: s.name, Ordinal: s.ordinal, Offset: s.r.n, Err: err}
}

func (s *BinarySource) Close() error {
	s.done = true
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func readString(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func readFloat(r io.Reader) (float64, error) {
	var bits uint64
	if err := binary.Read(r, binary.BigEndian, &bits); err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

// BinaryWriter writes records in the binary encoding.
type BinaryWriter struct {
	w       *bufio.Writer
	started bool
}

// NewBinaryWriter returns a writer for the binary encoding. The header is
// written with the first record, or by Flush for an empty database.
func NewBinaryWriter(w io.Writer) *BinaryWriter {
	return &BinaryWriter{w: bufio.NewWriter(w)}
}

func (bw *BinaryWriter) header() error {
	if bw.started {
		return nil
	}
	bw.started = true
	_, err := bw.w.Write(binaryMagic[:])
	return err
}

// Write encodes rec.
func (bw *BinaryWriter) Write(rec ir.Record) error {
	if err := bw.header(); err != nil {
		return err
	}
	comps := rec.Components()
	var flags uint8
	dh, ok := rec.DeltaH.Get()
	if ok {
		flags |= flagDeltaH
	}
	dcp, ok := rec.DeltaCp.Get()
	if ok {
		flags |= flagDeltaCp
	}

	if err := writeString(bw.w, rec.Name); err != nil {
		return err
	}
	if err := writeFloat(bw.w, rec.LogK); err != nil {
		return err
	}
	if err := bw.w.WriteByte(flags); err != nil {
		return err
	}
	for _, f := range []float64{dh, dcp, rec.Proton} {
		if err := writeFloat(bw.w, f); err != nil {
			return err
		}
	}
	if err := bw.w.WriteByte(uint8(len(comps))); err != nil {
		return err
	}
	for _, c := range comps {
		if err := writeString(bw.w, c.Name); err != nil {
			return err
		}
		if err := writeFloat(bw.w, c.Coef); err != nil {
			return err
		}
	}
	return writeString(bw.w, rec.Reference)
}

// Flush writes buffered data to the underlying writer.
func (bw *BinaryWriter) Flush() error {
	if err := bw.header(); err != nil {
		return err
	}
	return bw.w.Flush()
}

func writeString(w io.Writer, s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("string of %d bytes too long", len(s))
	}
	if err := binary.Write(w, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func writeFloat(w io.Writer, f float64) error {
	return binary.Write(w, binary.BigEndian, math.Float64bits(f))
}
