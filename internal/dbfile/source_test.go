package dbfile

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dbsearch/internal/ir"
)

const ironText = `# iron hydrolysis
FeOH+, -9.5, 55.2, -, 3, Fe+2, 1, H2O, 1, H+, -1, Baes & Mesmer
Fe+3, -13.02, 42.1, , 2, Fe+2, 1, e-, -1

Fe(OH)3(s), -3.2, -, -, 3, Fe+3, 1, H2O, 3, H+, -3
@FeOH+, 0, -, -, 0
`

func readAll(t *testing.T, src Source) []ir.Record {
	t.Helper()
	var out []ir.Record
	for {
		rec, err := src.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, rec)
	}
}

// ============================================================================
// Text encoding
// ============================================================================

func TestTextSourceParsesRecords(t *testing.T) {
	src := NewTextSource("iron.csv", strings.NewReader(ironText), int64(len(ironText)))
	recs := readAll(t, src)
	require.Len(t, recs, 4)

	feoh := recs[0]
	assert.Equal(t, "FeOH+", feoh.Name)
	assert.Equal(t, -9.5, feoh.LogK)
	assert.True(t, feoh.DeltaH.Valid())
	assert.False(t, feoh.DeltaCp.Valid())
	assert.Equal(t, ir.Slot{Name: "H+", Coef: -1}, feoh.Slots[2])
	assert.Equal(t, -1.0, feoh.Proton, "proton comes from the H+ slot")
	assert.Equal(t, "Baes & Mesmer", feoh.Reference)

	assert.False(t, recs[1].DeltaCp.Valid(), "empty field is unset")
	assert.True(t, recs[3].IsWithdrawal())

	assert.Equal(t, 4, src.Position().Ordinal)
	assert.Equal(t, 1.0, Fraction(src.Position(), src.Size()))
	assert.Equal(t, Text, src.Encoding())
}

func TestTextSourceReferenceWithCommas(t *testing.T) {
	src := NewTextSource("x.csv", strings.NewReader("A, 1, -, -, 1, B, 1, Smith, 1999, p 4\n"), 0)
	recs := readAll(t, src)
	require.Len(t, recs, 1)
	assert.Equal(t, "Smith, 1999, p 4", recs[0].Reference)
}

func TestTextSourceMalformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"too few fields", "A, 1, -"},
		{"bad logK", "A, x, -, -, 1, B, 1"},
		{"bad count", "A, 1, -, -, many, B, 1"},
		{"count too large", "A, 1, -, -, 8, B, 1"},
		{"missing component", "A, 1, -, -, 2, B, 1"},
		{"bad coefficient", "A, 1, -, -, 1, B, one"},
		{"duplicate component", "A, 1, -, -, 2, Fe+2, 1, FE +2, 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := "B, 0, -, -, 1, B, 1\n" + tt.line + "\n"
			src := NewTextSource("bad.csv", strings.NewReader(input), 0)
			_, err := src.Next()
			require.NoError(t, err)
			_, err = src.Next()
			require.Error(t, err)
			assert.True(t, IsMalformed(err))

			var me *MalformedRecordError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, "bad.csv", me.File)
			assert.Equal(t, 2, me.Ordinal)
		})
	}
}

func TestTextSourceEOFIsSticky(t *testing.T) {
	src := NewTextSource("e.csv", strings.NewReader(""), 0)
	_, err := src.Next()
	assert.Equal(t, io.EOF, err)
	_, err = src.Next()
	assert.Equal(t, io.EOF, err)
}

// ============================================================================
// Binary encoding
// ============================================================================

func TestBinaryRoundTrip(t *testing.T) {
	want := readAll(t, NewTextSource("iron.csv", strings.NewReader(ironText), 0))

	var buf bytes.Buffer
	w := NewBinaryWriter(&buf)
	for _, rec := range want {
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Flush())

	src := NewBinarySource("iron.db", bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	got := readAll(t, src)
	assert.Equal(t, want, got)
	assert.Equal(t, int64(buf.Len()), src.Position().Offset)
	assert.Equal(t, Binary, src.Encoding())
}

func TestBinaryEmptyDatabase(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewBinaryWriter(&buf).Flush())
	_, err := NewBinarySource("e.db", &buf, 4).Next()
	assert.Equal(t, io.EOF, err)

	_, err = NewBinarySource("zero.db", bytes.NewReader(nil), 0).Next()
	assert.Equal(t, io.EOF, err)
}

func TestBinaryTruncated(t *testing.T) {
	var buf bytes.Buffer
	w := NewBinaryWriter(&buf)
	require.NoError(t, w.Write(ir.Record{Name: "A", LogK: 1, Slots: [ir.NDim]ir.Slot{{Name: "B", Coef: 1}}}))
	require.NoError(t, w.Flush())

	data := buf.Bytes()[:buf.Len()-3]
	_, err := NewBinarySource("t.db", bytes.NewReader(data), 0).Next()
	require.Error(t, err)
	assert.True(t, IsMalformed(err))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestBinaryBadMagic(t *testing.T) {
	_, err := NewBinarySource("m.db", strings.NewReader("NOPE...."), 0).Next()
	assert.True(t, IsMalformed(err))
}

// ============================================================================
// Files and conversion
// ============================================================================

func TestEncodingFor(t *testing.T) {
	assert.Equal(t, Binary, EncodingFor("Main.DB"))
	assert.Equal(t, Binary, EncodingFor("/data/thermo.db"))
	assert.Equal(t, Text, EncodingFor("thermo.csv"))
	assert.Equal(t, Text, EncodingFor("thermo.txt"))
}

func TestConvertTextToBinaryAndBack(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "iron.csv")
	require.NoError(t, os.WriteFile(txt, []byte(ironText), 0o644))

	src, err := Open(txt)
	require.NoError(t, err)
	n, err := Convert(src, filepath.Join(dir, "iron.db"))
	require.NoError(t, err)
	require.NoError(t, src.Close())
	assert.Equal(t, 4, n)

	bin, err := Open(filepath.Join(dir, "iron.db"))
	require.NoError(t, err)
	_, err = Convert(bin, filepath.Join(dir, "back.csv"))
	require.NoError(t, err)
	require.NoError(t, bin.Close())

	back, err := Open(filepath.Join(dir, "back.csv"))
	require.NoError(t, err)
	defer back.Close()

	orig := readAll(t, NewTextSource("iron.csv", strings.NewReader(ironText), 0))
	assert.Equal(t, orig, readAll(t, back))
}

func TestTextWriterAddsProtonSlot(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf)
	rec := ir.Record{Name: "FeOH+", LogK: -9.5, Proton: -1, Slots: [ir.NDim]ir.Slot{{Name: "Fe+2", Coef: 1}, {Name: "H2O", Coef: 1}}}
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Flush())
	assert.Equal(t, "FeOH+,-9.5,-,-,3,Fe+2,1,H2O,1,H+,-1\n", buf.String())
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestProgressEstimates(t *testing.T) {
	assert.Equal(t, 0.0, Fraction(Position{Offset: 10}, 0))
	assert.Equal(t, 0.5, Fraction(Position{Offset: 50}, 100))
	assert.Equal(t, 1.0, Fraction(Position{Offset: 150}, 100))

	assert.Equal(t, 100, EstimateRecords(5467, Text))
	assert.Equal(t, 100, EstimateRecords(12493, Binary))
	assert.Equal(t, 0, EstimateRecords(0, Text))
	assert.Equal(t, 1, EstimateRecords(3, Binary))
}
