package testutil

import (
	"context"
	"io"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dbsearch/internal/dbfile"
	"github.com/roach88/dbsearch/internal/ir"
)

func TestFixedRunIDGenerator(t *testing.T) {
	gen := NewFixedRunIDGenerator("run-1")
	assert.Equal(t, "run-1", gen.Generate())
	assert.Equal(t, "run-1", gen.Generate())

	assert.Equal(t, "test-run-default", NewFixedRunIDGenerator("").Generate())
}

func TestRec(t *testing.T) {
	r := Rec("FeOH+", -9.5, "Fe+2", 1, "H2O", 1.0, "H+", -1)
	assert.Equal(t, "FeOH+", r.Name)
	assert.Equal(t, ir.Slot{Name: "H2O", Coef: 1}, r.Slots[1])
	assert.Equal(t, -1.0, r.Proton)

	assert.Panics(t, func() { Rec("X", 0, "A") })
	assert.Panics(t, func() { Rec("X", 0, 1, 1) })
}

func TestWithThermo(t *testing.T) {
	r := WithThermo(Rec("A", 1, "B", 1), 10, math.NaN())
	assert.True(t, r.DeltaH.Valid())
	assert.False(t, r.DeltaCp.Valid())
}

func TestMemoryDB(t *testing.T) {
	db := NewMemoryDB().
		Add("a.db", Rec("A", 1, "B", 1), Withdraw("A")).
		AddText("b.csv", Rec("C", 1, "B", 1)).
		FailAt("a.db", 2)

	src, err := db.Open("a.db")
	require.NoError(t, err)
	assert.Equal(t, dbfile.Binary, src.Encoding())
	rec, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, "A", rec.Name)
	_, err = src.Next()
	assert.True(t, dbfile.IsMalformed(err))

	txt, err := db.Open("b.csv")
	require.NoError(t, err)
	assert.Equal(t, dbfile.Text, txt.Encoding())
	_, err = txt.Next()
	require.NoError(t, err)
	_, err = txt.Next()
	assert.Equal(t, io.EOF, err)

	_, err = db.Open("missing.db")
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, 1, db.Opens("a.db"))
}

func TestTextOpener(t *testing.T) {
	open := TextOpener(map[string]string{"x.csv": "A, 1, -, -, 1, B, 1\n"})
	src, err := open("x.csv")
	require.NoError(t, err)
	rec, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, "A", rec.Name)

	_, err = open("y.csv")
	assert.Error(t, err)
}

func TestScriptedConfirmer(t *testing.T) {
	c := NewScriptedConfirmer(false)
	assert.False(t, c.Confirm(context.Background(), "first"))
	assert.True(t, c.Confirm(context.Background(), "second"))
	assert.Equal(t, []string{"first", "second"}, c.Messages())
}
