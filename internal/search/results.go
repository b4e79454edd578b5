package search

import (
	"github.com/roach88/dbsearch/internal/chem"
	"github.com/roach88/dbsearch/internal/ir"
)

// ResultSet is the ordered collection of accepted records, keyed by
// normalized name.
//
// Soluble records always precede solid records. New soluble records are
// inserted after the last soluble one; new solids are appended. NX()+NF()
// always equals Len().
type ResultSet struct {
	recs []ir.Record
	keys []string
	nx   int
}

// NewResultSet returns an empty ResultSet.
func NewResultSet() *ResultSet {
	return &ResultSet{}
}

// Len returns the number of records.
func (rs *ResultSet) Len() int { return len(rs.recs) }

// NX returns the number of soluble records.
func (rs *ResultSet) NX() int { return rs.nx }

// NF returns the number of solid records.
func (rs *ResultSet) NF() int { return len(rs.recs) - rs.nx }

// Index returns the position of the record named name, or -1.
func (rs *ResultSet) Index(name string) int {
	key := chem.Normalize(name)
	if key == "" {
		return -1
	}
	for i, k := range rs.keys {
		if k == key {
			return i
		}
	}
	return -1
}

// Has reports whether a record named name is present.
func (rs *ResultSet) Has(name string) bool {
	return rs.Index(name) >= 0
}

// Get returns the record named name.
func (rs *ResultSet) Get(name string) (ir.Record, bool) {
	i := rs.Index(name)
	if i < 0 {
		return ir.Record{}, false
	}
	return rs.recs[i], true
}

// Insert adds rec as a soluble or solid record according to its name.
// It returns false if a record of the same name is already present.
func (rs *ResultSet) Insert(rec ir.Record) bool {
	if chem.IsSolid(rec.Name) {
		return rs.InsertSolid(rec)
	}
	return rs.InsertSoluble(rec)
}

// InsertSoluble inserts rec after the last soluble record.
// It returns false if a record of the same name is already present.
func (rs *ResultSet) InsertSoluble(rec ir.Record) bool {
	if rs.Has(rec.Name) {
		return false
	}
	rs.recs = append(rs.recs, ir.Record{})
	rs.keys = append(rs.keys, "")
	copy(rs.recs[rs.nx+1:], rs.recs[rs.nx:])
	copy(rs.keys[rs.nx+1:], rs.keys[rs.nx:])
	rs.recs[rs.nx] = rec
	rs.keys[rs.nx] = chem.Normalize(rec.Name)
	rs.nx++
	return true
}

// InsertSolid appends rec after every other record.
// It returns false if a record of the same name is already present.
func (rs *ResultSet) InsertSolid(rec ir.Record) bool {
	if rs.Has(rec.Name) {
		return false
	}
	rs.recs = append(rs.recs, rec)
	rs.keys = append(rs.keys, chem.Normalize(rec.Name))
	return true
}

// Replace overwrites the record of the same name in place.
// It returns false if no such record exists.
func (rs *ResultSet) Replace(rec ir.Record) bool {
	i := rs.Index(rec.Name)
	if i < 0 {
		return false
	}
	rs.recs[i] = rec
	return true
}

// Remove deletes the record named name and reports whether it was present.
func (rs *ResultSet) Remove(name string) bool {
	i := rs.Index(name)
	if i < 0 {
		return false
	}
	rs.removeAt(i)
	return true
}

// RemoveReferencing deletes every record that has component among its
// slots and returns the names of the removed records in order.
func (rs *ResultSet) RemoveReferencing(component string) []string {
	var removed []string
	for i := 0; i < len(rs.recs); {
		if references(rs.recs[i], component) {
			removed = append(removed, rs.recs[i].Name)
			rs.removeAt(i)
			continue
		}
		i++
	}
	return removed
}

func (rs *ResultSet) removeAt(i int) {
	if i < rs.nx {
		rs.nx--
	}
	rs.recs = append(rs.recs[:i], rs.recs[i+1:]...)
	rs.keys = append(rs.keys[:i], rs.keys[i+1:]...)
}

// Records returns a copy of all records, soluble first.
func (rs *ResultSet) Records() []ir.Record {
	out := make([]ir.Record, len(rs.recs))
	copy(out, rs.recs)
	return out
}

// Soluble returns a copy of the soluble records.
func (rs *ResultSet) Soluble() []ir.Record {
	out := make([]ir.Record, rs.nx)
	copy(out, rs.recs[:rs.nx])
	return out
}

// Solids returns a copy of the solid records.
func (rs *ResultSet) Solids() []ir.Record {
	out := make([]ir.Record, len(rs.recs)-rs.nx)
	copy(out, rs.recs[rs.nx:])
	return out
}

// commit replaces every record by the record at the same position of
// recs. recs must come from Records and keep names and order.
func (rs *ResultSet) commit(recs []ir.Record) {
	copy(rs.recs, recs)
}

// references reports whether rec has a slot naming component.
func references(rec ir.Record, component string) bool {
	for _, s := range rec.Slots {
		if !s.IsEmpty() && chem.NameEqual(s.Name, component) {
			return true
		}
	}
	return false
}
