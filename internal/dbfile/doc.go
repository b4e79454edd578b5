// Package dbfile reads and writes reaction databases.
//
// Two encodings exist. Text databases are comma separated, one reaction per
// line:
//
//	name, logK, deltaH, deltaCp, n, comp1, coef1, ..., compN, coefN [, reference]
//
// Lines starting with '#' are comments; an empty or "-" thermodynamic field
// means the value is not known. Binary databases (file names ending in "db")
// use big-endian length-prefixed strings and IEEE-754 doubles.
//
// Both are exposed through Source, a forward-only cursor that yields one
// record at a time and reports io.EOF at the end.
package dbfile
