// Package chem implements the name rules that reaction databases depend on.
//
// Database records are free text: the same species may be written "Fe+2",
// "FE +2" or "Fe++". Every membership, replacement and withdrawal decision
// in dbsearch goes through NameEqual, never through string equality.
package chem
