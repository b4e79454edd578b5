// Package search implements the dbsearch closure engine.
//
// Given a set of selected components (e.g. Fe+2, H+, e-) and an ordered list
// of reaction databases, the engine finds every reaction whose reactants are
// all selected components. When the electron "e-" is selected the search
// may discover new components among the products (Fe+3 formed from Fe+2 and
// e-); each discovery triggers another pass over all databases, until no new
// component appears. Reactions retained along the way are then rewritten in
// terms of the originally selected components.
//
// ARCHITECTURE:
//
// The engine is a small state machine run on the caller's goroutine:
//
//	Scanning -> ExpandingComponents -> Scanning -> ... -> RewritingStoichiometry -> Done
//
// Passes are strictly sequential; databases are read in configuration order.
// All mutable state (ResultSet, Selection) is owned by one Search call.
//
// CRITICAL PATTERNS:
//
// Name equality: every membership, replacement and withdrawal decision uses
// chem.NameEqual, never string equality. Database records are free text.
//
// Deterministic ordering: the result is a pure function of the options and
// the database contents. Events carry a logical sequence number from Clock,
// never a wall-clock timestamp.
//
// All-or-nothing rewrite: the stoichiometry rewrite works on copies and is
// committed only when it completes. A cancelled or failed search returns no
// result.
package search
