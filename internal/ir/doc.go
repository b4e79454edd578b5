// Package ir provides the in-memory representation of reaction database
// entries for dbsearch.
//
// This package contains type definitions and their canonical encoding only.
// All other internal packages import ir; ir imports nothing internal. This
// keeps the record model the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - Every record has exactly NDim component slots; unused slots are empty
//   - Optional thermodynamic values are explicit (Optional), never a magic float
//   - Canonical JSON (sorted keys, NFC strings) is the only encoding used for
//     content-addressed identity
package ir
