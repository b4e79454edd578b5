package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/dbsearch/internal/ir"
)

// marshalJSON encodes v with HTML escaping disabled, so formulas such as
// "Fe<II>" are stored as written.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// marshalRecord converts a record to JSON TEXT for storage.
func marshalRecord(rec ir.Record) (string, error) {
	data, err := marshalJSON(rec)
	if err != nil {
		return "", fmt.Errorf("marshal record %q: %w", rec.Name, err)
	}
	return data, nil
}

// unmarshalRecord parses JSON TEXT to a record.
func unmarshalRecord(data string) (ir.Record, error) {
	var rec ir.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return ir.Record{}, fmt.Errorf("unmarshal record: %w", err)
	}
	return rec, nil
}

// marshalStrings converts a name list to a JSON array. nil is stored as [].
func marshalStrings(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	data, err := marshalJSON(names)
	if err != nil {
		return "", fmt.Errorf("marshal names: %w", err)
	}
	return data, nil
}

// unmarshalStrings parses a JSON array of names.
func unmarshalStrings(data string) ([]string, error) {
	names := []string{}
	if data == "" {
		return names, nil
	}
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("unmarshal names: %w", err)
	}
	return names, nil
}
