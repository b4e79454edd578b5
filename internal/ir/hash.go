package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows a future algorithm migration.
const (
	DomainRecord = "dbsearch/record/v1"
	DomainRun    = "dbsearch/run/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RecordHash computes the content-addressed identity of a record.
// Two records with the same name, slots and thermodynamic data hash equal
// regardless of which database they were read from.
func RecordHash(r Record) (string, error) {
	canonical, err := MarshalCanonical(r)
	if err != nil {
		return "", fmt.Errorf("RecordHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRecord, canonical), nil
}

// MustRecordHash is like RecordHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRecordHash(r Record) string {
	h, err := RecordHash(r)
	if err != nil {
		panic(err)
	}
	return h
}

// ResultHash digests an ordered list of record hashes. Runs that closed
// over the same records in the same order share a result hash.
func ResultHash(recordHashes []string) (string, error) {
	arr := make([]any, len(recordHashes))
	for i, h := range recordHashes {
		arr[i] = h
	}
	canonical, err := MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("ResultHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRun, canonical), nil
}
