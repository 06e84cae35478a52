package ir

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix leaves room for
// changing the encoding without colliding with old hashes.
const (
	DomainAttribute = "irx/attribute/v1"
	DomainOperation = "irx/operation/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// AttrHash returns the structural hash of an attribute.
// Equal attributes hash equally across processes and runs.
func AttrHash(a Attribute) (string, error) {
	canonical, err := MarshalCanonical(a)
	if err != nil {
		return "", fmt.Errorf("AttrHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainAttribute, canonical), nil
}

// MustAttrHash is like AttrHash but panics on error.
// Use only in tests or when the attribute is known to be well formed.
func MustAttrHash(a Attribute) string {
	h, err := AttrHash(a)
	if err != nil {
		panic(err)
	}
	return h
}

// AttrEqual reports whether two attributes are structurally equal.
// Attributes that cannot be encoded (for example an ArrayAttr holding nil)
// are never equal to anything.
func AttrEqual(a, b Attribute) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ca, err := MarshalCanonical(a)
	if err != nil {
		return false
	}
	cb, err := MarshalCanonical(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ca, cb)
}

// Fingerprint returns the structural hash of op and everything nested in it.
// Two operations with equal fingerprints have identical Snapshots.
func Fingerprint(op *Operation) (string, error) {
	snap, err := Snapshot(op)
	if err != nil {
		return "", fmt.Errorf("Fingerprint: %w", err)
	}
	return hashWithDomain(DomainOperation, snap), nil
}

// MustFingerprint is like Fingerprint but panics on error.
func MustFingerprint(op *Operation) string {
	fp, err := Fingerprint(op)
	if err != nil {
		panic(err)
	}
	return fp
}
