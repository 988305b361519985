// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cid

import (
	"crypto/sha256"
	"fmt"

	"github.com/zeebo/blake3"
)

// Sum hashes data with the given algorithm and returns the CID that
// addresses it. Used by producers (capture fixtures, tests, tooling).
// Stream consumers trust the CIDs they receive and never call Sum.
func Sum(codec Codec, hash HashAlgorithm, data []byte) (CID, error) {
	var digest []byte
	switch hash {
	case SHA256:
		sum := sha256.Sum256(data)
		digest = sum[:]
	case BLAKE3:
		sum := blake3.Sum256(data)
		digest = sum[:]
	default:
		return CID{}, fmt.Errorf("%w: cannot hash with unsupported algorithm %s", ErrMalformed, hash)
	}
	return New(codec, hash, digest)
}

// Verify reports whether c addresses data. Callers opt in explicitly;
// decoding never verifies.
func Verify(c CID, data []byte) (bool, error) {
	computed, err := Sum(c.Codec(), c.Hash(), data)
	if err != nil {
		return false, err
	}
	return computed == c, nil
}
