// Package crypto provides hashing and Schnorr/secp256k1 signing for
// transactions and identities.
package crypto

import (
	"github.com/Klingon-tech/klingnet-assets/pkg/types"
	"github.com/zeebo/blake3"
)

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// TaggedHash computes a BLAKE3 hash keyed by a context string, so that
// hashes of different object kinds can never collide.
func TaggedHash(tag string, data []byte) types.Hash {
	h := blake3.NewDeriveKey(tag)
	h.Write(data)
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}
