package vault

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/Klingon-tech/klingnet-assets/pkg/crypto"
	"github.com/Klingon-tech/klingnet-assets/pkg/types"
)

const (
	tagLeaf = "klingnet-assets vault leaf v1"
	tagNode = "klingnet-assets vault node v1"
)

// Commitment computes a merkle root over every unconsumed state, so that two
// vaults can compare their contents. Each state is hashed independently of
// its arrival order; the hashes are sorted before building the tree. An
// empty vault commits to the zero hash.
func (v *Vault) Commitment() (types.Hash, error) {
	var hashes []types.Hash
	err := v.ForEach(func(r *Record) error {
		hashes = append(hashes, hashRecord(r))
		return nil
	})
	if err != nil {
		return types.Hash{}, fmt.Errorf("vault commitment: %w", err)
	}
	sort.Slice(hashes, func(i, j int) bool {
		return bytes.Compare(hashes[i][:], hashes[j][:]) < 0
	})
	return merkleRoot(hashes), nil
}

// hashRecord hashes ref | quantity | owner | issuer key | issuer ref | product | notary key.
func hashRecord(r *Record) types.Hash {
	token := r.State.Token()
	var buf []byte
	buf = append(buf, r.Ref.TxID[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, r.Ref.Index)
	buf = binary.LittleEndian.AppendUint64(buf, r.State.Amount.Quantity)
	buf = append(buf, r.State.Owner[:]...)
	buf = append(buf, token.Issuer.Party.Key[:]...)
	buf = appendLenPrefixed(buf, token.Issuer.Reference.Bytes())
	buf = appendLenPrefixed(buf, []byte(token.Product.Code))
	buf = append(buf, token.Product.Decimals)
	buf = append(buf, r.Notary.Key[:]...)
	return crypto.TaggedHash(tagLeaf, buf)
}

func appendLenPrefixed(buf, b []byte) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b)))
	return append(buf, b...)
}

// merkleRoot pairs hashes level by level, duplicating the last one on odd
// levels.
func merkleRoot(hashes []types.Hash) types.Hash {
	if len(hashes) == 0 {
		return types.Hash{}
	}
	level := append([]types.Hash(nil), hashes...)
	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := make([]types.Hash, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = crypto.TaggedHash(tagNode, append(level[i][:], level[i+1][:]...))
		}
		level = next
	}
	return level[0]
}
