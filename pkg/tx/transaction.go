// Package tx defines asset states, commands and transactions, and the
// structural checks that apply before any conservation rule.
package tx

import (
	"encoding/binary"

	"github.com/Klingon-tech/klingnet-assets/pkg/crypto"
	"github.com/Klingon-tech/klingnet-assets/pkg/types"
)

// idTag domain-separates transaction IDs from other hashes.
const idTag = "klingnet-assets transaction v1"

// Transaction is a proposed ledger transition: the states it consumes, the
// states it creates, the commands describing intent, and signatures.
type Transaction struct {
	Version    uint32                     `json:"version"`
	Inputs     []types.StateRef           `json:"inputs"`
	Outputs    []State                    `json:"outputs"`
	Commands   []CommandWithSigners       `json:"commands"`
	Notary     *types.Party               `json:"notary,omitempty"`
	Signatures map[types.PublicKey][]byte `json:"signatures,omitempty"`
}

// ID returns the transaction ID, a tagged BLAKE3 hash of the signing bytes.
// Signatures are excluded.
func (tx *Transaction) ID() types.Hash {
	return crypto.TaggedHash(idTag, tx.SigningBytes())
}

// SigningBytes returns the canonical byte representation used for signing.
// Format: version(4) | inputs | outputs | commands | notary, where every
// list is prefixed with a 4-byte count and every variable-length field with
// a 4-byte length.
func (tx *Transaction) SigningBytes() []byte {
	var buf []byte

	buf = binary.LittleEndian.AppendUint32(buf, tx.Version)

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		buf = append(buf, in.TxID[:]...)
		buf = binary.LittleEndian.AppendUint32(buf, in.Index)
	}

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		buf = appendAmount(buf, out.Amount)
		buf = append(buf, out.Owner[:]...)
	}

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tx.Commands)))
	for _, c := range tx.Commands {
		buf = append(buf, commandTag(c.Value))
		switch v := c.Value.(type) {
		case Issue:
			buf = binary.LittleEndian.AppendUint64(buf, v.Nonce)
		case Exit:
			buf = appendAmount(buf, v.Amount)
		}
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(c.Signers)))
		for _, s := range c.Signers {
			buf = append(buf, s[:]...)
		}
	}

	if tx.Notary == nil {
		buf = append(buf, 0)
	} else {
		buf = append(buf, 1)
		buf = appendParty(buf, *tx.Notary)
	}

	return buf
}

func appendBytes(buf, b []byte) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b)))
	return append(buf, b...)
}

func appendParty(buf []byte, p types.Party) []byte {
	buf = appendBytes(buf, []byte(p.Name))
	return append(buf, p.Key[:]...)
}

func appendAmount(buf []byte, a types.Amount[types.Issued]) []byte {
	buf = binary.LittleEndian.AppendUint64(buf, a.Quantity)
	buf = appendParty(buf, a.Token.Issuer.Party)
	buf = appendBytes(buf, a.Token.Issuer.Reference.Bytes())
	buf = appendBytes(buf, []byte(a.Token.Product.Code))
	return append(buf, a.Token.Product.Decimals)
}

// RequiredSigners returns every key named by any command, deduplicated in
// first-seen order.
func (tx *Transaction) RequiredSigners() []types.PublicKey {
	seen := make(map[types.PublicKey]bool)
	var keys []types.PublicKey
	for _, c := range tx.Commands {
		for _, s := range c.Signers {
			if !seen[s] {
				seen[s] = true
				keys = append(keys, s)
			}
		}
	}
	return keys
}
