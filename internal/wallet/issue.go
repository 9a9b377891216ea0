package wallet

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-assets/pkg/tx"
	"github.com/Klingon-tech/klingnet-assets/pkg/types"
)

// ErrIssueHasInputs is returned when issuing into a transaction that already
// consumes states. Issuance must start a fresh transaction.
var ErrIssueHasInputs = errors.New("issue transaction must not have inputs")

// GenerateIssue adds to b one state of quantity token owned by owner and an
// Issue command signed by the issuer. It returns the issuer key.
func GenerateIssue(b *tx.Builder, token types.Issued, quantity uint64, owner types.PublicKey, notary types.Party) ([]types.PublicKey, error) {
	if b.HasInputs() {
		return nil, ErrIssueHasInputs
	}
	amount, err := types.NewAmount(quantity, token)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, fmt.Errorf("issue %s: %w", token.Product.Code, ErrZeroTarget)
	}
	nonce, err := newNonce()
	if err != nil {
		return nil, err
	}

	issuer := token.Issuer.Party.Key
	b.SetNotary(notary)
	b.AddOutput(tx.State{Amount: amount, Owner: owner})
	b.AddCommand(tx.Issue{Nonce: nonce}, issuer)
	return []types.PublicKey{issuer}, nil
}

// newNonce returns a random non-zero nonce, so that two otherwise identical
// issuances get different IDs.
func newNonce() (uint64, error) {
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, fmt.Errorf("issue nonce: %w", err)
		}
		if n := binary.LittleEndian.Uint64(buf[:]); n != 0 {
			return n, nil
		}
	}
}
