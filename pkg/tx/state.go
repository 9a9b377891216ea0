package tx

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-assets/pkg/types"
)

// State is a fungible asset record: an amount of some issued product owned
// by a single key. States are immutable values; spending one consumes it and
// creates new states.
type State struct {
	Amount types.Amount[types.Issued] `json:"amount"`
	Owner  types.PublicKey            `json:"owner"`
}

// NewState returns a state holding quantity of token owned by owner.
func NewState(quantity uint64, token types.Issued, owner types.PublicKey) State {
	return State{Amount: types.Amount[types.Issued]{Quantity: quantity, Token: token}, Owner: owner}
}

// Token returns the fingerprint of the asset held.
func (s State) Token() types.Issued {
	return s.Amount.Token
}

// ExitKeys returns the keys that may authorise removing this state's value
// from the ledger: the owner and the issuer.
func (s State) ExitKeys() []types.PublicKey {
	issuer := s.Amount.Token.Issuer.Party.Key
	if issuer == s.Owner {
		return []types.PublicKey{s.Owner}
	}
	return []types.PublicKey{s.Owner, issuer}
}

// String returns a short human-readable form.
func (s State) String() string {
	return fmt.Sprintf("%s owned by %s", types.FormatAmount(s.Amount), s.Owner.Short())
}

// StateAndRef is a state together with where it was created and which
// notary guards it against double spends.
type StateAndRef struct {
	State  State          `json:"state"`
	Ref    types.StateRef `json:"ref"`
	Notary types.Party    `json:"notary"`
}
