package tx

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-assets/pkg/types"
)

// Resolution errors.
var (
	ErrInputNotFound  = errors.New("input state not found")
	ErrNotaryMismatch = errors.New("input notary differs from transaction notary")
)

// StateResolver looks up unconsumed states by reference.
type StateResolver interface {
	// Resolve returns the state at ref, or an error wrapping
	// ErrInputNotFound if it does not exist or was consumed.
	Resolve(ref types.StateRef) (StateAndRef, error)
}

// LedgerTransaction is a transaction whose inputs have been resolved to the
// states they reference. It is what the conservation rules operate on.
type LedgerTransaction struct {
	ID       types.Hash
	Inputs   []StateAndRef
	Outputs  []State
	Commands []CommandWithSigners
	Notary   *types.Party
}

// Resolve looks up every input through r.
func (tx *Transaction) Resolve(r StateResolver) (*LedgerTransaction, error) {
	inputs := make([]StateAndRef, 0, len(tx.Inputs))
	for i, ref := range tx.Inputs {
		sar, err := r.Resolve(ref)
		if err != nil {
			return nil, fmt.Errorf("input %d (%s): %w", i, ref, err)
		}
		if tx.Notary != nil && sar.Notary != *tx.Notary {
			return nil, fmt.Errorf("input %d (%s): %w", i, ref, ErrNotaryMismatch)
		}
		inputs = append(inputs, sar)
	}
	return &LedgerTransaction{
		ID:       tx.ID(),
		Inputs:   inputs,
		Outputs:  tx.Outputs,
		Commands: tx.Commands,
		Notary:   tx.Notary,
	}, nil
}

// OutRef returns output i as a StateAndRef under this transaction's ID.
func (ltx *LedgerTransaction) OutRef(i int) StateAndRef {
	sar := StateAndRef{
		State: ltx.Outputs[i],
		Ref:   types.StateRef{TxID: ltx.ID, Index: uint32(i)},
	}
	if ltx.Notary != nil {
		sar.Notary = *ltx.Notary
	}
	return sar
}
