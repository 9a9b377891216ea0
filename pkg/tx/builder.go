package tx

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-assets/pkg/crypto"
	"github.com/Klingon-tech/klingnet-assets/pkg/types"
	"github.com/google/uuid"
)

// Builder constructs transactions incrementally. It remembers the full
// StateAndRef of each input so that the result can be verified before it is
// recorded, and carries a lock ID under which coin selection reserves the
// states it picks.
type Builder struct {
	tx     *Transaction
	inputs []StateAndRef
	lockID uuid.UUID
}

// NewBuilder creates a new transaction builder. notary may be nil; spend
// builders fill it in from the first state they consume.
func NewBuilder(notary *types.Party) *Builder {
	return &Builder{
		tx:     &Transaction{Version: 1, Notary: notary},
		lockID: uuid.New(),
	}
}

// LockID returns the soft-lock ID for states gathered into this builder.
func (b *Builder) LockID() uuid.UUID {
	return b.lockID
}

// Notary returns the notary, or nil if none is set yet.
func (b *Builder) Notary() *types.Party {
	return b.tx.Notary
}

// SetNotary sets the transaction notary.
func (b *Builder) SetNotary(p types.Party) *Builder {
	b.tx.Notary = &p
	return b
}

// AddInput adds a state to be consumed.
func (b *Builder) AddInput(s StateAndRef) *Builder {
	b.tx.Inputs = append(b.tx.Inputs, s.Ref)
	b.inputs = append(b.inputs, s)
	return b
}

// AddOutput adds a state to be created.
func (b *Builder) AddOutput(s State) *Builder {
	b.tx.Outputs = append(b.tx.Outputs, s)
	return b
}

// AddCommand attaches a command with the keys that must sign it.
func (b *Builder) AddCommand(c Command, signers ...types.PublicKey) *Builder {
	b.tx.Commands = append(b.tx.Commands, CommandWithSigners{Value: c, Signers: signers})
	return b
}

// HasInputs reports whether any input has been added.
func (b *Builder) HasInputs() bool {
	return len(b.tx.Inputs) > 0
}

// Inputs returns the states added as inputs.
func (b *Builder) Inputs() []StateAndRef {
	return b.inputs
}

// Outputs returns the states added as outputs.
func (b *Builder) Outputs() []State {
	return b.tx.Outputs
}

// Commands returns the commands added so far.
func (b *Builder) Commands() []CommandWithSigners {
	return b.tx.Commands
}

// Sign signs the transaction ID with every signer whose key is required by
// some command. Signers that are not required are ignored. Any change to the
// transaction after signing invalidates the signatures.
func (b *Builder) Sign(signers ...crypto.Signer) error {
	required := make(map[types.PublicKey]bool)
	for _, k := range b.tx.RequiredSigners() {
		required[k] = true
	}
	id := b.tx.ID()
	for _, s := range signers {
		key := s.PublicKey()
		if !required[key] {
			continue
		}
		sig, err := s.Sign(id[:])
		if err != nil {
			return fmt.Errorf("sign tx with %s: %w", key.Short(), err)
		}
		if b.tx.Signatures == nil {
			b.tx.Signatures = make(map[types.PublicKey][]byte)
		}
		b.tx.Signatures[key] = sig
	}
	return nil
}

// Build returns the constructed transaction.
// Does NOT validate; call Validate and VerifySignatures separately.
func (b *Builder) Build() *Transaction {
	return b.tx
}

// LedgerTransaction returns the transaction with inputs already resolved
// from the states handed to AddInput.
func (b *Builder) LedgerTransaction() *LedgerTransaction {
	return &LedgerTransaction{
		ID:       b.tx.ID(),
		Inputs:   b.inputs,
		Outputs:  b.tx.Outputs,
		Commands: b.tx.Commands,
		Notary:   b.tx.Notary,
	}
}
