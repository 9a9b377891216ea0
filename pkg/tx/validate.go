package tx

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-assets/config"
	"github.com/Klingon-tech/klingnet-assets/pkg/crypto"
	"github.com/Klingon-tech/klingnet-assets/pkg/types"
)

// Validation errors.
var (
	ErrEmpty           = errors.New("transaction has no inputs and no outputs")
	ErrNoCommands      = errors.New("transaction has no commands")
	ErrNoSigners       = errors.New("command has no signers")
	ErrUnknownCommand  = errors.New("nil or unknown command")
	ErrDuplicateInput  = errors.New("duplicate input")
	ErrMissingNotary   = errors.New("transaction with inputs has no notary")
	ErrTooManyInputs   = errors.New("too many inputs")
	ErrTooManyOutputs  = errors.New("too many outputs")
	ErrTooManyCommands = errors.New("too many commands")
	ErrTooManySigners  = errors.New("too many signers")
	ErrMissingSig      = errors.New("missing signature")
	ErrInvalidSig      = errors.New("invalid signature")
)

// Validate checks transaction structure and basic rules.
// This does NOT check that inputs exist or that value is conserved.
func (tx *Transaction) Validate() error {
	if len(tx.Inputs) == 0 && len(tx.Outputs) == 0 {
		return ErrEmpty
	}
	if len(tx.Commands) == 0 {
		return ErrNoCommands
	}
	if len(tx.Inputs) > config.MaxTxInputs {
		return fmt.Errorf("%w: %d inputs, max %d", ErrTooManyInputs, len(tx.Inputs), config.MaxTxInputs)
	}
	if len(tx.Outputs) > config.MaxTxOutputs {
		return fmt.Errorf("%w: %d outputs, max %d", ErrTooManyOutputs, len(tx.Outputs), config.MaxTxOutputs)
	}
	if len(tx.Commands) > config.MaxTxCommands {
		return fmt.Errorf("%w: %d commands, max %d", ErrTooManyCommands, len(tx.Commands), config.MaxTxCommands)
	}
	if len(tx.Inputs) > 0 && tx.Notary == nil {
		return ErrMissingNotary
	}

	seen := make(map[types.StateRef]bool, len(tx.Inputs))
	for i, in := range tx.Inputs {
		if seen[in] {
			return fmt.Errorf("input %d: %w", i, ErrDuplicateInput)
		}
		seen[in] = true
	}

	for i, c := range tx.Commands {
		if commandTag(c.Value) == tagNone {
			return fmt.Errorf("command %d (%T): %w", i, c.Value, ErrUnknownCommand)
		}
		if len(c.Signers) == 0 {
			return fmt.Errorf("command %d (%s): %w", i, c.Value, ErrNoSigners)
		}
		if len(c.Signers) > config.MaxCommandSigners {
			return fmt.Errorf("command %d: %w: %d, max %d", i, ErrTooManySigners, len(c.Signers), config.MaxCommandSigners)
		}
	}

	return nil
}

// VerifySignatures checks that every key named by a command has produced a
// valid signature over the transaction ID.
func (tx *Transaction) VerifySignatures() error {
	id := tx.ID()
	for _, key := range tx.RequiredSigners() {
		sig, ok := tx.Signatures[key]
		if !ok {
			return fmt.Errorf("%s: %w", key, ErrMissingSig)
		}
		if !crypto.VerifySignature(id[:], sig, key) {
			return fmt.Errorf("%s: %w", key, ErrInvalidSig)
		}
	}
	return nil
}
