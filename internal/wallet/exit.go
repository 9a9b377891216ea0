package wallet

import (
	"github.com/Klingon-tech/klingnet-assets/pkg/tx"
	"github.com/Klingon-tech/klingnet-assets/pkg/types"
)

// GenerateExit adds to b the inputs, change output and commands that remove
// amount from the ledger, using states of exactly amount's fingerprint.
// States are gathered in the order given, from the notary of the first
// matching state. Any excess goes back to changeOwner.
//
// The Move command is signed by the input owners and the Exit command by the
// owners and the issuer. The returned keys are all of them.
func GenerateExit(b *tx.Builder, amount types.Amount[types.Issued], states []tx.StateAndRef, changeOwner types.PublicKey) ([]types.PublicKey, error) {
	if amount.IsZero() {
		return nil, ErrZeroTarget
	}
	if _, err := types.NewAmount(amount.Quantity, amount.Token); err != nil {
		return nil, err
	}

	var (
		gathered []tx.StateAndRef
		total    uint64
	)
	for _, s := range unused(b, states) {
		if s.State.Token() != amount.Token || s.State.Amount.IsZero() {
			continue
		}
		if b.Notary() == nil {
			b.SetNotary(s.Notary)
		}
		if s.Notary != *b.Notary() {
			continue
		}
		if s.State.Amount.Quantity > types.MaxQuantity {
			continue
		}
		gathered = append(gathered, s)
		total += s.State.Amount.Quantity
		if total >= amount.Quantity {
			break
		}
	}
	if total < amount.Quantity {
		return nil, &InsufficientBalanceError{Missing: types.Amount[types.Product]{
			Quantity: amount.Quantity - total,
			Token:    amount.Token.Product,
		}}
	}

	var owners []types.PublicKey
	for _, s := range gathered {
		b.AddInput(s)
		owners = appendUnique(owners, s.State.Owner)
	}
	if change := total - amount.Quantity; change > 0 {
		b.AddOutput(tx.NewState(change, amount.Token, changeOwner))
	}

	exitKeys := appendUnique(append([]types.PublicKey(nil), owners...), amount.Token.Issuer.Party.Key)
	b.AddCommand(tx.Move{}, owners...)
	b.AddCommand(tx.Exit{Amount: amount}, exitKeys...)
	return exitKeys, nil
}
