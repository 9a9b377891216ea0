package wallet

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-assets/internal/log"
	"github.com/Klingon-tech/klingnet-assets/pkg/tx"
	"github.com/Klingon-tech/klingnet-assets/pkg/types"
)

// Coin selection errors.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrZeroTarget        = errors.New("target must be positive")
)

// InsufficientBalanceError reports how much of a product could not be
// found. It wraps ErrInsufficientFunds. Callers may retry once more funds
// arrive or with a wider set of issuers.
type InsufficientBalanceError struct {
	Missing types.Amount[types.Product]
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("%v: missing %s", ErrInsufficientFunds, types.FormatAmount(e.Missing))
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientFunds
}

// CoinSelection holds the result of coin selection.
type CoinSelection struct {
	Inputs []tx.StateAndRef             // Selected states, in pool order.
	Total  types.Amount[types.Product] // Sum of selected quantities.
	Change types.Amount[types.Product] // Total - target.
}

// SelectCoins picks states from pool to cover target.
//
// Only states of target's product are considered, and when allowedIssuers is
// non-empty only those issued by one of them. The pool is walked in the
// order given and selection stops at the first state that brings the total to
// the target or beyond, so no more states are taken than needed. States are
// indivisible, so the last one may overshoot and leave change.
//
// Reserving the selected states against concurrent spends is the caller's
// job; see vault.UnspentStatesForSpending.
func SelectCoins(pool []tx.StateAndRef, target types.Amount[types.Product], allowedIssuers []types.Party) (*CoinSelection, error) {
	if target.IsZero() {
		return nil, ErrZeroTarget
	}

	sel := &CoinSelection{Total: types.ZeroAmount(target.Token)}
	for _, s := range pool {
		if !acceptable(s, target.Token, allowedIssuers) {
			continue
		}
		total, err := sel.Total.CheckedAdd(types.Amount[types.Product]{Quantity: s.State.Amount.Quantity, Token: target.Token})
		if err != nil {
			return nil, fmt.Errorf("select %s: %w", target.Token.Code, err)
		}
		sel.Inputs = append(sel.Inputs, s)
		sel.Total = total
		if sel.Total.Quantity >= target.Quantity {
			sel.Change = sel.Total.Minus(target)
			log.Wallet.Debug().
				Str("product", target.Token.Code).
				Uint64("target", target.Quantity).
				Uint64("gathered", sel.Total.Quantity).
				Int("states", len(sel.Inputs)).
				Msg("Coins gathered")
			return sel, nil
		}
	}

	return nil, &InsufficientBalanceError{Missing: target.Minus(sel.Total)}
}

func acceptable(s tx.StateAndRef, product types.Product, allowedIssuers []types.Party) bool {
	token := s.State.Token()
	if token.Product != product || s.State.Amount.IsZero() {
		return false
	}
	if len(allowedIssuers) == 0 {
		return true
	}
	for _, p := range allowedIssuers {
		if token.Issuer.Party == p {
			return true
		}
	}
	return false
}
