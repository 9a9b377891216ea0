package wallet

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-assets/internal/log"
	"github.com/Klingon-tech/klingnet-assets/pkg/tx"
	"github.com/Klingon-tech/klingnet-assets/pkg/types"
)

// ErrNoPayments is returned when a spend is requested with nothing to pay.
var ErrNoPayments = errors.New("no payments")

// Payment is an amount of a product to be paid to a recipient, from any
// acceptable issuer.
type Payment struct {
	Recipient types.PublicKey
	Amount    types.Amount[types.Product]
}

// bucket tracks how much of one fingerprint is left to hand out.
type bucket struct {
	token     types.Issued
	remaining uint64
}

// GenerateSpend adds to b the inputs, outputs and Move command that pay
// every payment from states in pool, and returns the keys that must sign.
//
// Payments are summed per product and each product is gathered with one
// SelectCoins call. Gathered value is handed out per fingerprint in the
// order states were selected, so a payment may be split over outputs of
// different issuers but value never changes issuer. Whatever is left of a
// fingerprint goes back to changeOwner in one change output.
//
// If b has no notary, it takes the notary of the first usable state, and
// only states under that notary are spent.
func GenerateSpend(b *tx.Builder, payments []Payment, pool []tx.StateAndRef, changeOwner types.PublicKey, allowedIssuers []types.Party) ([]types.PublicKey, error) {
	if len(payments) == 0 {
		return nil, ErrNoPayments
	}

	totals, order, err := sumPayments(payments)
	if err != nil {
		return nil, err
	}

	pool = unused(b, pool)
	notary := b.Notary()
	var (
		inputs  []tx.StateAndRef
		outputs []tx.State
		keys    []types.PublicKey
	)
	for _, product := range order {
		target := totals[product]
		if notary == nil {
			for _, s := range pool {
				if acceptable(s, product, allowedIssuers) {
					n := s.Notary
					notary = &n
					break
				}
			}
		}
		sel, err := SelectCoins(underNotary(pool, notary), target, allowedIssuers)
		if err != nil {
			return nil, err
		}

		buckets := bucketize(sel.Inputs)
		next := 0
		for _, p := range payments {
			if p.Amount.Token != product {
				continue
			}
			owed := p.Amount.Quantity
			for owed > 0 {
				bk := &buckets[next]
				n := min(owed, bk.remaining)
				outputs = append(outputs, tx.NewState(n, bk.token, p.Recipient))
				bk.remaining -= n
				owed -= n
				if bk.remaining == 0 {
					next++
				}
			}
		}
		for _, bk := range buckets {
			if bk.remaining > 0 {
				outputs = append(outputs, tx.NewState(bk.remaining, bk.token, changeOwner))
			}
		}

		for _, s := range sel.Inputs {
			inputs = append(inputs, s)
			keys = appendUnique(keys, s.State.Owner)
		}

		log.Wallet.Debug().
			Str("product", product.Code).
			Uint64("amount", target.Quantity).
			Uint64("change", sel.Change.Quantity).
			Int("inputs", len(sel.Inputs)).
			Str("lock", b.LockID().String()).
			Msg("Spend generated")
	}

	// Every product is covered; only now is b touched.
	if b.Notary() == nil && notary != nil {
		b.SetNotary(*notary)
	}
	for _, s := range inputs {
		b.AddInput(s)
	}
	for _, o := range outputs {
		b.AddOutput(o)
	}
	b.AddCommand(tx.Move{}, keys...)
	return keys, nil
}

// sumPayments totals payments per product, returning the products in the
// order they first appear.
func sumPayments(payments []Payment) (map[types.Product]types.Amount[types.Product], []types.Product, error) {
	totals := make(map[types.Product]types.Amount[types.Product])
	var order []types.Product
	for _, p := range payments {
		if p.Amount.IsZero() {
			return nil, nil, fmt.Errorf("payment to %s: %w", p.Recipient.Short(), ErrZeroTarget)
		}
		cur, ok := totals[p.Amount.Token]
		if !ok {
			order = append(order, p.Amount.Token)
			cur = types.ZeroAmount(p.Amount.Token)
		}
		sum, err := cur.CheckedAdd(p.Amount)
		if err != nil {
			return nil, nil, fmt.Errorf("sum payments: %w", err)
		}
		totals[p.Amount.Token] = sum
	}
	return totals, order, nil
}

// bucketize sums selected states per fingerprint in order of first selection.
func bucketize(states []tx.StateAndRef) []bucket {
	var buckets []bucket
	index := make(map[types.Issued]int)
	for _, s := range states {
		token := s.State.Token()
		i, ok := index[token]
		if !ok {
			i = len(buckets)
			index[token] = i
			buckets = append(buckets, bucket{token: token})
		}
		buckets[i].remaining += s.State.Amount.Quantity
	}
	return buckets
}

// unused drops states already consumed by b.
func unused(b *tx.Builder, pool []tx.StateAndRef) []tx.StateAndRef {
	if !b.HasInputs() {
		return pool
	}
	spent := make(map[types.StateRef]bool, len(b.Inputs()))
	for _, in := range b.Inputs() {
		spent[in.Ref] = true
	}
	out := make([]tx.StateAndRef, 0, len(pool))
	for _, s := range pool {
		if !spent[s.Ref] {
			out = append(out, s)
		}
	}
	return out
}

func underNotary(pool []tx.StateAndRef, notary *types.Party) []tx.StateAndRef {
	if notary == nil {
		return pool
	}
	out := make([]tx.StateAndRef, 0, len(pool))
	for _, s := range pool {
		if s.Notary == *notary {
			out = append(out, s)
		}
	}
	return out
}

func appendUnique(keys []types.PublicKey, k types.PublicKey) []types.PublicKey {
	for _, x := range keys {
		if x == k {
			return keys
		}
	}
	return append(keys, k)
}
