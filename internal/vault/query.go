package vault

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Klingon-tech/klingnet-assets/internal/lock"
	"github.com/Klingon-tech/klingnet-assets/internal/log"
	"github.com/Klingon-tech/klingnet-assets/pkg/tx"
	"github.com/Klingon-tech/klingnet-assets/pkg/types"
	"github.com/google/uuid"
)

// Query selects states to spend.
type Query struct {
	Product     types.Product
	MinQuantity uint64

	// Optional filters. Empty means any.
	AllowedIssuers []types.Party
	IssuerRefs     []types.OpaqueBytes
	Notary         *types.Party
	Owners         []types.PublicKey

	// LockID reserves the result. States already held by LockID are
	// eligible.
	LockID uuid.UUID
}

func (q *Query) matches(r *Record) bool {
	token := r.State.Token()
	if token.Product != q.Product || r.State.Amount.IsZero() {
		return false
	}
	if q.Notary != nil && r.Notary != *q.Notary {
		return false
	}
	if len(q.AllowedIssuers) > 0 && !containsParty(q.AllowedIssuers, token.Issuer.Party) {
		return false
	}
	if len(q.IssuerRefs) > 0 && !containsRef(q.IssuerRefs, token.Issuer.Reference) {
		return false
	}
	return true
}

// UnspentStatesForSpending gathers states matching q, oldest first, until
// their total reaches q.MinQuantity, and reserves them under q.LockID.
// States soft-locked by another lock ID are skipped.
//
// If not enough is found, or the reservation loses a race, it retries up to
// the configured number of times, sleeping a little longer each attempt.
// When it gives up it returns what it found, unreserved, so the caller can
// report the shortfall; coin selection on that result fails with an
// InsufficientBalanceError.
func (v *Vault) UnspentStatesForSpending(ctx context.Context, q Query) ([]tx.StateAndRef, error) {
	retries := max(v.selection.MaxRetries, 1)

	var found []tx.StateAndRef
	for attempt := 1; attempt <= retries; attempt++ {
		var (
			total    uint64
			reserved bool
			err      error
		)
		found, total, reserved, err = v.tryReserve(ctx, q)
		if err != nil {
			return nil, err
		}
		if reserved {
			log.Vault.Debug().
				Str("product", q.Product.Code).
				Uint64("want", q.MinQuantity).
				Uint64("gathered", total).
				Int("states", len(found)).
				Str("lock", q.LockID.String()).
				Msg("States reserved for spending")
			return found, nil
		}

		log.Vault.Warn().
			Str("product", q.Product.Code).
			Uint64("want", q.MinQuantity).
			Uint64("gathered", total).
			Int("attempt", attempt).
			Msg("Coin selection failed")
		if attempt == retries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(v.selection.RetrySleep * time.Duration(attempt)):
		}
	}

	log.Vault.Warn().
		Str("product", q.Product.Code).
		Uint64("want", q.MinQuantity).
		Msg("Insufficient spendable states")
	return found, nil
}

// tryReserve walks the vault in arrival order collecting unlocked matching
// states until MinQuantity is reached, and reserves them if it is.
func (v *Vault) tryReserve(ctx context.Context, q Query) (found []tx.StateAndRef, total uint64, reserved bool, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	records, err := v.StatesOf(q.Owners...)
	if err != nil {
		return nil, 0, false, err
	}

	for _, r := range records {
		if total >= q.MinQuantity && len(found) > 0 {
			break
		}
		if !q.matches(r) {
			continue
		}
		holder, held, err := v.locker.Holder(ctx, r.Ref)
		if err != nil {
			return nil, 0, false, fmt.Errorf("lock holder %s: %w", r.Ref, err)
		}
		if held && holder != q.LockID {
			continue
		}
		if r.State.Amount.Quantity > types.MaxQuantity-total {
			break
		}
		found = append(found, r.StateAndRef)
		total += r.State.Amount.Quantity
	}
	if len(found) == 0 || total < q.MinQuantity {
		return found, total, false, nil
	}

	err = v.locker.Reserve(ctx, q.LockID, refsOf(found))
	if errors.Is(err, lock.ErrStatesNotAvailable) {
		// Taken by another process since we looked.
		found, total, err = v.unlocked(ctx, q.LockID, found)
		return found, total, false, err
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("reserve states: %w", err)
	}
	return found, total, true, nil
}

// unlocked returns the states in found not held by another lock ID.
func (v *Vault) unlocked(ctx context.Context, lockID uuid.UUID, found []tx.StateAndRef) ([]tx.StateAndRef, uint64, error) {
	var (
		out   []tx.StateAndRef
		total uint64
	)
	for _, s := range found {
		holder, held, err := v.locker.Holder(ctx, s.Ref)
		if err != nil {
			return nil, 0, fmt.Errorf("lock holder %s: %w", s.Ref, err)
		}
		if held && holder != lockID {
			continue
		}
		out = append(out, s)
		total += s.State.Amount.Quantity
	}
	return out, total, nil
}

// Release abandons a selection, making every state held by lockID
// available again.
func (v *Vault) Release(ctx context.Context, lockID uuid.UUID) error {
	return v.locker.Release(ctx, lockID)
}

// Balance returns the total held per fingerprint by any of owners, or by
// everyone when owners is empty.
func (v *Vault) Balance(owners ...types.PublicKey) (map[types.Issued]uint64, error) {
	records, err := v.StatesOf(owners...)
	if err != nil {
		return nil, err
	}
	out := make(map[types.Issued]uint64)
	for _, r := range records {
		token := r.State.Token()
		sum, err := types.Amount[types.Issued]{Quantity: out[token], Token: token}.CheckedAdd(r.State.Amount)
		if err != nil {
			return nil, fmt.Errorf("balance %s: %w", token, err)
		}
		out[token] = sum.Quantity
	}
	return out, nil
}

func refsOf(states []tx.StateAndRef) []types.StateRef {
	refs := make([]types.StateRef, len(states))
	for i, s := range states {
		refs[i] = s.Ref
	}
	return refs
}

func containsParty(parties []types.Party, p types.Party) bool {
	for _, x := range parties {
		if x == p {
			return true
		}
	}
	return false
}

func containsRef(refs []types.OpaqueBytes, ref types.OpaqueBytes) bool {
	for _, x := range refs {
		if x == ref {
			return true
		}
	}
	return false
}
