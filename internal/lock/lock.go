// Package lock provides advisory soft locks over unconsumed states, so that
// two concurrent spends in the same wallet do not pick the same coins.
// Soft locks are a local courtesy; the notary remains the authority on
// double spends.
package lock

import (
	"context"
	"errors"

	"github.com/Klingon-tech/klingnet-assets/pkg/types"
	"github.com/google/uuid"
)

// ErrStatesNotAvailable is returned when at least one requested state is
// already reserved under a different lock ID.
var ErrStatesNotAvailable = errors.New("states not available for reservation")

// Locker reserves states under a lock ID.
type Locker interface {
	// Reserve locks all refs under lockID, or none of them. Refs already
	// held by lockID are kept.
	Reserve(ctx context.Context, lockID uuid.UUID, refs []types.StateRef) error
	// Release unlocks refs held by lockID. With no refs, every state held
	// by lockID is released.
	Release(ctx context.Context, lockID uuid.UUID, refs ...types.StateRef) error
	// Holder returns the lock ID holding ref, if any.
	Holder(ctx context.Context, ref types.StateRef) (uuid.UUID, bool, error)
}

// ReleaseConsumed drops any lock on refs regardless of who holds it. Called
// once the states have been consumed by a recorded transaction.
func ReleaseConsumed(ctx context.Context, l Locker, refs []types.StateRef) error {
	for _, ref := range refs {
		holder, ok, err := l.Holder(ctx, ref)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := l.Release(ctx, holder, ref); err != nil {
			return err
		}
	}
	return nil
}
