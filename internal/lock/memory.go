package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/Klingon-tech/klingnet-assets/internal/log"
	"github.com/Klingon-tech/klingnet-assets/pkg/types"
	"github.com/google/uuid"
)

// MemoryLocker keeps soft locks in process memory.
type MemoryLocker struct {
	mu     sync.Mutex
	holder map[types.StateRef]uuid.UUID
	byID   map[uuid.UUID]map[types.StateRef]struct{}
}

// NewMemoryLocker creates an empty in-process locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		holder: make(map[types.StateRef]uuid.UUID),
		byID:   make(map[uuid.UUID]map[types.StateRef]struct{}),
	}
}

// Reserve implements Locker.
func (m *MemoryLocker) Reserve(ctx context.Context, lockID uuid.UUID, refs []types.StateRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ref := range refs {
		if h, ok := m.holder[ref]; ok && h != lockID {
			return fmt.Errorf("%w: %s held by %s", ErrStatesNotAvailable, ref, h)
		}
	}
	set, ok := m.byID[lockID]
	if !ok {
		set = make(map[types.StateRef]struct{})
		m.byID[lockID] = set
	}
	for _, ref := range refs {
		m.holder[ref] = lockID
		set[ref] = struct{}{}
	}
	log.Lock.Debug().Str("lock_id", lockID.String()).Int("states", len(refs)).Msg("Reserved states")
	return nil
}

// Release implements Locker.
func (m *MemoryLocker) Release(_ context.Context, lockID uuid.UUID, refs ...types.StateRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.byID[lockID]
	if len(refs) == 0 {
		for ref := range set {
			refs = append(refs, ref)
		}
	}
	for _, ref := range refs {
		if m.holder[ref] != lockID {
			continue
		}
		delete(m.holder, ref)
		delete(set, ref)
	}
	if len(set) == 0 {
		delete(m.byID, lockID)
	}
	return nil
}

// Holder implements Locker.
func (m *MemoryLocker) Holder(_ context.Context, ref types.StateRef) (uuid.UUID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.holder[ref]
	return h, ok, nil
}
