// Package vault stores the unconsumed asset states known to this node and
// hands them out for spending under soft locks.
package vault

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Klingon-tech/klingnet-assets/config"
	"github.com/Klingon-tech/klingnet-assets/internal/lock"
	"github.com/Klingon-tech/klingnet-assets/internal/log"
	"github.com/Klingon-tech/klingnet-assets/internal/storage"
	"github.com/Klingon-tech/klingnet-assets/pkg/tx"
	"github.com/Klingon-tech/klingnet-assets/pkg/types"
)

// Key prefixes.
var (
	prefixState   = []byte("s/") // s/<txid><index> -> Record JSON
	prefixArrival = []byte("q/") // q/<seq><txid><index> -> empty
	prefixOwner   = []byte("o/") // o/<owner33><seq><txid><index> -> empty
	keySeq        = []byte("m/seq")
)

const refSize = types.HashSize + 4

// ErrStateExists is returned when recording an output that is already known.
var ErrStateExists = errors.New("state already recorded")

// Record is a stored state with its arrival sequence number.
type Record struct {
	tx.StateAndRef
	Seq      uint64    `json:"seq"`
	Recorded time.Time `json:"recorded"`
}

// Vault is the asset state store. Records are written through atomic
// batches when the backing database supports them.
type Vault struct {
	db        storage.DB
	locker    lock.Locker
	selection config.SelectionConfig

	// mu serialises writers and coin gathering.
	mu sync.Mutex
}

// New creates a vault on db. locker may be nil, in which case an in-process
// locker is used.
func New(db storage.DB, locker lock.Locker, selection config.SelectionConfig) *Vault {
	if locker == nil {
		locker = lock.NewMemoryLocker()
	}
	return &Vault{db: db, locker: locker, selection: selection}
}

// Locker returns the soft locker guarding this vault.
func (v *Vault) Locker() lock.Locker {
	return v.locker
}

func appendRef(key []byte, ref types.StateRef) []byte {
	key = append(key, ref.TxID[:]...)
	return binary.BigEndian.AppendUint32(key, ref.Index)
}

func stateKey(ref types.StateRef) []byte {
	return appendRef(append([]byte(nil), prefixState...), ref)
}

func arrivalKey(seq uint64, ref types.StateRef) []byte {
	key := binary.BigEndian.AppendUint64(append([]byte(nil), prefixArrival...), seq)
	return appendRef(key, ref)
}

func ownerPrefix(owner types.PublicKey) []byte {
	return append(append([]byte(nil), prefixOwner...), owner[:]...)
}

func ownerKey(owner types.PublicKey, seq uint64, ref types.StateRef) []byte {
	key := binary.BigEndian.AppendUint64(ownerPrefix(owner), seq)
	return appendRef(key, ref)
}

// refFromKey decodes the trailing txid and index of an index key.
func refFromKey(key []byte) (types.StateRef, bool) {
	if len(key) < refSize {
		return types.StateRef{}, false
	}
	tail := key[len(key)-refSize:]
	var ref types.StateRef
	copy(ref.TxID[:], tail[:types.HashSize])
	ref.Index = binary.BigEndian.Uint32(tail[types.HashSize:])
	return ref, true
}

// Get returns the record at ref.
func (v *Vault) Get(ref types.StateRef) (*Record, error) {
	data, err := v.db.Get(stateKey(ref))
	if err != nil {
		return nil, fmt.Errorf("vault get %s: %w", ref, err)
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("vault unmarshal %s: %w", ref, err)
	}
	return &r, nil
}

// Has reports whether ref is an unconsumed state in the vault.
func (v *Vault) Has(ref types.StateRef) (bool, error) {
	return v.db.Has(stateKey(ref))
}

// Resolve implements tx.StateResolver.
func (v *Vault) Resolve(ref types.StateRef) (tx.StateAndRef, error) {
	r, err := v.Get(ref)
	if errors.Is(err, storage.ErrNotFound) {
		return tx.StateAndRef{}, tx.ErrInputNotFound
	}
	if err != nil {
		return tx.StateAndRef{}, err
	}
	return r.StateAndRef, nil
}

// Put stores a state, e.g. one received from another party.
func (v *Vault) Put(s tx.StateAndRef) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	w, err := v.newWriter()
	if err != nil {
		return err
	}
	if err := w.add(s); err != nil {
		return err
	}
	return w.commit()
}

// Record applies an accepted transaction: its inputs are consumed, its
// outputs become new states at (ltx.ID, i), and any soft locks on the
// consumed states are dropped.
func (v *Vault) Record(ctx context.Context, ltx *tx.LedgerTransaction) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	w, err := v.newWriter()
	if err != nil {
		return err
	}
	consumed := make([]types.StateRef, 0, len(ltx.Inputs))
	for _, in := range ltx.Inputs {
		r, err := v.Get(in.Ref)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("consume %s: %w", in.Ref, tx.ErrInputNotFound)
		}
		if err != nil {
			return err
		}
		if err := w.remove(r); err != nil {
			return err
		}
		consumed = append(consumed, in.Ref)
	}
	for i := range ltx.Outputs {
		if err := w.add(ltx.OutRef(i)); err != nil {
			return err
		}
	}
	if err := w.commit(); err != nil {
		return fmt.Errorf("vault record: %w", err)
	}

	if err := lock.ReleaseConsumed(ctx, v.locker, consumed); err != nil {
		log.Vault.Warn().Err(err).Str("tx", ltx.ID.String()).Msg("Failed to release soft locks")
	}
	log.Vault.Debug().
		Str("tx", ltx.ID.String()).
		Int("consumed", len(consumed)).
		Int("produced", len(ltx.Outputs)).
		Msg("Transaction recorded")
	return nil
}

// writer collects the changes of one update into a batch and allocates
// arrival sequence numbers for it.
type writer struct {
	v     *Vault
	batch storage.Batch
	seq   uint64
}

// newWriter starts an update. Must hold mu.
func (v *Vault) newWriter() (*writer, error) {
	w := &writer{v: v, batch: storage.NewBatch(v.db)}
	data, err := v.db.Get(keySeq)
	switch {
	case err == nil && len(data) == 8:
		w.seq = binary.BigEndian.Uint64(data)
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("read sequence: %w", err)
	}
	return w, nil
}

func (w *writer) add(s tx.StateAndRef) error {
	ok, err := w.v.Has(s.Ref)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: %s", ErrStateExists, s.Ref)
	}
	w.seq++
	data, err := json.Marshal(Record{StateAndRef: s, Seq: w.seq, Recorded: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("vault marshal: %w", err)
	}
	if err := w.batch.Put(stateKey(s.Ref), data); err != nil {
		return err
	}
	if err := w.batch.Put(arrivalKey(w.seq, s.Ref), []byte{}); err != nil {
		return err
	}
	return w.batch.Put(ownerKey(s.State.Owner, w.seq, s.Ref), []byte{})
}

func (w *writer) remove(r *Record) error {
	return remove(w.batch, r)
}

func (w *writer) commit() error {
	if err := w.batch.Put(keySeq, binary.BigEndian.AppendUint64(nil, w.seq)); err != nil {
		return err
	}
	return w.batch.Commit()
}

func remove(batch storage.Batch, r *Record) error {
	if err := batch.Delete(stateKey(r.Ref)); err != nil {
		return err
	}
	if err := batch.Delete(arrivalKey(r.Seq, r.Ref)); err != nil {
		return err
	}
	return batch.Delete(ownerKey(r.State.Owner, r.Seq, r.Ref))
}

// ForEach visits every unconsumed state in arrival order.
func (v *Vault) ForEach(fn func(*Record) error) error {
	return v.db.ForEach(prefixArrival, func(key, _ []byte) error {
		ref, ok := refFromKey(key)
		if !ok {
			return nil
		}
		r, err := v.Get(ref)
		if err != nil {
			return nil // Consumed concurrently.
		}
		return fn(r)
	})
}

// StatesOf returns the unconsumed states owned by any of owners, oldest
// first. With no owners, every state is returned.
func (v *Vault) StatesOf(owners ...types.PublicKey) ([]*Record, error) {
	var out []*Record
	if len(owners) == 0 {
		err := v.ForEach(func(r *Record) error {
			out = append(out, r)
			return nil
		})
		return out, err
	}

	seen := make(map[types.PublicKey]bool, len(owners))
	for _, owner := range owners {
		if seen[owner] {
			continue
		}
		seen[owner] = true
		err := v.db.ForEach(ownerPrefix(owner), func(key, _ []byte) error {
			ref, ok := refFromKey(key)
			if !ok {
				return nil
			}
			r, err := v.Get(ref)
			if err != nil {
				return nil
			}
			out = append(out, r)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan owner index: %w", err)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}
