package wallet

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-assets/internal/log"
	"github.com/Klingon-tech/klingnet-assets/pkg/crypto"
	"github.com/Klingon-tech/klingnet-assets/pkg/types"
)

// Wallet is an unlocked keystore wallet. It derives identity and change keys
// from the seed and signs for them.
type Wallet struct {
	name   string
	ks     *Keystore
	master *HDKey
}

// Open unlocks the named wallet.
func Open(ks *Keystore, name string, password []byte) (*Wallet, error) {
	seed, err := ks.Load(name, password)
	if err != nil {
		return nil, err
	}
	defer wipe(seed)
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	return &Wallet{name: name, ks: ks, master: master}, nil
}

// Name returns the wallet name.
func (w *Wallet) Name() string {
	return w.name
}

// NewIdentity derives the next identity key and records it under name.
func (w *Wallet) NewIdentity(name string) (Identity, error) {
	if _, err := w.ks.Identity(w.name, name); err == nil {
		return Identity{}, fmt.Errorf("%w: %q", ErrIdentityExists, name)
	}
	idx, err := w.ks.NextIdentityIndex(w.name)
	if err != nil {
		return Identity{}, err
	}
	key, err := w.master.DeriveKey(0, ChainIdentity, idx)
	if err != nil {
		return Identity{}, err
	}
	id := Identity{Name: name, Index: idx, Key: key.PublicKey()}
	if err := w.ks.AddIdentity(w.name, id); err != nil {
		return Identity{}, err
	}
	log.Wallet.Info().Str("wallet", w.name).Str("identity", name).Str("key", id.Key.Short()).Msg("Identity created")
	return id, nil
}

// Identity returns a recorded identity by name.
func (w *Wallet) Identity(name string) (Identity, error) {
	return w.ks.Identity(w.name, name)
}

// Identities returns all recorded identities.
func (w *Wallet) Identities() ([]Identity, error) {
	return w.ks.Identities(w.name)
}

// NewChangeKey derives a fresh key to receive change.
func (w *Wallet) NewChangeKey() (types.PublicKey, error) {
	idx, err := w.ks.ChangeIndex(w.name)
	if err != nil {
		return types.PublicKey{}, err
	}
	key, err := w.master.DeriveKey(0, ChainChange, idx)
	if err != nil {
		return types.PublicKey{}, err
	}
	if err := w.ks.SetChangeIndex(w.name, idx+1); err != nil {
		return types.PublicKey{}, err
	}
	return key.PublicKey(), nil
}

// Keys returns every key the wallet can sign for: identities first, then
// change keys in derivation order.
func (w *Wallet) Keys() ([]types.PublicKey, error) {
	hd, err := w.hdKeys()
	if err != nil {
		return nil, err
	}
	keys := make([]types.PublicKey, len(hd))
	for i, k := range hd {
		keys[i] = k.PublicKey()
	}
	return keys, nil
}

// Signers returns a signer for every key in Keys.
func (w *Wallet) Signers() ([]crypto.Signer, error) {
	hd, err := w.hdKeys()
	if err != nil {
		return nil, err
	}
	signers := make([]crypto.Signer, 0, len(hd))
	for _, k := range hd {
		s, err := k.Signer()
		if err != nil {
			return nil, err
		}
		signers = append(signers, s)
	}
	return signers, nil
}

func (w *Wallet) hdKeys() ([]*HDKey, error) {
	ids, err := w.ks.Identities(w.name)
	if err != nil {
		return nil, err
	}
	changes, err := w.ks.ChangeIndex(w.name)
	if err != nil {
		return nil, err
	}
	out := make([]*HDKey, 0, len(ids)+int(changes))
	for _, id := range ids {
		k, err := w.master.DeriveKey(0, ChainIdentity, id.Index)
		if err != nil {
			return nil, err
		}
		if k.PublicKey() != id.Key {
			return nil, fmt.Errorf("identity %q does not match wallet seed", id.Name)
		}
		out = append(out, k)
	}
	for i := uint32(0); i < changes; i++ {
		k, err := w.master.DeriveKey(0, ChainChange, i)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}
