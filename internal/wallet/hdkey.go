package wallet

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-assets/pkg/crypto"
	"github.com/Klingon-tech/klingnet-assets/pkg/types"
	"github.com/tyler-smith/go-bip32"
)

// Derivation path: m/44'/CoinType'/account'/chain/index
const (
	PurposeBIP44 = bip32.FirstHardenedChild + 44

	// CoinTypeAssets separates asset identities from chain wallets derived
	// from the same seed.
	CoinTypeAssets = bip32.FirstHardenedChild + 8889

	// ChainIdentity holds named, long-lived party identities.
	ChainIdentity = 0

	// ChainChange holds one-off keys that receive change, so that change
	// outputs are not linkable to a well-known identity.
	ChainChange = 1
)

// HDKey is a BIP-32 hierarchical deterministic key.
type HDKey struct {
	key *bip32.Key
}

// NewMasterKey creates a master HD key from a 64-byte seed.
func NewMasterKey(seed []byte) (*HDKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	return &HDKey{key: master}, nil
}

// DeriveChild derives the child at index. Add bip32.FirstHardenedChild for
// hardened derivation.
func (k *HDKey) DeriveChild(index uint32) (*HDKey, error) {
	child, err := k.key.NewChildKey(index)
	if err != nil {
		return nil, fmt.Errorf("derive child %d: %w", index, err)
	}
	return &HDKey{key: child}, nil
}

// DerivePath derives along a sequence of indices.
func (k *HDKey) DerivePath(indices ...uint32) (*HDKey, error) {
	current := k
	for _, idx := range indices {
		child, err := current.DeriveChild(idx)
		if err != nil {
			return nil, err
		}
		current = child
	}
	return current, nil
}

// DeriveKey derives the key at m/44'/8889'/account'/chain/index.
func (k *HDKey) DeriveKey(account, chain, index uint32) (*HDKey, error) {
	return k.DerivePath(
		PurposeBIP44,
		CoinTypeAssets,
		bip32.FirstHardenedChild+account,
		chain,
		index,
	)
}

// PrivateKeyBytes returns the raw 32-byte private key, or nil for a
// public-only key.
func (k *HDKey) PrivateKeyBytes() []byte {
	if !k.key.IsPrivate {
		return nil
	}
	// bip32 pads private keys to 33 bytes with a leading zero.
	raw := k.key.Key
	if len(raw) == 33 && raw[0] == 0 {
		return raw[1:]
	}
	return raw
}

// PublicKey returns the compressed public key.
func (k *HDKey) PublicKey() types.PublicKey {
	var pub types.PublicKey
	copy(pub[:], k.key.PublicKey().Key)
	return pub
}

// Signer returns a signer for this key. Fails for public-only keys.
func (k *HDKey) Signer() (*crypto.PrivateKey, error) {
	priv := k.PrivateKeyBytes()
	if priv == nil {
		return nil, fmt.Errorf("cannot create signer from public key")
	}
	return crypto.PrivateKeyFromBytes(priv)
}

// IsPrivate returns true if this key contains a private key.
func (k *HDKey) IsPrivate() bool {
	return k.key.IsPrivate
}

// Depth returns the derivation depth (0 for master).
func (k *HDKey) Depth() uint8 {
	return k.key.Depth
}

// Neuter returns a public-key-only copy.
func (k *HDKey) Neuter() *HDKey {
	return &HDKey{key: k.key.PublicKey()}
}
