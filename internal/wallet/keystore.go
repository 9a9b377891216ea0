package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Klingon-tech/klingnet-assets/pkg/types"
)

// Keystore errors.
var (
	ErrWalletExists     = errors.New("wallet already exists")
	ErrWalletNotFound   = errors.New("wallet not found")
	ErrIdentityExists   = errors.New("identity already exists")
	ErrIdentityNotFound = errors.New("identity not found")
)

const walletExt = ".wallet"

// Identity is a named party whose key is derived from the wallet seed at
// m/44'/8889'/0'/0/Index.
type Identity struct {
	Name  string          `json:"name"`
	Index uint32          `json:"index"`
	Key   types.PublicKey `json:"key"`
}

// Party returns the identity as a ledger party.
func (id Identity) Party() types.Party {
	return types.Party{Name: id.Name, Key: id.Key}
}

// keystoreFile is the on-disk JSON format of a wallet.
type keystoreFile struct {
	Version         int        `json:"version"`
	CreatedAt       time.Time  `json:"created_at"`
	EncryptedSeed   []byte     `json:"encrypted_seed"`
	Identities      []Identity `json:"identities"`
	NextChangeIndex uint32     `json:"next_change_index"`
}

// Keystore keeps encrypted wallet seeds and identity metadata on disk, one
// file per wallet.
type Keystore struct {
	path string
}

// NewKeystore opens a keystore directory, creating it if needed.
func NewKeystore(path string) (*Keystore, error) {
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &Keystore{path: path}, nil
}

func (ks *Keystore) walletPath(name string) string {
	return filepath.Join(ks.path, name+walletExt)
}

// Create writes a new wallet holding seed encrypted under password.
func (ks *Keystore) Create(name string, seed, password []byte, params EncryptionParams) error {
	path := ks.walletPath(name)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %q", ErrWalletExists, name)
	}

	encrypted, err := Encrypt(seed, password, params)
	if err != nil {
		return fmt.Errorf("encrypt seed: %w", err)
	}
	return ks.writeFile(path, &keystoreFile{
		Version:       1,
		CreatedAt:     time.Now().UTC(),
		EncryptedSeed: encrypted,
		Identities:    []Identity{},
	})
}

// Load decrypts a wallet and returns its seed.
func (ks *Keystore) Load(name string, password []byte) ([]byte, error) {
	kf, err := ks.readFile(name)
	if err != nil {
		return nil, err
	}
	seed, err := Decrypt(kf.EncryptedSeed, password)
	if err != nil {
		return nil, fmt.Errorf("decrypt wallet %q: %w", name, err)
	}
	return seed, nil
}

// AddIdentity records an identity. Adding the same identity twice is a
// no-op; reusing a name or index for a different key fails.
func (ks *Keystore) AddIdentity(walletName string, id Identity) error {
	kf, err := ks.readFile(walletName)
	if err != nil {
		return err
	}
	for _, existing := range kf.Identities {
		if existing == id {
			return nil
		}
		if existing.Name == id.Name || existing.Index == id.Index {
			return fmt.Errorf("%w: %q at index %d", ErrIdentityExists, existing.Name, existing.Index)
		}
	}
	kf.Identities = append(kf.Identities, id)
	return ks.writeFile(ks.walletPath(walletName), kf)
}

// Identities returns the identities of a wallet in creation order.
func (ks *Keystore) Identities(walletName string) ([]Identity, error) {
	kf, err := ks.readFile(walletName)
	if err != nil {
		return nil, err
	}
	return kf.Identities, nil
}

// Identity looks up an identity by name.
func (ks *Keystore) Identity(walletName, name string) (Identity, error) {
	ids, err := ks.Identities(walletName)
	if err != nil {
		return Identity{}, err
	}
	for _, id := range ids {
		if id.Name == name {
			return id, nil
		}
	}
	return Identity{}, fmt.Errorf("%w: %q", ErrIdentityNotFound, name)
}

// NextIdentityIndex returns the first unused identity index.
func (ks *Keystore) NextIdentityIndex(walletName string) (uint32, error) {
	ids, err := ks.Identities(walletName)
	if err != nil {
		return 0, err
	}
	var next uint32
	for _, id := range ids {
		if id.Index >= next {
			next = id.Index + 1
		}
	}
	return next, nil
}

// ChangeIndex returns the next unused change key index.
func (ks *Keystore) ChangeIndex(walletName string) (uint32, error) {
	kf, err := ks.readFile(walletName)
	if err != nil {
		return 0, err
	}
	return kf.NextChangeIndex, nil
}

// SetChangeIndex stores the next unused change key index.
func (ks *Keystore) SetChangeIndex(walletName string, idx uint32) error {
	kf, err := ks.readFile(walletName)
	if err != nil {
		return err
	}
	kf.NextChangeIndex = idx
	return ks.writeFile(ks.walletPath(walletName), kf)
}

// List returns the names of all wallets in the keystore.
func (ks *Keystore) List() ([]string, error) {
	entries, err := os.ReadDir(ks.path)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if filepath.Ext(name) == walletExt {
			names = append(names, name[:len(name)-len(walletExt)])
		}
	}
	return names, nil
}

// Delete removes a wallet file.
func (ks *Keystore) Delete(name string) error {
	path := ks.walletPath(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("%w: %q", ErrWalletNotFound, name)
	}
	return os.Remove(path)
}

func (ks *Keystore) writeFile(path string, kf *keystoreFile) error {
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal wallet: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write wallet: %w", err)
	}
	return nil
}

func (ks *Keystore) readFile(name string) (*keystoreFile, error) {
	data, err := os.ReadFile(ks.walletPath(name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %q", ErrWalletNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read wallet: %w", err)
	}
	var kf keystoreFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse wallet: %w", err)
	}
	if kf.Version != 1 {
		return nil, fmt.Errorf("unsupported wallet version: %d", kf.Version)
	}
	return &kf, nil
}
