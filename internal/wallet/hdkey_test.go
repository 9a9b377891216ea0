package wallet

import (
	"bytes"
	"testing"

	"github.com/Klingon-tech/klingnet-assets/pkg/crypto"
	"github.com/tyler-smith/go-bip32"
)

// testSeed returns the BIP-39 seed of testMnemonic with passphrase "TREZOR".
func testSeed(t *testing.T) []byte {
	t.Helper()
	seed, err := SeedFromMnemonic(testMnemonic, "TREZOR")
	if err != nil {
		t.Fatalf("SeedFromMnemonic() error: %v", err)
	}
	return seed
}

func testMaster(t *testing.T) *HDKey {
	t.Helper()
	master, err := NewMasterKey(testSeed(t))
	if err != nil {
		t.Fatalf("NewMasterKey() error: %v", err)
	}
	return master
}

func TestNewMasterKey(t *testing.T) {
	master := testMaster(t)
	if !master.IsPrivate() {
		t.Error("master key should be private")
	}
	if master.Depth() != 0 {
		t.Errorf("depth = %d, want 0", master.Depth())
	}
	if len(master.PrivateKeyBytes()) != 32 {
		t.Errorf("private key length = %d, want 32", len(master.PrivateKeyBytes()))
	}
	if pub := master.PublicKey(); pub[0] != 0x02 && pub[0] != 0x03 {
		t.Errorf("public key prefix = %#x", pub[0])
	}
}

func TestNewMasterKey_InvalidSeedLength(t *testing.T) {
	for _, n := range []int{0, 32, 128} {
		if _, err := NewMasterKey(make([]byte, n)); err == nil {
			t.Errorf("seed of %d bytes should fail", n)
		}
	}
}

func TestDeriveKey(t *testing.T) {
	master := testMaster(t)

	k1, err := master.DeriveKey(0, ChainIdentity, 0)
	if err != nil {
		t.Fatalf("DeriveKey() error: %v", err)
	}
	if k1.Depth() != 5 {
		t.Errorf("depth = %d, want 5", k1.Depth())
	}

	again, _ := master.DeriveKey(0, ChainIdentity, 0)
	if k1.PublicKey() != again.PublicKey() {
		t.Error("derivation should be deterministic")
	}

	path, _ := master.DerivePath(PurposeBIP44, CoinTypeAssets, bip32.FirstHardenedChild, ChainIdentity, 0)
	if k1.PublicKey() != path.PublicKey() {
		t.Error("DeriveKey should match the explicit path")
	}

	change, _ := master.DeriveKey(0, ChainChange, 0)
	next, _ := master.DeriveKey(0, ChainIdentity, 1)
	if change.PublicKey() == k1.PublicKey() || next.PublicKey() == k1.PublicKey() {
		t.Error("different paths should give different keys")
	}
}

func TestNeuter(t *testing.T) {
	master := testMaster(t)
	pub := master.Neuter()

	if pub.IsPrivate() {
		t.Error("neutered key should not be private")
	}
	if pub.PrivateKeyBytes() != nil {
		t.Error("neutered key should have no private bytes")
	}
	if pub.PublicKey() != master.PublicKey() {
		t.Error("neutered key should keep the public key")
	}
	if _, err := pub.Signer(); err == nil {
		t.Error("signer from public-only key should fail")
	}

	// Non-hardened children match on both sides.
	privChild, _ := master.DeriveChild(7)
	pubChild, err := pub.DeriveChild(7)
	if err != nil {
		t.Fatalf("DeriveChild() error: %v", err)
	}
	if privChild.PublicKey() != pubChild.PublicKey() {
		t.Error("public derivation should match private derivation")
	}
}

func TestSigner(t *testing.T) {
	key, err := testMaster(t).DeriveKey(0, ChainIdentity, 0)
	if err != nil {
		t.Fatal(err)
	}
	signer, err := key.Signer()
	if err != nil {
		t.Fatalf("Signer() error: %v", err)
	}
	if signer.PublicKey() != key.PublicKey() {
		t.Error("signer key should match HD key")
	}
	if !bytes.Equal(signer.Serialize(), key.PrivateKeyBytes()) {
		t.Error("signer scalar should match HD private key")
	}

	hash := crypto.Hash([]byte("asset transfer"))
	sig, err := signer.Sign(hash[:])
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	if !crypto.VerifySignature(hash[:], sig, key.PublicKey()) {
		t.Error("signature should verify")
	}
}
