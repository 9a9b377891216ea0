package wallet

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-assets/pkg/tx"
)

func testWallet(t *testing.T) *Wallet {
	t.Helper()
	ks := testKeystore(t)
	if err := ks.Create("w", testSeed(t), []byte("pw"), fastParams()); err != nil {
		t.Fatal(err)
	}
	w, err := Open(ks, "w", []byte("pw"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	return w
}

func TestWallet_Identities(t *testing.T) {
	w := testWallet(t)

	bank, err := w.NewIdentity("bank")
	if err != nil {
		t.Fatalf("NewIdentity() error: %v", err)
	}
	alice, err := w.NewIdentity("alice")
	if err != nil {
		t.Fatalf("NewIdentity() error: %v", err)
	}
	if bank.Index != 0 || alice.Index != 1 {
		t.Errorf("indices = %d, %d, want 0, 1", bank.Index, alice.Index)
	}
	if bank.Key == alice.Key {
		t.Error("identities should have distinct keys")
	}
	if _, err := w.NewIdentity("bank"); !errors.Is(err, ErrIdentityExists) {
		t.Errorf("err = %v, want ErrIdentityExists", err)
	}

	master := testMaster(t)
	want, _ := master.DeriveKey(0, ChainIdentity, 1)
	if alice.Key != want.PublicKey() {
		t.Error("identity key should follow the derivation path")
	}

	got, err := w.Identity("alice")
	if err != nil || got != alice {
		t.Errorf("Identity() = %+v, %v", got, err)
	}
}

func TestWallet_ChangeKeys(t *testing.T) {
	w := testWallet(t)
	id, err := w.NewIdentity("main")
	if err != nil {
		t.Fatal(err)
	}

	c1, err := w.NewChangeKey()
	if err != nil {
		t.Fatalf("NewChangeKey() error: %v", err)
	}
	c2, _ := w.NewChangeKey()
	if c1 == c2 || c1 == id.Key {
		t.Error("change keys should be fresh")
	}

	keys, err := w.Keys()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 3 || keys[0] != id.Key || keys[1] != c1 || keys[2] != c2 {
		t.Errorf("Keys() = %v", keys)
	}
}

func TestWallet_WrongPassword(t *testing.T) {
	ks := testKeystore(t)
	if err := ks.Create("w", testSeed(t), []byte("pw"), fastParams()); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(ks, "w", []byte("nope")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("err = %v, want ErrWrongPassword", err)
	}
}

func TestWallet_SignsIssuance(t *testing.T) {
	w := testWallet(t)
	bank, err := w.NewIdentity("bank")
	if err != nil {
		t.Fatal(err)
	}
	holder, err := w.NewIdentity("holder")
	if err != nil {
		t.Fatal(err)
	}

	token := usd.IssuedBy(bank.Party().Ref(1))
	b := tx.NewBuilder(nil)
	if _, err := GenerateIssue(b, token, 500, holder.Key, notary); err != nil {
		t.Fatal(err)
	}
	signers, err := w.Signers()
	if err != nil {
		t.Fatalf("Signers() error: %v", err)
	}
	if err := b.Sign(signers...); err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	transaction := b.Build()
	if len(transaction.Signatures) != 1 {
		t.Errorf("signatures = %d, want 1 (issuer only)", len(transaction.Signatures))
	}
	if err := transaction.VerifySignatures(); err != nil {
		t.Errorf("VerifySignatures() error: %v", err)
	}
}
