package asset

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-assets/internal/storage"
	"github.com/Klingon-tech/klingnet-assets/pkg/tx"
)

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry(storage.NewMemory())

	if err := r.Register(usd); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(usd); err != nil {
		t.Fatalf("Register again: %v", err)
	}

	p, err := r.Product("USD")
	if err != nil {
		t.Fatalf("Product: %v", err)
	}
	if p != usd {
		t.Errorf("product = %v, want %v", p, usd)
	}

	bad := usd
	bad.Decimals = 6
	if err := r.Register(bad); !errors.Is(err, ErrProductConflict) {
		t.Errorf("err = %v, want ErrProductConflict", err)
	}
	bad.Code = ""
	if err := r.Register(bad); !errors.Is(err, ErrEmptyProductCode) {
		t.Errorf("err = %v, want ErrEmptyProductCode", err)
	}
}

func TestRegistry_Unknown(t *testing.T) {
	r := NewRegistry(storage.NewMemory())
	if _, err := r.Product("EUR"); !errors.Is(err, ErrUnknownProduct) {
		t.Errorf("err = %v, want ErrUnknownProduct", err)
	}
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry(storage.NewMemory())
	for _, p := range []struct{ code string }{{"USD"}, {"CHF"}, {"GBP"}} {
		prod := usd
		prod.Code = p.code
		if err := r.Register(prod); err != nil {
			t.Fatal(err)
		}
	}
	list, err := r.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"CHF", "GBP", "USD"}
	if len(list) != len(want) {
		t.Fatalf("got %d products, want %d", len(list), len(want))
	}
	for i, code := range want {
		if list[i].Product.Code != code {
			t.Errorf("list[%d] = %s, want %s", i, list[i].Product.Code, code)
		}
	}
}

func TestRegistry_RecordIssuance(t *testing.T) {
	r := NewRegistry(storage.NewMemory())

	issue := newLtx().
		out(state(100, usdA, alice), state(5, usdB, bob)).
		cmd(tx.Issue{Nonce: 1}, bankA.Key, bankB.Key).
		build()
	if err := r.RecordIssuance(issue); err != nil {
		t.Fatalf("RecordIssuance: %v", err)
	}
	// Recording twice does not duplicate issuers.
	if err := r.RecordIssuance(issue); err != nil {
		t.Fatalf("RecordIssuance: %v", err)
	}

	info, err := r.Get("USD")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(info.Issuers) != 2 || info.Issuers[0] != bankA || info.Issuers[1] != bankB {
		t.Errorf("issuers = %v", info.Issuers)
	}

	move := newLtx().
		in(state(10, gbpA, alice)).
		out(state(10, gbpA, bob)).
		cmd(tx.Move{}, alice).
		build()
	if err := r.RecordIssuance(move); err != nil {
		t.Fatalf("RecordIssuance: %v", err)
	}
	if _, err := r.Get("GBP"); !errors.Is(err, ErrUnknownProduct) {
		t.Errorf("moves should not register products, err = %v", err)
	}
}
