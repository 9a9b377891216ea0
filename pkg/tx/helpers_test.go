package tx

import (
	"testing"

	"github.com/Klingon-tech/klingnet-assets/pkg/crypto"
	"github.com/Klingon-tech/klingnet-assets/pkg/types"
)

func newKey(t *testing.T) *crypto.PrivateKey {
	t.Helper()
	k, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	return k
}

func testToken(issuer types.PublicKey) types.Issued {
	bank := types.Party{Name: "Bank", Key: issuer}
	return types.Product{Code: "USD", Decimals: 2}.IssuedBy(bank.Ref(1))
}

// mapResolver is an in-memory StateResolver.
type mapResolver map[types.StateRef]StateAndRef

func (m mapResolver) Resolve(ref types.StateRef) (StateAndRef, error) {
	s, ok := m[ref]
	if !ok {
		return StateAndRef{}, ErrInputNotFound
	}
	return s, nil
}
