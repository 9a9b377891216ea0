package asset

import (
	"github.com/Klingon-tech/klingnet-assets/pkg/tx"
	"github.com/Klingon-tech/klingnet-assets/pkg/types"
)

func testKey(b byte) types.PublicKey {
	var k types.PublicKey
	k[0] = 0x02
	k[1] = b
	return k
}

var (
	usd = types.Product{Code: "USD", Decimals: 2}
	gbp = types.Product{Code: "GBP", Decimals: 2}

	bankA = types.Party{Name: "BankA", Key: testKey(0xa0)}
	bankB = types.Party{Name: "BankB", Key: testKey(0xb0)}

	alice = testKey(0x01)
	bob   = testKey(0x02)
	carol = testKey(0x03)

	usdA = usd.IssuedBy(bankA.Ref(1))
	usdB = usd.IssuedBy(bankB.Ref(1))
	gbpA = gbp.IssuedBy(bankA.Ref(1))
)

func state(q uint64, token types.Issued, owner types.PublicKey) tx.State {
	return tx.NewState(q, token, owner)
}

// ltxBuilder assembles a LedgerTransaction for tests.
type ltxBuilder struct {
	ltx tx.LedgerTransaction
}

func newLtx() *ltxBuilder {
	return &ltxBuilder{}
}

func (b *ltxBuilder) in(states ...tx.State) *ltxBuilder {
	for _, s := range states {
		ref := types.StateRef{TxID: types.Hash{0xee}, Index: uint32(len(b.ltx.Inputs))}
		b.ltx.Inputs = append(b.ltx.Inputs, tx.StateAndRef{State: s, Ref: ref})
	}
	return b
}

func (b *ltxBuilder) out(states ...tx.State) *ltxBuilder {
	b.ltx.Outputs = append(b.ltx.Outputs, states...)
	return b
}

func (b *ltxBuilder) cmd(c tx.Command, signers ...types.PublicKey) *ltxBuilder {
	b.ltx.Commands = append(b.ltx.Commands, tx.CommandWithSigners{Value: c, Signers: signers})
	return b
}

func (b *ltxBuilder) build() *tx.LedgerTransaction {
	return &b.ltx
}
