package wallet

import (
	"github.com/Klingon-tech/klingnet-assets/pkg/tx"
	"github.com/Klingon-tech/klingnet-assets/pkg/types"
)

func testKey(b byte) types.PublicKey {
	var k types.PublicKey
	k[0] = 0x03
	k[1] = b
	return k
}

var (
	usd = types.Product{Code: "USD", Decimals: 2}
	gbp = types.Product{Code: "GBP", Decimals: 2}

	megaBank = types.Party{Name: "MegaBank", Key: testKey(0xa1)}
	miniBank = types.Party{Name: "MiniBank", Key: testKey(0xa2)}
	notary   = types.Party{Name: "Notary", Key: testKey(0xf0)}
	notary2  = types.Party{Name: "Notary2", Key: testKey(0xf1)}

	usdMega = usd.IssuedBy(megaBank.Ref(1))
	usdMini = usd.IssuedBy(miniBank.Ref(1))
	gbpMini = gbp.IssuedBy(miniBank.Ref(1))

	owner     = testKey(0x01)
	recipient = testKey(0x02)
	other     = testKey(0x03)
)

func usdAmount(q uint64) types.Amount[types.Product] {
	return types.Amount[types.Product]{Quantity: q, Token: usd}
}

// poolEntry is one candidate state of a test pool.
type poolEntry struct {
	q     uint64
	token types.Issued
}

// makePool builds a pool of states owned by owner under notary, with
// distinct refs in the given order.
func makePool(entries ...poolEntry) []tx.StateAndRef {
	pool := make([]tx.StateAndRef, len(entries))
	for i, e := range entries {
		pool[i] = tx.StateAndRef{
			State:  tx.NewState(e.q, e.token, owner),
			Ref:    types.StateRef{TxID: types.Hash{byte(i + 1)}, Index: uint32(i)},
			Notary: notary,
		}
	}
	return pool
}

func outputSum(outs []tx.State) uint64 {
	var total uint64
	for _, o := range outs {
		total += o.Amount.Quantity
	}
	return total
}
