package tx

import (
	"encoding/json"
	"testing"
)

// FuzzTxUnmarshal tests that arbitrary JSON input does not panic
// when unmarshaled into a Transaction struct.
func FuzzTxUnmarshal(f *testing.F) {
	f.Add([]byte(`{"version":1,"inputs":[{"txid":"0000000000000000000000000000000000000000000000000000000000000000","index":0}],"outputs":[],"commands":[{"type":"move","signers":[]}]}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`null`))
	f.Add([]byte(`{"commands":[{"type":"exit","signers":null}]}`))
	f.Add([]byte(`{"commands":[{"type":"issue","nonce":5,"signers":["02"]}]}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		var tx Transaction
		if err := json.Unmarshal(data, &tx); err != nil {
			return
		}
		// If unmarshal succeeded, these must not panic.
		tx.ID()
		tx.SigningBytes()
		tx.Validate()
		tx.VerifySignatures()
	})
}
