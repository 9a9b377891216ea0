package types

import (
	"fmt"
	"strconv"
	"strings"
)

// StateRef points at one output of a committed transaction.
type StateRef struct {
	TxID  Hash   `json:"txid"`
	Index uint32 `json:"index"`
}

// IsZero returns true if the ref has a zero TxID and zero index.
func (r StateRef) IsZero() bool {
	return r.TxID.IsZero() && r.Index == 0
}

// String returns "txid:index" in hex.
func (r StateRef) String() string {
	return fmt.Sprintf("%s:%d", r.TxID.String(), r.Index)
}

// ParseStateRef parses the "txid:index" form produced by String.
func ParseStateRef(s string) (StateRef, error) {
	txid, idx, ok := strings.Cut(s, ":")
	if !ok {
		return StateRef{}, fmt.Errorf("state ref %q: missing ':'", s)
	}
	h, err := HexToHash(txid)
	if err != nil {
		return StateRef{}, fmt.Errorf("state ref %q: %w", s, err)
	}
	n, err := strconv.ParseUint(idx, 10, 32)
	if err != nil {
		return StateRef{}, fmt.Errorf("state ref %q: invalid index: %w", s, err)
	}
	return StateRef{TxID: h, Index: uint32(n)}, nil
}
