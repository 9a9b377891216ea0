// Package asset implements the conservation rules for fungible asset
// states: transactions are split into groups of interchangeable states and
// each group must balance under the issue, move and exit rules.
package asset

import (
	"github.com/Klingon-tech/klingnet-assets/pkg/tx"
	"github.com/Klingon-tech/klingnet-assets/pkg/types"
)

// Group is the set of a transaction's input and output states that share
// one fungibility fingerprint.
type Group struct {
	Key     types.Issued
	Inputs  []tx.State
	Outputs []tx.State
}

// GroupStates partitions the inputs and outputs of ltx by fingerprint.
// A fingerprint seen only in outputs yields a group with no inputs, and one
// seen only in inputs a group with no outputs. Groups are returned in order
// of first appearance, scanning inputs then outputs.
func GroupStates(ltx *tx.LedgerTransaction) []Group {
	index := make(map[types.Issued]int)
	var groups []Group
	slot := func(k types.Issued) *Group {
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k})
		}
		return &groups[i]
	}
	for _, in := range ltx.Inputs {
		g := slot(in.State.Token())
		g.Inputs = append(g.Inputs, in.State)
	}
	for _, out := range ltx.Outputs {
		g := slot(out.Token())
		g.Outputs = append(g.Outputs, out)
	}
	return groups
}

// Owners returns the distinct owner keys of the group's inputs, in order.
func (g Group) Owners() []types.PublicKey {
	seen := make(map[types.PublicKey]bool, len(g.Inputs))
	var keys []types.PublicKey
	for _, s := range g.Inputs {
		if !seen[s.Owner] {
			seen[s.Owner] = true
			keys = append(keys, s.Owner)
		}
	}
	return keys
}

// sum adds up the quantities of states, rejecting overflow.
func sum(key types.Issued, states []tx.State) (types.Amount[types.Issued], error) {
	total := types.ZeroAmount(key)
	for _, s := range states {
		var err error
		if total, err = total.CheckedAdd(s.Amount); err != nil {
			return total, err
		}
	}
	return total, nil
}
