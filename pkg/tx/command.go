package tx

import (
	"encoding/json"
	"fmt"

	"github.com/Klingon-tech/klingnet-assets/pkg/types"
)

// Command is the intent attached to a transaction. The set of commands is
// closed: Issue, Move and Exit.
type Command interface {
	command()
	String() string
}

// Issue creates new value out of nothing. The nonce keeps otherwise
// identical issuances from hashing to the same transaction.
type Issue struct {
	Nonce uint64 `json:"nonce"`
}

// Move transfers value between owners.
type Move struct{}

// Exit removes value from the ledger, e.g. when an issuer redeems it.
type Exit struct {
	Amount types.Amount[types.Issued] `json:"amount"`
}

func (Issue) command() {}
func (Move) command()  {}
func (Exit) command()  {}

func (c Issue) String() string { return fmt.Sprintf("Issue(nonce=%d)", c.Nonce) }
func (Move) String() string    { return "Move" }
func (c Exit) String() string  { return fmt.Sprintf("Exit(%s)", c.Amount) }

// Command type tags, used by the signing encoding and JSON.
const (
	tagNone  byte = 0
	tagIssue byte = 1
	tagMove  byte = 2
	tagExit  byte = 3
)

// commandTag returns tagNone for a nil or unknown command; Validate rejects
// those.
func commandTag(c Command) byte {
	switch c.(type) {
	case Issue:
		return tagIssue
	case Move:
		return tagMove
	case Exit:
		return tagExit
	}
	return tagNone
}

// CommandWithSigners is a command plus the keys that must sign for it.
type CommandWithSigners struct {
	Value   Command
	Signers []types.PublicKey
}

// SignedBy reports whether key is among the signers.
func (c CommandWithSigners) SignedBy(key types.PublicKey) bool {
	for _, s := range c.Signers {
		if s == key {
			return true
		}
	}
	return false
}

// SignedByAny reports whether any of keys is among the signers.
func (c CommandWithSigners) SignedByAny(keys []types.PublicKey) bool {
	for _, k := range keys {
		if c.SignedBy(k) {
			return true
		}
	}
	return false
}

type commandJSON struct {
	Type    string                      `json:"type"`
	Nonce   uint64                      `json:"nonce,omitempty"`
	Amount  *types.Amount[types.Issued] `json:"amount,omitempty"`
	Signers []types.PublicKey           `json:"signers"`
}

// MarshalJSON encodes the command with a type discriminator.
func (c CommandWithSigners) MarshalJSON() ([]byte, error) {
	j := commandJSON{Signers: c.Signers}
	switch v := c.Value.(type) {
	case Issue:
		j.Type, j.Nonce = "issue", v.Nonce
	case Move:
		j.Type = "move"
	case Exit:
		j.Type = "exit"
		amt := v.Amount
		j.Amount = &amt
	default:
		return nil, fmt.Errorf("unknown command %T", c.Value)
	}
	return json.Marshal(j)
}

// UnmarshalJSON decodes a command written by MarshalJSON.
func (c *CommandWithSigners) UnmarshalJSON(data []byte) error {
	var j commandJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	switch j.Type {
	case "issue":
		c.Value = Issue{Nonce: j.Nonce}
	case "move":
		c.Value = Move{}
	case "exit":
		if j.Amount == nil {
			return fmt.Errorf("exit command missing amount")
		}
		c.Value = Exit{Amount: *j.Amount}
	default:
		return fmt.Errorf("unknown command type %q", j.Type)
	}
	c.Signers = j.Signers
	return nil
}

// TypedCommand is a command narrowed to one concrete type.
type TypedCommand[C Command] struct {
	Value   C
	Signers []types.PublicKey
}

// Select returns the commands of type C, in order.
func Select[C Command](cmds []CommandWithSigners) []TypedCommand[C] {
	var out []TypedCommand[C]
	for _, c := range cmds {
		if v, ok := c.Value.(C); ok {
			out = append(out, TypedCommand[C]{Value: v, Signers: c.Signers})
		}
	}
	return out
}
