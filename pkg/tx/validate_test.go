package tx

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-assets/config"
	"github.com/Klingon-tech/klingnet-assets/pkg/types"
)

func TestValidate(t *testing.T) {
	owner := newKey(t).PublicKey()
	notary := types.Party{Name: "Notary", Key: newKey(t).PublicKey()}
	token := testToken(owner)
	ref := types.StateRef{TxID: types.Hash{0x01}}
	move := []CommandWithSigners{{Value: Move{}, Signers: []types.PublicKey{owner}}}
	out := []State{NewState(1, token, owner)}

	tests := []struct {
		name string
		tx   Transaction
		want error
	}{
		{"empty", Transaction{Commands: move}, ErrEmpty},
		{"no commands", Transaction{Outputs: out}, ErrNoCommands},
		{"no notary", Transaction{Inputs: []types.StateRef{ref}, Outputs: out, Commands: move}, ErrMissingNotary},
		{"duplicate input", Transaction{Inputs: []types.StateRef{ref, ref}, Outputs: out, Commands: move, Notary: &notary}, ErrDuplicateInput},
		{"nil command", Transaction{Outputs: out, Commands: []CommandWithSigners{{Signers: []types.PublicKey{owner}}}}, ErrUnknownCommand},
		{"unsigned command", Transaction{Outputs: out, Commands: []CommandWithSigners{{Value: Issue{Nonce: 1}}}}, ErrNoSigners},
		{"too many outputs", Transaction{Outputs: make([]State, config.MaxTxOutputs+1), Commands: move}, ErrTooManyOutputs},
		{"ok", Transaction{Inputs: []types.StateRef{ref}, Outputs: out, Commands: move, Notary: &notary}, nil},
		{"exit everything", Transaction{Inputs: []types.StateRef{ref}, Commands: move, Notary: &notary}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
