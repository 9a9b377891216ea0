package asset

import (
	"errors"

	"github.com/Klingon-tech/klingnet-assets/internal/log"
	"github.com/Klingon-tech/klingnet-assets/pkg/tx"
	"github.com/Klingon-tech/klingnet-assets/pkg/types"
)

// Verify checks that ltx is a valid transition of asset state. It returns
// nil or a *VerificationError.
//
// Every fingerprint group is checked independently:
//   - no input or output may hold a zero quantity
//   - with an Issue command, every group is an issuance: the issuer must
//     sign the Issue command and the group's outputs must exceed its inputs
//   - otherwise a group needs inputs, must balance as
//     inputs == outputs + exited, and every input owner must sign a Move
//
// An Exit command counts toward a group only when it is the single Exit for
// that fingerprint and is signed by an input owner or the issuer; otherwise
// nothing is exited.
//
// Verify does not look at signature bytes; see tx.Transaction.VerifySignatures.
func Verify(ltx *tx.LedgerTransaction) error {
	err := verify(ltx)
	if err != nil {
		log.Verifier.Debug().
			Str("tx", ltx.ID.String()).
			Err(err).
			Msg("Transaction rejected")
	}
	return err
}

func verify(ltx *tx.LedgerTransaction) error {
	issues := tx.Select[tx.Issue](ltx.Commands)
	if len(issues) > 1 {
		return &VerificationError{Err: ErrMultipleIssueCommands, Issue: true}
	}

	for _, g := range GroupStates(ltx) {
		if err := checkNonZero(g); err != nil {
			return err
		}
		inSum, err := sum(g.Key, g.Inputs)
		if err != nil {
			return &VerificationError{Err: ErrAmountOverflow, Group: g.Key}
		}
		outSum, err := sum(g.Key, g.Outputs)
		if err != nil {
			return &VerificationError{Err: ErrAmountOverflow, Group: g.Key}
		}

		if len(issues) == 1 {
			err = verifyIssue(g, issues[0], inSum.Quantity, outSum.Quantity)
		} else {
			err = verifyMove(g, ltx.Commands, inSum.Quantity, outSum.Quantity)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func checkNonZero(g Group) error {
	for _, s := range g.Inputs {
		if s.Amount.IsZero() {
			return &VerificationError{Err: ErrZeroSizedState, Group: g.Key}
		}
	}
	for _, s := range g.Outputs {
		if s.Amount.IsZero() {
			return &VerificationError{Err: ErrZeroSizedState, Group: g.Key}
		}
	}
	return nil
}

func verifyIssue(g Group, issue tx.TypedCommand[tx.Issue], inSum, outSum uint64) error {
	if issue.Value.Nonce == 0 {
		return &VerificationError{Err: ErrMissingNonce, Group: g.Key, Issue: true}
	}
	issuer := g.Key.Issuer.Party.Key
	cmd := tx.CommandWithSigners{Value: issue.Value, Signers: issue.Signers}
	if !cmd.SignedBy(issuer) {
		return &VerificationError{Err: ErrMissingSignature, Group: g.Key, Issue: true, Key: &issuer}
	}
	if outSum <= inSum {
		return &VerificationError{
			Err:       ErrUnbalancedAmounts,
			Group:     g.Key,
			InputSum:  inSum,
			OutputSum: outSum,
			Issue:     true,
		}
	}
	return nil
}

func verifyMove(g Group, cmds []tx.CommandWithSigners, inSum, outSum uint64) error {
	if len(g.Inputs) == 0 {
		return &VerificationError{Err: ErrNoInputsForGroup, Group: g.Key, OutputSum: outSum}
	}

	owners := g.Owners()
	exited := exitedAmount(g, cmds)

	balanced := exited <= types.MaxQuantity &&
		outSum <= types.MaxQuantity-exited &&
		inSum == outSum+exited
	if !balanced {
		return &VerificationError{
			Err:       ErrUnbalancedAmounts,
			Group:     g.Key,
			InputSum:  inSum,
			OutputSum: outSum,
			Exited:    exited,
		}
	}

	return checkMoveSigners(g, cmds, owners)
}

// exitedAmount returns the quantity removed by the group's Exit command, or
// zero if there is no single, properly signed Exit for this fingerprint.
func exitedAmount(g Group, cmds []tx.CommandWithSigners) uint64 {
	var match []tx.TypedCommand[tx.Exit]
	for _, e := range tx.Select[tx.Exit](cmds) {
		if e.Value.Amount.Token == g.Key {
			match = append(match, e)
		}
	}
	if len(match) != 1 {
		return 0
	}
	var exitKeys []types.PublicKey
	for _, in := range g.Inputs {
		exitKeys = append(exitKeys, in.ExitKeys()...)
	}
	cmd := tx.CommandWithSigners{Value: match[0].Value, Signers: match[0].Signers}
	if !cmd.SignedByAny(exitKeys) {
		return 0
	}
	return match[0].Value.Amount.Quantity
}

func checkMoveSigners(g Group, cmds []tx.CommandWithSigners, owners []types.PublicKey) error {
	signers := make(map[types.PublicKey]bool)
	for _, m := range tx.Select[tx.Move](cmds) {
		for _, s := range m.Signers {
			signers[s] = true
		}
	}
	if len(signers) == 0 {
		return &VerificationError{Err: ErrMissingSignature, Group: g.Key}
	}
	for _, owner := range owners {
		if !signers[owner] {
			key := owner
			return &VerificationError{Err: ErrMissingSignature, Group: g.Key, Key: &key}
		}
	}
	return nil
}

// IsVerificationError reports whether err is a rejection by Verify, as
// opposed to an I/O or resolution failure around it.
func IsVerificationError(err error) bool {
	var ve *VerificationError
	return errors.As(err, &ve)
}
