package asset

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-assets/pkg/types"
)

// Verification errors.
var (
	ErrZeroSizedState        = errors.New("zero sized state")
	ErrUnbalancedAmounts     = errors.New("unbalanced amounts")
	ErrMissingSignature      = errors.New("missing signature")
	ErrMultipleIssueCommands = errors.New("multiple issue commands")
	ErrNoInputsForGroup      = errors.New("no inputs for group")
	ErrMissingNonce          = errors.New("issue command has zero nonce")
	ErrAmountOverflow        = errors.New("amount overflow")
)

// VerificationError reports why a transaction was rejected, with the group
// and numbers involved. Use errors.Is against the sentinels above to branch
// on the kind of failure.
type VerificationError struct {
	Err error

	// Group is the fingerprint of the failing group. Zero for
	// transaction-wide failures such as multiple issue commands.
	Group types.Issued

	InputSum  uint64
	OutputSum uint64
	Exited    uint64

	// Issue is set when the failure was found on the issuance path.
	Issue bool

	// Key is the signer that was required but absent.
	Key *types.PublicKey
}

func (e *VerificationError) Error() string {
	var prefix string
	if e.Group != (types.Issued{}) {
		prefix = fmt.Sprintf("group %s: ", e.Group)
	}
	switch {
	case errors.Is(e.Err, ErrUnbalancedAmounts) && e.Issue:
		return fmt.Sprintf("%s%v: issuance must grow supply: in=%d out=%d", prefix, e.Err, e.InputSum, e.OutputSum)
	case errors.Is(e.Err, ErrUnbalancedAmounts):
		return fmt.Sprintf("%s%v: in=%d out=%d exit=%d", prefix, e.Err, e.InputSum, e.OutputSum, e.Exited)
	case errors.Is(e.Err, ErrMissingSignature) && e.Key != nil:
		return fmt.Sprintf("%s%v: key %s", prefix, e.Err, e.Key)
	}
	return prefix + e.Err.Error()
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}
