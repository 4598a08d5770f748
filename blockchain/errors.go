package blockchain

import "github.com/cockroachdb/errors"

// ConsensusError reports a consensus rule violation. DoS scores the
// severity the same way the original kernel's misbehaving() calls do:
// a low score means the violation could be an honest side effect of a
// chain reorg or slow peer, a high score means it could only come from
// a deliberately invalid block or transaction.
type ConsensusError struct {
	Reason string
	DoS    int
}

func (e *ConsensusError) Error() string {
	return e.Reason
}

// NewConsensusError builds a ConsensusError with a stack trace attached,
// following the same errors.WithStack idiom the teacher's script.go uses
// for every returned error.
func NewConsensusError(dos int, format string, args ...interface{}) error {
	return errors.WithStack(&ConsensusError{Reason: errors.Newf(format, args...).Error(), DoS: dos})
}

// AsConsensusError unwraps err looking for a *ConsensusError, the same
// way callers use errors.Is/errors.As against cockroachdb/errors chains.
func AsConsensusError(err error) (*ConsensusError, bool) {
	var ce *ConsensusError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// ErrBlockChainBehind and ErrTryAgainLater are not consensus violations:
// they mean the chain index does not yet hold the ancestor a lookup
// needs, and the caller should retry once more blocks have been indexed.
var (
	ErrBlockChainBehind = errors.New("blockchain: chain index does not extend far enough back yet")
	ErrTryAgainLater    = errors.New("blockchain: stake modifier not yet available for this block")
)
