package relay

import (
	"errors"
	"strings"
)

var (
	// ErrQuoteUnavailable wraps bridge quote failures. Retryable: the pair is
	// re-evaluated next cycle.
	ErrQuoteUnavailable = errors.New("bridge quote unavailable")

	// ErrHashMismatch means the locally computed request hash disagrees with
	// the quote. Never retried within the cycle: a mismatch is a routing or
	// encoding bug, not a transient fault.
	ErrHashMismatch = errors.New("expected request hash mismatch")

	// ErrTxReverted means the forwarded transaction mined with status 0. The
	// contract rejected the call (bad signature, stale nonce, expired
	// deadline); resubmitting the same payload would revert again.
	ErrTxReverted = errors.New("transaction reverted on-chain")

	// ErrNonceConflict means the relayer account nonce raced with another
	// submission. The forwarder requeues the request once.
	ErrNonceConflict = errors.New("relayer nonce conflict")
)

// isNonceConflict classifies node errors that indicate a relayer account
// nonce race. Node implementations disagree on the exact message, so this is
// a substring match over the common variants.
func isNonceConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNonceConflict) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "nonce too low") ||
		strings.Contains(msg, "replacement transaction underpriced") ||
		strings.Contains(msg, "already known")
}
