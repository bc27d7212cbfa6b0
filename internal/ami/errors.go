package ami

import "fmt"

// TransportError wraps a network/HTTP-layer fault: connection refused, DNS
// failure, non-2xx status, or a truncated body. Retryable per spec §7.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ami: transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError signals a malformed AMI response, or a Response header
// that was not the expected success value. Retryable per spec §7; logged
// distinctly from TransportError ("AMI: ...").
type ProtocolError struct {
	Op      string
	Message string
}

func (e *ProtocolError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("AMI: %s failed", e.Op)
	}
	return fmt.Sprintf("AMI: %s failed: %s", e.Op, e.Message)
}

// AuthError is a ProtocolError raised specifically by the login action.
// It is handled identically to ProtocolError by TryOrWait (retry after
// retryInterval) but is a distinct type so callers can log "auth failed"
// more specifically than "some AMI action failed."
type AuthError struct {
	*ProtocolError
}

// Unwrap exposes the embedded ProtocolError to errors.As/errors.Is, so
// callers that only check for *ProtocolError (like retry.TryOrWait) still
// treat an *AuthError as retryable without a special case.
func (e *AuthError) Unwrap() error { return e.ProtocolError }

// AmbiguousFieldError is returned by ResultSet.Get when the same key
// appears more than once within a single result set. Spec §9 calls this
// out explicitly: the scalar accessor errors on duplicates, in contrast to
// the "last wins" rule multi-event consumers apply across result sets.
type AmbiguousFieldError struct {
	Key string
}

func (e *AmbiguousFieldError) Error() string {
	return fmt.Sprintf("ami: field %q appears more than once in a single result set", e.Key)
}
