package rahkaran

import (
	"errors"
	"fmt"
)

// ErrorKind separates failures the caller may retry from terminal ones.
type ErrorKind string

const (
	// KindTimeout covers network failures and the per-call deadline.
	// Retry-safe: the voucher is only marked settled on explicit success.
	KindTimeout ErrorKind = "TIMEOUT"
	// KindRemoteRejected is a business-rule failure reported by the remote
	// system. Retrying cannot fix it.
	KindRemoteRejected ErrorKind = "REMOTE_REJECTED"
	// KindNumberingCollision means a concurrent writer took the probed
	// voucher number. Handled internally by re-probing; callers never see it
	// unless the bounded retry loop is exhausted.
	KindNumberingCollision ErrorKind = "NUMBERING_COLLISION"
)

// RemoteError is any failure talking to the ledger proxy.
type RemoteError struct {
	Kind    ErrorKind
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("rahkaran proxy: %s: %s", e.Kind, e.Message)
}

// Retryable reports whether a later batch may safely resubmit.
func (e *RemoteError) Retryable() bool {
	return e.Kind == KindTimeout
}

// IsRetryable reports whether a submission failure is safe to retry in a
// later run.
func IsRetryable(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Retryable()
}
