package studzone

import "errors"

var (
	// ErrInvalidCredentials is terminal for the attempt; the user must
	// re-enter their roll number or password.
	ErrInvalidCredentials = errors.New("studzone: invalid roll number or password")

	// ErrSessionExpired means the portal no longer recognises this
	// Session's cookies. A new Login is required.
	ErrSessionExpired = errors.New("studzone: session expired")
)

// TransientError wraps a network-level fault. The caller may retry with
// backoff; the client itself never retries.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string { return "studzone: " + e.Op + ": " + e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

func transient(op string, err error) error { return &TransientError{Op: op, Err: err} }
