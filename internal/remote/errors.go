package remote

import (
	"errors"
	"fmt"
)

// Operation names the session call an Error belongs to. The engine maps
// operations to outcomes: auth failures abort the run, listing failures
// defer a subtree to the next cycle, download failures consume one retry.
type Operation string

const (
	OpAuth     Operation = "auth"
	OpList     Operation = "list"
	OpDownload Operation = "download"
)

// ErrDownloadTimeout reports that a download did not complete within its
// per-attempt deadline.
var ErrDownloadTimeout = errors.New("download timed out")

// Error is a failure of a single session operation against a remote path.
type Error struct {
	Op   Operation
	Path string
	Err  error
	Hint string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Err)
	if e.Path == "" {
		msg = fmt.Sprintf("%s: %s", e.Op, e.Err)
	}
	if e.Hint != "" {
		msg += " — " + e.Hint
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsAuth reports whether err is an authentication failure (run-fatal).
func IsAuth(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Op == OpAuth
}

// IsListing reports whether err is a listing failure (transient; the
// affected subtree is retried on the next full cycle).
func IsListing(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Op == OpList
}

// IsTimeout reports whether err is a per-attempt download timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrDownloadTimeout)
}
