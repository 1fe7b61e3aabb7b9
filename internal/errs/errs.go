// Package errs carries the error kinds shared by the allocator, the split
// executor and the upstream clients. Kinds are attached with Mark so a
// wrapped cause keeps its message and stack while still matching errs.Is.
package errs

import (
	"fmt"

	cr "github.com/cockroachdb/errors"
)

var (
	// ErrParse means user input could not be converted to a cent amount.
	ErrParse = cr.New("parse error")
	// ErrValidation means an allocation or request failed a local check.
	ErrValidation = cr.New("validation error")
	// ErrAuth means the upstream bearer token could not be obtained.
	ErrAuth = cr.New("upstream authentication failed")
	// ErrNetwork is a transport-level failure talking to an upstream.
	ErrNetwork = cr.New("network error")
	// ErrRejected is the kind carried by every RejectedError.
	ErrRejected = cr.New("rejected by upstream")
	// ErrTimeout means the call outlived its deadline and the outcome is unknown.
	ErrTimeout = cr.New("timeout, status unknown")
	// ErrUnknownOutcome means the call may have been applied upstream but no
	// usable answer came back (cancelled wait, unreadable success body).
	ErrUnknownOutcome = cr.New("outcome unknown")

	ErrNotFound         = cr.New("not found")
	ErrConflict         = cr.New("conflict")
	ErrVersionMismatch  = cr.New("optimistic lock failed")
	ErrSubmissionActive = cr.New("split already in flight for voucher")
	ErrStatusUnknown    = cr.New("previous split status unknown, check balance first")
)

// RejectedError is a definite refusal from an upstream API. Reason is shown
// to the user verbatim.
type RejectedError struct {
	Code   string
	Reason string
	Status int
}

func (e *RejectedError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("rejected (%s): %s", e.Code, e.Reason)
	}
	return e.Reason
}

// Is lets errors.Is(err, ErrRejected) match without an explicit Mark.
func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

// Rejected builds a RejectedError.
func Rejected(status int, code, reason string) error {
	return &RejectedError{Code: code, Reason: reason, Status: status}
}

func New(msg string) error {
	return cr.New(msg)
}

func Newf(format string, args ...any) error {
	return cr.Newf(format, args...)
}

func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return cr.Wrap(err, msg)
}

func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return cr.Wrapf(err, format, args...)
}

// Mark tags err with the given kind. A nil err yields the kind itself.
func Mark(err error, kind error) error {
	if err == nil {
		return kind
	}
	return cr.Mark(err, kind)
}

// Markf creates a new error with the given message marked as kind.
func Markf(kind error, format string, args ...any) error {
	return cr.Mark(cr.Newf(format, args...), kind)
}

func Is(err, target error) bool {
	return cr.Is(err, target)
}

func As(err error, target any) bool {
	return cr.As(err, target)
}

// Ambiguous reports whether err leaves the upstream state unknown.
func Ambiguous(err error) bool {
	return cr.Is(err, ErrTimeout) || cr.Is(err, ErrUnknownOutcome)
}

// Reason returns the user-facing text for err: the verbatim upstream reason
// for rejections, the full message otherwise.
func Reason(err error) string {
	var rej *RejectedError
	if cr.As(err, &rej) {
		return rej.Reason
	}
	return err.Error()
}
