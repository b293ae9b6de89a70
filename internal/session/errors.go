package session

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrNotStarted = errors.New("session not started")

type AuthFailure int

const (
	CredentialsRejected AuthFailure = iota
	SecondFactorRequired
	SecondFactorRejected
)

func (r AuthFailure) String() string {
	switch r {
	case SecondFactorRequired:
		return "second factor required"
	case SecondFactorRejected:
		return "second factor rejected"
	default:
		return "credentials rejected"
	}
}

// AuthenticationError is returned by Start when the panel did not hand out a session.
type AuthenticationError struct {
	Reason AuthFailure
}

func (e *AuthenticationError) Error() string {
	return "login failed: " + e.Reason.String()
}

// SessionExpiredError means the panel dropped the session. Start again to recover.
type SessionExpiredError struct {
	Detail string
}

func (e *SessionExpiredError) Error() string {
	if e.Detail == "" {
		return "session expired"
	}
	return "session expired: " + e.Detail
}

type CacheUnwritableError struct {
	Path string
	Err  error
}

func (e *CacheUnwritableError) Error() string {
	return fmt.Sprintf("cookie cache %s is not writable: %v", e.Path, e.Err)
}

func (e *CacheUnwritableError) Unwrap() error { return e.Err }

// StatusError is a non-2xx answer from the panel.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
}
