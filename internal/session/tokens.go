package session

import (
	"context"
	"net/url"
	"regexp"
	"strings"
)

const (
	expiredMarker = "Your session has expired"
	csrfPath      = "/run/nocrfs_ajax.php"
)

var (
	sessionHashRe = regexp.MustCompile(`sessionhash = "(.*?)";`)
	csrfDoubleRe  = regexp.MustCompile(`nocsrftoken = "(.*?)";`)
	csrfSingleRe  = regexp.MustCompile(`nocsrftoken = '(.*?)';`)
)

// State is the pair of short-lived tokens every authenticated request carries.
type State struct {
	SessionHash string
	CSRF        string
}

func (s State) Valid() bool { return s.SessionHash != "" && s.CSRF != "" }

func (s State) query() url.Values {
	return url.Values{"sessionhash": {s.SessionHash}, "nocsrftoken": {s.CSRF}}
}

// ParseTokens reads both tokens from a page. The anti-forgery token may be missing
// (csrf == ""); a missing session handle or the expiry banner is an error.
func ParseTokens(body string) (State, error) {
	if strings.Contains(body, expiredMarker) {
		return State{}, &SessionExpiredError{}
	}
	m := sessionHashRe.FindStringSubmatch(body)
	if m == nil {
		return State{}, &SessionExpiredError{Detail: "no session handle in response"}
	}
	st := State{SessionHash: m[1]}
	if m := csrfDoubleRe.FindStringSubmatch(body); m != nil {
		st.CSRF = m[1]
	} else if m := csrfSingleRe.FindStringSubmatch(body); m != nil {
		st.CSRF = m[1]
	}
	return st, nil
}

// Refresh derives the state that follows prev after the panel answered with body.
// When the page does not embed an anti-forgery token a new one is requested.
func (s *Session) Refresh(ctx context.Context, prev State, body string) (State, error) {
	next, err := ParseTokens(body)
	if err != nil {
		return prev, err
	}
	if next.CSRF != "" {
		return next, nil
	}

	token, err := s.transport.do(ctx, csrfPath, url.Values{
		"action":      {"getnocsrftoken"},
		"sessionhash": {next.SessionHash},
	}, nil)
	if err != nil {
		return prev, err
	}
	if strings.Contains(token, expiredMarker) {
		return prev, &SessionExpiredError{Detail: "token refresh refused"}
	}
	next.CSRF = strings.TrimSpace(token)
	if next.CSRF == "" {
		return prev, &SessionExpiredError{Detail: "empty anti-forgery token"}
	}
	return next, nil
}
