package session

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sergds/ccpdns/internal/logger"
	"go.uber.org/zap"
)

const DefaultEndpoint = "https://ccp.netcup.net"

const (
	loginPath   = "/run/start.php"
	landingPath = "/run/domains.php"
	logoutPath  = "/run/logout.php"
)

type Options struct {
	Endpoint string // defaults to DefaultEndpoint
	// CachePath is the bbolt file cookies are kept in between runs. Empty disables
	// caching, and Close then logs out instead.
	CachePath  string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

type Credentials struct {
	Username     string
	Password     string
	SecondFactor string // one-time code, empty when the account has no 2FA
}

// Session is one logged-in panel session. Not safe for concurrent use.
type Session struct {
	transport *transport
	jar       *Jar
	cachePath string
	restored  bool
	state     State
	started   bool
	log       *zap.Logger
}

func New(opts Options) (*Session, error) {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "parse endpoint %q", endpoint)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("endpoint %q is not an absolute url", endpoint)
	}

	jar, err := NewJar()
	if err != nil {
		return nil, err
	}
	client := &http.Client{}
	if opts.HTTPClient != nil {
		c := *opts.HTTPClient
		client = &c
	}
	client.Jar = jar

	log := logger.Named(opts.Logger, "session")
	s := &Session{
		transport: &transport{client: client, endpoint: u, log: log},
		jar:       jar,
		cachePath: opts.CachePath,
		log:       log,
	}

	if s.cachePath != "" {
		if err := checkWritable(s.cachePath); err != nil {
			return nil, err
		}
		n, err := jar.Load(s.cachePath)
		if err != nil {
			log.Warn("ignoring unreadable cookie cache", zap.String("path", s.cachePath), zap.Error(err))
		}
		s.restored = n > 0
		log.Debug("cookie cache loaded", zap.Int("cookies", n))
	}
	return s, nil
}

func checkWritable(path string) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".ccpdns-probe-*")
	if err != nil {
		return &CacheUnwritableError{Path: path, Err: err}
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return nil
}

// Start reuses a cached session when the panel still recognises it and logs in otherwise.
func (s *Session) Start(ctx context.Context, creds Credentials) error {
	if creds.Username == "" {
		return errors.New("empty username")
	}

	if s.restored {
		ok, err := s.resume(ctx, creds.Username)
		if err != nil {
			return err
		}
		if ok {
			s.log.Info("reusing cached session")
			return nil
		}
		s.log.Debug("cached session no longer valid")
	}

	form := url.Values{
		"action":      {"login"},
		"nocsrftoken": {""},
		"ccp_user":    {creds.Username},
		"language":    {"DE"},
		"login":       {"Login / Anmelden"},
	}
	if creds.SecondFactor != "" {
		form.Set("pwdb64", base64.StdEncoding.EncodeToString([]byte(creds.Password)))
		form.Set("tan", creds.SecondFactor)
	} else {
		form.Set("ccp_password", creds.Password)
	}

	s.log.Debug("logging in", zap.Bool("second_factor", creds.SecondFactor != ""))
	loginBody, err := s.transport.do(ctx, loginPath, nil, form)
	if err != nil {
		return err
	}
	echoed := strings.Contains(loginBody, creds.Username)

	landing, err := s.transport.do(ctx, landingPath, nil, nil)
	if err != nil {
		return err
	}
	st, err := s.Refresh(ctx, State{}, landing)
	if err != nil {
		var expired *SessionExpiredError
		if !errors.As(err, &expired) {
			return err
		}
		reason := CredentialsRejected
		switch {
		case creds.SecondFactor != "":
			reason = SecondFactorRejected
		case echoed:
			reason = SecondFactorRequired
		}
		return &AuthenticationError{Reason: reason}
	}

	s.state = st
	s.started = true
	s.log.Info("logged in")
	return nil
}

func (s *Session) resume(ctx context.Context, username string) (bool, error) {
	body, err := s.transport.do(ctx, landingPath, nil, nil)
	if err != nil {
		return false, err
	}
	if !strings.Contains(body, username) {
		return false, nil
	}
	st, err := s.Refresh(ctx, State{}, body)
	if err != nil {
		var expired *SessionExpiredError
		if errors.As(err, &expired) {
			return false, nil
		}
		return false, err
	}
	s.state = st
	s.started = true
	return true, nil
}

// Close saves the cookie jar when caching, and logs out otherwise.
func (s *Session) Close(ctx context.Context) error {
	defer func() {
		s.started = false
		s.state = State{}
	}()

	if s.cachePath != "" {
		if err := s.jar.Save(s.cachePath); err != nil {
			return err
		}
		s.log.Debug("cookie cache saved", zap.Int("cookies", s.jar.Len()))
		return nil
	}
	if !s.started {
		return nil
	}
	_, err := s.transport.do(ctx, logoutPath, nil, nil)
	return err
}

// Logout ends the panel session and forgets the cookie cache, if any.
func (s *Session) Logout(ctx context.Context) error {
	defer func() {
		s.started = false
		s.state = State{}
	}()

	if s.started {
		if _, err := s.transport.do(ctx, logoutPath, nil, nil); err != nil {
			return err
		}
	}
	if s.cachePath != "" {
		if err := os.Remove(s.cachePath); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "remove cookie cache")
		}
	}
	return nil
}

// Started reports whether Start succeeded and Close has not been called since.
func (s *Session) Started() bool { return s.started }

func (s *Session) State() State { return s.state }

func (s *Session) Get(ctx context.Context, path string, query url.Values) (string, error) {
	return s.request(ctx, path, query, nil)
}

func (s *Session) Post(ctx context.Context, path string, query, form url.Values) (string, error) {
	if form == nil {
		form = url.Values{}
	}
	return s.request(ctx, path, query, form)
}

func (s *Session) request(ctx context.Context, path string, query, form url.Values) (string, error) {
	if !s.started {
		return "", ErrNotStarted
	}
	q := url.Values{}
	for k, v := range query {
		q[k] = append([]string(nil), v...)
	}
	for k, v := range s.state.query() {
		q[k] = v
	}

	body, err := s.transport.do(ctx, path, q, form)
	if err != nil {
		return "", err
	}
	st, err := s.Refresh(ctx, s.state, body)
	if err != nil {
		return "", err
	}
	s.state = st
	return body, nil
}
