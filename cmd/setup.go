package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	dnsadapters "github.com/sergds/ccpdns/internal/adapters/dns"
	"github.com/sergds/ccpdns/internal/ccp"
	"github.com/sergds/ccpdns/internal/config"
	"github.com/sergds/ccpdns/internal/fastansi"
	"github.com/sergds/ccpdns/internal/logger"
	"github.com/sergds/ccpdns/internal/propagation"
	"github.com/sergds/ccpdns/internal/scrape"
	"github.com/sergds/ccpdns/internal/session"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// Filled by setup before any command runs.
var cfg *config.Config

var waitFlags = []cli.Flag{
	&cli.BoolFlag{Name: "wait", Usage: "poll until the panel publishes the zone"},
	&cli.BoolFlag{Name: "wait-txt", Usage: "with --wait, also wait until added TXT records resolve publicly"},
	&cli.DurationFlag{Name: "timeout", Value: 15 * time.Minute, Usage: "give up waiting after this long"},
}

func setup(c *cli.Context) error {
	var err error
	cfg, err = config.Load(c.String("config"), c.IsSet("config"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	overrides := map[string]*string{
		"endpoint":      &cfg.Endpoint,
		"username":      &cfg.Username,
		"second-factor": &cfg.SecondFactor,
		"cache":         &cfg.CachePath,
		"log-level":     &cfg.LogLevel,
		"log-format":    &cfg.LogFormat,
	}
	for flag, dst := range overrides {
		if c.IsSet(flag) {
			*dst = c.String(flag)
		}
	}
	switch {
	case c.Bool("no-cache"):
		cfg.CachePath = ""
	case cfg.CachePath == "":
		cfg.CachePath = config.DefaultCachePath()
	}

	l, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat, []string{"stderr"}, []string{"stderr"})
	if err != nil {
		return cli.Exit("bad log level: "+err.Error(), 1)
	}
	logger.Log = l
	return nil
}

func printer() *fastansi.StatusPrinter {
	return fastansi.NewStatusPrinter(color.Output, color.NoColor)
}

func commandContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt)
}

// connect logs in (or resumes the cached session) and hands back a started connection.
func connect(ctx context.Context) (*ccp.Connection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	code, err := cfg.SecondFactorCode(time.Now())
	if err != nil {
		return nil, err
	}
	if cfg.CachePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.CachePath), 0o700); err != nil {
			return nil, errors.Wrap(err, "cookie cache directory")
		}
	}
	conn, err := ccp.New(ccp.Options{Endpoint: cfg.Endpoint, CachePath: cfg.CachePath, Logger: logger.Log})
	if err != nil {
		return nil, err
	}
	if err := conn.Start(ctx, session.Credentials{Username: cfg.Username, Password: cfg.Password, SecondFactor: code}); err != nil {
		return nil, err
	}
	return conn, nil
}

// withConnection runs fn on a started connection and closes it afterwards.
func withConnection(c *cli.Context, fn func(ctx context.Context, conn *ccp.Connection) error) error {
	ctx, cancel := commandContext(c)
	defer cancel()
	conn, err := connect(ctx)
	if err != nil {
		return exitErr(err)
	}
	err = fn(ctx, conn)
	// a cancelled ctx must not stop the cookie cache from being written
	if cerr := conn.Close(context.WithoutCancel(ctx)); cerr != nil {
		logger.Log.Warn("closing session failed", zap.Error(cerr))
	}
	return exitErr(err)
}

func adapterFor(name string, conn *ccp.Connection) (dnsadapters.DNSAdapter, error) {
	// keep a nil connection a nil Panel
	if conn == nil {
		return dnsadapters.NewDNSAdapter(name, nil)
	}
	return dnsadapters.NewDNSAdapter(name, conn)
}

func waiter(c *cli.Context) *propagation.Waiter {
	if !c.Bool("wait") {
		return nil
	}
	return &propagation.Waiter{Timeout: c.Duration("timeout"), Log: logger.Log}
}

// Exit codes: 2 login, 3 session expired, 4 page layout changed, 5 save rejected, 6 not propagated in time.
func exitErr(err error) error {
	if err == nil {
		return nil
	}
	var (
		authErr    *session.AuthenticationError
		expiredErr *session.SessionExpiredError
		changedErr *scrape.StructureChangedError
		saveErr    *ccp.SaveError
	)
	code := 1
	switch {
	case errors.As(err, &authErr):
		code = 2
	case errors.As(err, &expiredErr):
		code = 3
	case errors.As(err, &changedErr):
		code = 4
	case errors.As(err, &saveErr):
		code = 5
	case errors.Is(err, propagation.ErrNotPropagated):
		code = 6
	}
	return cli.Exit(color.RedString(err.Error()), code)
}
