package propagation

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/likexian/doh"
	"github.com/likexian/doh/dns"
	"github.com/pkg/errors"
	"github.com/sergds/ccpdns/internal/logger"
	"go.uber.org/zap"
)

var ErrNotPropagated = errors.New("change not visible yet")

const (
	DefaultInterval    = 5 * time.Second
	DefaultMaxInterval = 30 * time.Second
	DefaultTimeout     = 10 * time.Minute
)

// LiveChecker is satisfied by *ccp.Connection.
type LiveChecker interface {
	IsRecordLive(ctx context.Context, domainID string) (bool, error)
}

type TXTResolver interface {
	LookupTXT(ctx context.Context, fqdn string) ([]string, error)
}

// DoHResolver asks public DNS-over-HTTPS resolvers, bypassing any local cache.
type DoHResolver struct {
	use     func() *doh.DoH
	timeout time.Duration
}

// NewDoHResolver queries Cloudflare and Google.
func NewDoHResolver() *DoHResolver {
	return &DoHResolver{
		use:     func() *doh.DoH { return doh.Use(doh.CloudflareProvider, doh.GoogleProvider) },
		timeout: 10 * time.Second,
	}
}

func (r *DoHResolver) LookupTXT(ctx context.Context, fqdn string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	c := r.use()
	defer c.Close()
	resp, err := c.Query(ctx, dns.Domain(strings.TrimSuffix(fqdn, ".")), dns.TypeTXT)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s TXT", fqdn)
	}
	var out []string
	for _, a := range resp.Answer {
		if a.Type == 16 {
			out = append(out, unquoteTXT(a.Data))
		}
	}
	return out, nil
}

// unquoteTXT joins the quoted character-strings of one TXT answer.
func unquoteTXT(data string) string {
	data = strings.TrimSpace(data)
	if !strings.HasPrefix(data, `"`) {
		return data
	}
	var b strings.Builder
	for _, part := range strings.Split(data, `" "`) {
		b.WriteString(strings.Trim(part, `"`))
	}
	return b.String()
}

// Waiter polls until a saved change shows up, backing off between attempts.
type Waiter struct {
	Checker     LiveChecker
	Resolver    TXTResolver
	Interval    time.Duration
	MaxInterval time.Duration
	Timeout     time.Duration
	Log         *zap.Logger
}

func (w *Waiter) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = orDefault(w.Interval, DefaultInterval)
	b.MaxInterval = orDefault(w.MaxInterval, DefaultMaxInterval)
	b.MaxElapsedTime = orDefault(w.Timeout, DefaultTimeout)
	return backoff.WithContext(b, ctx)
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// WaitLive returns once the panel reports the zone of domainID as published.
// Panel errors end the wait immediately.
func (w *Waiter) WaitLive(ctx context.Context, domainID string) error {
	if w.Checker == nil {
		return errors.New("no live checker")
	}
	log := logger.Named(w.Log, "propagation")
	attempt := 0
	op := func() error {
		attempt++
		live, err := w.Checker.IsRecordLive(ctx, domainID)
		if err != nil {
			return backoff.Permanent(err)
		}
		log.Debug("zone live check", zap.String("domain_id", domainID), zap.Int("attempt", attempt), zap.Bool("live", live))
		if !live {
			return ErrNotPropagated
		}
		return nil
	}
	if err := backoff.Retry(op, w.policy(ctx)); err != nil {
		return errors.Wrapf(err, "domain %s", domainID)
	}
	return nil
}

// WaitTXT returns once fqdn resolves to a TXT record holding value.
// Resolver failures are retried like a missing record.
func (w *Waiter) WaitTXT(ctx context.Context, fqdn, value string) error {
	resolver := w.Resolver
	if resolver == nil {
		resolver = NewDoHResolver()
	}
	log := logger.Named(w.Log, "propagation")
	op := func() error {
		values, err := resolver.LookupTXT(ctx, fqdn)
		if err != nil {
			log.Debug("txt lookup failed", zap.String("fqdn", fqdn), zap.Error(err))
			return ErrNotPropagated
		}
		for _, v := range values {
			if v == value {
				return nil
			}
		}
		log.Debug("txt not visible", zap.String("fqdn", fqdn), zap.Int("answers", len(values)))
		return ErrNotPropagated
	}
	if err := backoff.Retry(op, w.policy(ctx)); err != nil {
		return errors.Wrapf(err, "%s TXT", fqdn)
	}
	return nil
}
