package ccp

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sergds/ccpdns/internal/logger"
	"github.com/sergds/ccpdns/internal/scrape"
	"github.com/sergds/ccpdns/internal/session"
	"github.com/sergds/ccpdns/internal/zone"
	"go.uber.org/zap"
)

const (
	ajaxPath    = "/run/domains_ajax.php"
	savedMarker = "Eintrag erfolgreich!"
	liveMarker  = "<td>yes</td>"
)

type Options struct {
	Endpoint   string
	CachePath  string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Connection drives the panel's domain pages. Calls must not overlap.
type Connection struct {
	sess *session.Session
	log  *zap.Logger
}

func New(opts Options) (*Connection, error) {
	log := logger.Named(opts.Logger, "ccp")
	sess, err := session.New(session.Options{
		Endpoint:   opts.Endpoint,
		CachePath:  opts.CachePath,
		HTTPClient: opts.HTTPClient,
		Logger:     opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &Connection{sess: sess, log: log}, nil
}

func (c *Connection) Start(ctx context.Context, creds session.Credentials) error {
	return c.sess.Start(ctx, creds)
}

func (c *Connection) Close(ctx context.Context) error {
	return c.sess.Close(ctx)
}

func (c *Connection) Logout(ctx context.Context) error {
	return c.sess.Logout(ctx)
}

// ListDomains returns one page (1-based) of domains whose name contains search.
func (c *Connection) ListDomains(ctx context.Context, search string, page int) ([]scrape.DomainRef, error) {
	if page < 1 {
		page = 1
	}
	body, err := c.sess.Get(ctx, ajaxPath, url.Values{
		"suchstrg": {search},
		"action":   {"listdomains"},
		"seite":    {strconv.Itoa(page)},
	})
	if err != nil {
		return nil, err
	}
	refs, err := scrape.ExtractDomainList(body)
	if err != nil {
		return nil, err
	}
	c.log.Debug("listed domains", zap.String("search", search), zap.Int("page", page), zap.Int("count", len(refs)))
	return refs, nil
}

// FindDomain looks a domain up by its exact name.
func (c *Connection) FindDomain(ctx context.Context, name string) (scrape.DomainRef, error) {
	name = strings.TrimSuffix(strings.TrimSpace(name), ".")
	refs, err := c.ListDomains(ctx, name, 1)
	if err != nil {
		return scrape.DomainRef{}, err
	}
	for _, r := range refs {
		if strings.EqualFold(r.Name, name) {
			return r, nil
		}
	}
	return scrape.DomainRef{}, errors.Wrapf(ErrDomainNotFound, "%s", name)
}

func (c *Connection) detailPage(ctx context.Context, id string) (string, error) {
	return c.sess.Get(ctx, ajaxPath, url.Values{
		"domain_id": {id},
		"action":    {"showdomainsdetails"},
	})
}

func (c *Connection) GetDomain(ctx context.Context, id string) (*zone.Domain, error) {
	body, err := c.detailPage(ctx, id)
	if err != nil {
		return nil, err
	}
	d, err := scrape.ExtractDomain(id, body)
	if err != nil {
		return nil, err
	}
	c.log.Debug("fetched domain", zap.String("domain", d.Name()), zap.String("serial", d.Serial()), zap.Int("records", len(d.Records())))
	return d, nil
}

// SaveDomain sends d's pending changes. A clean domain costs no request. On any
// error d is left as it was, so the save can simply be retried.
func (c *Connection) SaveDomain(ctx context.Context, d *zone.Domain) error {
	if d == nil {
		return errors.New("nil domain")
	}
	if !d.Changed() {
		c.log.Debug("nothing to save", zap.String("domain", d.Name()))
		return nil
	}

	body, err := c.sess.Post(ctx, ajaxPath, url.Values{
		"action":    {"editzone"},
		"domain_id": {d.ID()},
	}, BuildPayload(d))
	if err != nil {
		return errors.Wrapf(err, "save %s", d.Name())
	}
	if !strings.Contains(body, savedMarker) {
		return &SaveError{DomainID: d.ID()}
	}

	serial, err := scrape.ExtractSerial(body)
	if err != nil {
		return err
	}

	var fresh []zone.Entry
	if scrape.HasDomain(d.ID(), body) {
		fresh, err = scrape.ExtractRecords(d.ID(), body)
		if err != nil {
			c.log.Warn("could not re-read records after save", zap.String("domain", d.Name()), zap.Error(err))
			fresh = nil
		} else if fresh == nil {
			fresh = []zone.Entry{}
		}
	}
	if err := d.Commit(serial, fresh); err != nil {
		return errors.Wrap(err, "apply save result")
	}
	c.log.Info("domain saved", zap.String("domain", d.Name()), zap.String("serial", serial))
	return nil
}

// IsRecordLive reports whether the panel shows the zone's last change as published.
func (c *Connection) IsRecordLive(ctx context.Context, id string) (bool, error) {
	body, err := c.detailPage(ctx, id)
	if err != nil {
		return false, err
	}
	return strings.Contains(body, liveMarker), nil
}
