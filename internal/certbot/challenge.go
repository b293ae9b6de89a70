// Package certbot turns the environment of certbot's manual DNS hooks into zone playbooks.
package certbot

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sergds/ccpdns/internal/playbook"
	"github.com/sergds/ccpdns/internal/scrape"
	"github.com/sergds/ccpdns/internal/zone"
)

const challengeLabel = "_acme-challenge"

var ErrNoZone = errors.New("no zone in the account covers the certificate domain")

// Challenge is one dns-01 validation certbot asks for.
type Challenge struct {
	Domain     string
	Validation string
}

func FromEnv() (Challenge, error) {
	c := Challenge{Domain: os.Getenv("CERTBOT_DOMAIN"), Validation: os.Getenv("CERTBOT_VALIDATION")}
	if c.Domain == "" || c.Validation == "" {
		return c, errors.New("CERTBOT_DOMAIN and CERTBOT_VALIDATION must be set")
	}
	return c, nil
}

// Search is what to look for in the domain list: the last two labels.
func (c Challenge) Search() string {
	labels := strings.Split(strings.TrimSuffix(c.name(), "."), ".")
	if len(labels) <= 2 {
		return strings.Join(labels, ".")
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

func (c Challenge) name() string {
	return strings.TrimPrefix(strings.TrimSuffix(strings.ToLower(c.Domain), "."), "*.")
}

// Zone picks the most specific zone the certificate domain lies in.
func (c Challenge) Zone(zones []scrape.DomainRef) (scrape.DomainRef, error) {
	name := c.name()
	best, bestLen := -1, 0
	for i, z := range zones {
		zn := strings.ToLower(strings.TrimSuffix(z.Name, "."))
		if name != zn && !strings.HasSuffix(name, "."+zn) {
			continue
		}
		if best < 0 || len(zn) > bestLen {
			best, bestLen = i, len(zn)
		}
	}
	if best < 0 {
		return scrape.DomainRef{}, errors.Wrap(ErrNoZone, c.Domain)
	}
	return zones[best], nil
}

// Host is the challenge record's host relative to zoneName.
func (c Challenge) Host(zoneName string) (string, error) {
	name := c.name()
	zoneName = strings.ToLower(strings.TrimSuffix(zoneName, "."))
	if name == zoneName {
		return challengeLabel, nil
	}
	if !strings.HasSuffix(name, "."+zoneName) {
		return "", errors.Wrapf(ErrNoZone, "%s is not inside %s", c.Domain, zoneName)
	}
	return challengeLabel + "." + strings.TrimSuffix(name, "."+zoneName), nil
}

func (c Challenge) record(zoneName string) (zone.Record, error) {
	host, err := c.Host(zoneName)
	if err != nil {
		return zone.Record{}, err
	}
	return zone.Record{Host: host, Type: zone.TypeTXT, Destination: c.Validation}, nil
}

// Deploy is the playbook publishing the validation token.
func (c Challenge) Deploy(zoneName string) (*playbook.Playbook, error) {
	r, err := c.record(zoneName)
	if err != nil {
		return nil, err
	}
	return &playbook.Playbook{Name: "certbot " + c.Domain, Domain: zoneName, Present: []zone.Record{r}}, nil
}

// Cleanup is the playbook removing exactly the record Deploy created.
func (c Challenge) Cleanup(zoneName string) (*playbook.Playbook, error) {
	r, err := c.record(zoneName)
	if err != nil {
		return nil, err
	}
	return &playbook.Playbook{Name: "certbot " + c.Domain, Domain: zoneName, Absent: []zone.Record{r}}, nil
}
