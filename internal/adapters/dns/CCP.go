package dns

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sergds/ccpdns/internal/scrape"
	"github.com/sergds/ccpdns/internal/zone"
)

var ErrNotOpen = errors.New("adapter has no zone open")

// Panel is the part of *ccp.Connection the CCP adapter drives. The connection
// must already be started.
type Panel interface {
	FindDomain(ctx context.Context, name string) (scrape.DomainRef, error)
	GetDomain(ctx context.Context, id string) (*zone.Domain, error)
	SaveDomain(ctx context.Context, d *zone.Domain) error
	IsRecordLive(ctx context.Context, id string) (bool, error)
}

// DNS adapter for zones hosted in the netcup customer control panel.
// Changes are staged on the fetched snapshot and sent in one save by CommitRecords.
type CCP struct {
	panel  Panel
	ref    scrape.DomainRef
	domain *zone.Domain
}

func newCCP(panel Panel) *CCP {
	return &CCP{panel: panel}
}

func (c *CCP) Open(ctx context.Context, zoneName string) error {
	ref, err := c.panel.FindDomain(ctx, zoneName)
	if err != nil {
		return err
	}
	d, err := c.panel.GetDomain(ctx, ref.ID)
	if err != nil {
		return err
	}
	c.ref = ref
	c.domain = d
	return nil
}

// Domain is the open snapshot, including staged changes.
func (c *CCP) Domain() *zone.Domain { return c.domain }

func (c *CCP) GetRecords(ctx context.Context, rtype zone.RecordType) ([]DNSRecord, error) {
	if c.domain == nil {
		return nil, ErrNotOpen
	}
	var out []DNSRecord
	for _, e := range c.domain.Records() {
		if e.MarkedForDeletion() || (rtype != "" && e.Type != rtype) {
			continue
		}
		out = append(out, DNSRecord{ID: e.ID.Key(), Record: e.Record})
	}
	return out, nil
}

func (c *CCP) AddRecord(ctx context.Context, record DNSRecord) error {
	if c.domain == nil {
		return ErrNotOpen
	}
	_, err := c.domain.AddRecord(record.Host, record.Type, record.Destination, record.Priority)
	return err
}

// DelRecord removes by ID when one is given, otherwise every live record matching host, type and destination.
func (c *CCP) DelRecord(ctx context.Context, record DNSRecord) error {
	if c.domain == nil {
		return ErrNotOpen
	}
	if record.ID != "" {
		id, err := zone.ParseRecordID(record.ID)
		if err != nil {
			return err
		}
		return c.domain.RemoveRecord(id)
	}

	found, err := c.domain.Search(record.Host, record.Type)
	if err != nil {
		return err
	}
	removed := 0
	for _, e := range found {
		if e.MarkedForDeletion() || (record.Destination != "" && e.Destination != record.Destination) {
			continue
		}
		if err := c.domain.RemoveRecord(e.ID); err != nil {
			return err
		}
		removed++
	}
	if removed == 0 {
		return errors.Wrapf(zone.ErrRecordNotFound, "%s %s", record.Host, record.Type)
	}
	return nil
}

func (c *CCP) SetSettings(ctx context.Context, s ZoneSettings) error {
	if c.domain == nil {
		return ErrNotOpen
	}
	setters := []struct {
		v   *int
		set func(int) error
	}{
		{s.TTL, c.domain.SetTTL},
		{s.Retry, c.domain.SetRetry},
		{s.Expire, c.domain.SetExpire},
		{s.Refresh, c.domain.SetRefresh},
	}
	for _, st := range setters {
		if st.v == nil {
			continue
		}
		if err := st.set(*st.v); err != nil {
			return err
		}
	}
	if s.DNSSEC != nil {
		c.domain.SetDNSSEC(*s.DNSSEC)
	}
	return nil
}

func (c *CCP) CommitRecords(ctx context.Context) error {
	if c.domain == nil {
		return ErrNotOpen
	}
	return c.panel.SaveDomain(ctx, c.domain)
}

func (c *CCP) Propagated(ctx context.Context) (bool, error) {
	if c.domain == nil {
		return false, ErrNotOpen
	}
	return c.panel.IsRecordLive(ctx, c.ref.ID)
}
