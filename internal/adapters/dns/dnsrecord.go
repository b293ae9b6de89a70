package dns

import (
	"github.com/sergds/ccpdns/internal/zone"
)

// DNSRecord is one record as an adapter sees it. ID is adapter specific and may
// be empty for records that do not exist yet.
type DNSRecord struct {
	ID string `yaml:"-" json:"id,omitempty"`
	zone.Record
}

// Matches compares host and type, and destination too when want has one.
func (r DNSRecord) Matches(want zone.Record) bool {
	if r.Host != want.Host || r.Type != want.Type {
		return false
	}
	return want.Destination == "" || r.Destination == want.Destination
}

// ZoneSettings are the zone level knobs; nil fields are left alone.
type ZoneSettings struct {
	TTL     *int  `yaml:"ttl,omitempty"`
	Retry   *int  `yaml:"retry,omitempty"`
	Expire  *int  `yaml:"expire,omitempty"`
	Refresh *int  `yaml:"refresh,omitempty"`
	DNSSEC  *bool `yaml:"dnssec,omitempty"`
}

func (s ZoneSettings) Empty() bool {
	return s.TTL == nil && s.Retry == nil && s.Expire == nil && s.Refresh == nil && s.DNSSEC == nil
}
