package playbook

import (
	"os"

	"github.com/pkg/errors"
	dnsadapters "github.com/sergds/ccpdns/internal/adapters/dns"
	"github.com/sergds/ccpdns/internal/zone"
	"gopkg.in/yaml.v3"
)

// Playbook is the desired state of one zone. Records under Present are created unless
// an identical one exists, records under Absent are removed (an empty destination
// matches any). With Replace set, records sharing host and type with a Present entry
// but pointing elsewhere are removed too.
type Playbook struct {
	Name     string                   `yaml:"name"`
	Domain   string                   `yaml:"domain"`
	Adapter  string                   `yaml:"adapter,omitempty"`
	Replace  bool                     `yaml:"replace,omitempty"`
	Settings dnsadapters.ZoneSettings `yaml:"settings,omitempty"`
	Present  []zone.Record            `yaml:"present,omitempty"`
	Absent   []zone.Record            `yaml:"absent,omitempty"`
}

func Parse(pbyaml string) (*Playbook, error) {
	pb := &Playbook{}
	err := yaml.Unmarshal([]byte(pbyaml), pb)
	if err != nil {
		return nil, errors.Wrap(err, "parse playbook")
	}
	if err := pb.Validate(); err != nil {
		return nil, err
	}
	return pb, nil
}

func Load(path string) (*Playbook, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read playbook")
	}
	return Parse(string(raw))
}

func (pb *Playbook) Validate() error {
	if pb.Domain == "" {
		return errors.New("playbook has no domain")
	}
	if pb.Name == "" {
		pb.Name = pb.Domain
	}
	for _, r := range pb.Present {
		if r.Host == "" || r.Destination == "" {
			return errors.Errorf("present record %q needs host and destination", r.String())
		}
		if !r.Type.Valid() {
			return &zone.InvalidRecordTypeError{Type: string(r.Type)}
		}
		if r.Priority < 0 {
			return &zone.InputTypeError{Field: "priority", Value: r.Priority, Reason: "must not be negative"}
		}
	}
	for _, r := range pb.Absent {
		if r.Host == "" {
			return errors.New("absent record needs a host")
		}
		if !r.Type.Valid() {
			return &zone.InvalidRecordTypeError{Type: string(r.Type)}
		}
	}
	for _, v := range []*int{pb.Settings.TTL, pb.Settings.Retry, pb.Settings.Expire, pb.Settings.Refresh} {
		if v != nil && *v < 1 {
			return &zone.InputTypeError{Field: "settings", Value: *v, Reason: "must be at least 1"}
		}
	}
	return nil
}

// Plan diffs the playbook against the records currently in the zone.
// Records are deleted by the id the adapter gave them.
func (pb *Playbook) Plan(current []dnsadapters.DNSRecord) (add, del []dnsadapters.DNSRecord) {
	gone := map[string]bool{}
	drop := func(r dnsadapters.DNSRecord) {
		if gone[r.ID] {
			return
		}
		gone[r.ID] = true
		del = append(del, r)
	}

	for _, want := range pb.Absent {
		for _, r := range current {
			if r.Matches(want) {
				drop(r)
			}
		}
	}

	for _, want := range pb.Present {
		exists := false
		for _, r := range current {
			if gone[r.ID] {
				continue
			}
			if r.Matches(want) && r.Priority == want.Priority {
				exists = true
				continue
			}
			if pb.Replace && r.Host == want.Host && r.Type == want.Type && !pb.wants(r.Record) {
				drop(r)
			}
		}
		if !exists && !planned(add, want) {
			add = append(add, dnsadapters.DNSRecord{Record: want})
		}
	}
	return add, del
}

func (pb *Playbook) wants(r zone.Record) bool {
	for _, want := range pb.Present {
		if r.Host == want.Host && r.Type == want.Type && r.Destination == want.Destination && r.Priority == want.Priority {
			return true
		}
	}
	return false
}

func planned(add []dnsadapters.DNSRecord, want zone.Record) bool {
	for _, a := range add {
		if a.Record == want {
			return true
		}
	}
	return false
}
