package dns

import (
	"context"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"github.com/sergds/ccpdns/internal/zone"
)

// Null DNS Adapter. Keeps records in memory and never talks to anything.
// Usable for dry runs and as a skeleton for new adapters.
type NullDNS struct {
	mu      sync.Mutex
	zone    string
	next    int
	records []DNSRecord
	commits int
}

func newNullDNS(seed ...DNSRecord) *NullDNS {
	n := &NullDNS{}
	for _, r := range seed {
		n.add(r)
	}
	return n
}

func (n *NullDNS) add(r DNSRecord) {
	r.ID = "null[" + strconv.Itoa(n.next) + "]"
	n.next++
	n.records = append(n.records, r)
}

func (n *NullDNS) Open(ctx context.Context, zoneName string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.zone = zoneName
	return nil
}

func (n *NullDNS) GetRecords(ctx context.Context, rtype zone.RecordType) ([]DNSRecord, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := []DNSRecord{}
	for _, r := range n.records {
		if rtype == "" || r.Type == rtype {
			out = append(out, r)
		}
	}
	return out, nil
}

func (n *NullDNS) AddRecord(ctx context.Context, record DNSRecord) error {
	if !record.Type.Valid() {
		return &zone.InvalidRecordTypeError{Type: string(record.Type)}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.add(record)
	return nil
}

func (n *NullDNS) DelRecord(ctx context.Context, record DNSRecord) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	kept := n.records[:0]
	removed := 0
	for _, r := range n.records {
		hit := r.ID == record.ID
		if record.ID == "" {
			hit = r.Matches(record.Record)
		}
		if hit {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	n.records = kept
	if removed == 0 {
		return errors.Wrapf(zone.ErrRecordNotFound, "%s %s", record.Host, record.Type)
	}
	return nil
}

func (n *NullDNS) SetSettings(ctx context.Context, settings ZoneSettings) error { return nil }

func (n *NullDNS) CommitRecords(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.commits++
	return nil
}

func (n *NullDNS) Propagated(ctx context.Context) (bool, error) { return true, nil }

// Commits counts CommitRecords calls.
func (n *NullDNS) Commits() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.commits
}
