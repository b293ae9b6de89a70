package dns

import (
	"context"

	"github.com/sergds/ccpdns/internal/zone"
)

type DNSAdapter interface {
	Open(ctx context.Context, zoneName string) error                            // Select the zone every other call works on.
	GetRecords(ctx context.Context, rtype zone.RecordType) ([]DNSRecord, error) // Records of one type, or all when rtype is empty.
	AddRecord(ctx context.Context, record DNSRecord) error                      // Stage a new record
	DelRecord(ctx context.Context, record DNSRecord) error                      // Stage a deletion
	SetSettings(ctx context.Context, settings ZoneSettings) error               // Stage zone level changes
	CommitRecords(ctx context.Context) error                                    // Nothing reaches the zone before this.
	Propagated(ctx context.Context) (bool, error)                               // Whether the last commit is being served.
}
