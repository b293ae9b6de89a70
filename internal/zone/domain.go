package zone

import (
	"github.com/pkg/errors"
)

// Defaults the panel uses when a zone has never been tuned.
const (
	DefaultTTL     = 86400
	DefaultRetry   = 7200
	DefaultExpire  = 1209600
	DefaultRefresh = 28800
)

type DNSSEC int

const (
	DNSSECUnknown DNSSEC = iota
	DNSSECEnabled
	DNSSECDisabled
)

func (d DNSSEC) Known() bool { return d != DNSSECUnknown }

func (d DNSSEC) String() string {
	switch d {
	case DNSSECEnabled:
		return "enabled"
	case DNSSECDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Settings is the zone level part of a domain snapshot.
type Settings struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	ZoneID     string `yaml:"zoneid"`
	Serial     string `yaml:"serial"`
	DNSSEC     DNSSEC `yaml:"-"`
	Webhosting bool   `yaml:"webhosting"`
	TTL        int    `yaml:"ttl"`
	Retry      int    `yaml:"retry"`
	Expire     int    `yaml:"expire"`
	Refresh    int    `yaml:"refresh"`
}

// Domain is one zone as last seen on the panel plus whatever the caller changed since.
// Only the extractor creates them (through Restore); ccp.SaveDomain consumes them.
// Not safe for concurrent use.
type Domain struct {
	settings Settings
	changed  bool
	newcount int
	order    []RecordID
	records  map[RecordID]*Record
}

// Restore builds a clean snapshot from extracted data. Entries must carry remote ids.
func Restore(settings Settings, entries []Entry) (*Domain, error) {
	d := &Domain{settings: settings}
	if err := d.load(entries); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Domain) load(entries []Entry) error {
	order := make([]RecordID, 0, len(entries))
	records := make(map[RecordID]*Record, len(entries))
	for _, e := range entries {
		if e.ID.IsZero() || e.ID.IsLocal() {
			return errors.Errorf("record %q has no server id", e.ID)
		}
		if _, dup := records[e.ID]; dup {
			return errors.Errorf("duplicate record id %q", e.ID)
		}
		if err := e.Record.validate(); err != nil {
			return errors.Wrapf(err, "record %q", e.ID)
		}
		rec := e.Record
		rec.Delete = ""
		records[e.ID] = &rec
		order = append(order, e.ID)
	}
	d.order = order
	d.records = records
	return nil
}

func (d *Domain) ID() string         { return d.settings.ID }
func (d *Domain) Name() string       { return d.settings.Name }
func (d *Domain) ZoneID() string     { return d.settings.ZoneID }
func (d *Domain) Serial() string     { return d.settings.Serial }
func (d *Domain) DNSSEC() DNSSEC     { return d.settings.DNSSEC }
func (d *Domain) Webhosting() bool   { return d.settings.Webhosting }
func (d *Domain) TTL() int           { return d.settings.TTL }
func (d *Domain) Retry() int         { return d.settings.Retry }
func (d *Domain) Expire() int        { return d.settings.Expire }
func (d *Domain) Refresh() int       { return d.settings.Refresh }
func (d *Domain) Settings() Settings { return d.settings }

// Changed reports unsaved local mutations. A clean domain is never sent.
func (d *Domain) Changed() bool { return d.changed }

func (d *Domain) SetDNSSEC(enabled bool) {
	if enabled {
		d.settings.DNSSEC = DNSSECEnabled
	} else {
		d.settings.DNSSEC = DNSSECDisabled
	}
	d.changed = true
}

func (d *Domain) SetTTL(v int) error     { return d.setTiming("ttl", &d.settings.TTL, v) }
func (d *Domain) SetRetry(v int) error   { return d.setTiming("retry", &d.settings.Retry, v) }
func (d *Domain) SetExpire(v int) error  { return d.setTiming("expire", &d.settings.Expire, v) }
func (d *Domain) SetRefresh(v int) error { return d.setTiming("refresh", &d.settings.Refresh, v) }

func (d *Domain) setTiming(field string, dst *int, v int) error {
	if v < 1 {
		return &InputTypeError{Field: field, Value: v, Reason: "must be a positive integer"}
	}
	*dst = v
	d.changed = true
	return nil
}

// AddRecord stores a new record under a fresh local id and returns that id.
func (d *Domain) AddRecord(host string, rtype RecordType, destination string, priority int) (RecordID, error) {
	id := Local(d.newcount)
	if err := d.put(id, Record{Host: host, Type: rtype, Destination: destination, Priority: priority}); err != nil {
		return RecordID{}, err
	}
	d.newcount++
	return id, nil
}

// AddRecordWithID stores a record under an explicit id, replacing whatever was there.
func (d *Domain) AddRecordWithID(id RecordID, host string, rtype RecordType, destination string, priority int) (RecordID, error) {
	if id.IsZero() {
		return RecordID{}, errors.New("empty record id")
	}
	if err := d.put(id, Record{Host: host, Type: rtype, Destination: destination, Priority: priority}); err != nil {
		return RecordID{}, err
	}
	if id.IsLocal() && id.seq >= d.newcount {
		d.newcount = id.seq + 1
	}
	return id, nil
}

func (d *Domain) put(id RecordID, rec Record) error {
	if err := rec.validate(); err != nil {
		return err
	}
	if d.records == nil {
		d.records = make(map[RecordID]*Record)
	}
	if _, ok := d.records[id]; !ok {
		d.order = append(d.order, id)
	}
	d.records[id] = &rec
	d.changed = true
	return nil
}

// SetRecord overwrites the non-nil fields of rec. It returns false if id is unknown.
func (d *Domain) SetRecord(id RecordID, upd RecordUpdate) (bool, error) {
	if upd.Type != nil && !upd.Type.Valid() {
		return false, &InvalidRecordTypeError{Type: string(*upd.Type)}
	}
	if upd.Priority != nil && *upd.Priority < 0 {
		return false, &InputTypeError{Field: "priority", Value: *upd.Priority, Reason: "must not be negative"}
	}
	rec, ok := d.records[id]
	if !ok {
		return false, nil
	}
	if upd.Host != nil {
		rec.Host = *upd.Host
	}
	if upd.Type != nil {
		rec.Type = *upd.Type
	}
	if upd.Destination != nil {
		rec.Destination = *upd.Destination
	}
	if upd.Priority != nil {
		rec.Priority = *upd.Priority
	}
	d.changed = true
	return true, nil
}

// RemoveRecord drops a local record outright. A server record stays until the
// next successful save, carrying the marker that tells the panel to delete it.
func (d *Domain) RemoveRecord(id RecordID) error {
	rec, ok := d.records[id]
	if !ok {
		return errors.Wrapf(ErrRecordNotFound, "remove %s", id)
	}
	if id.IsLocal() {
		delete(d.records, id)
		d.order = without(d.order, id)
	} else {
		rec.Delete = id.deleteMarker()
	}
	d.changed = true
	return nil
}

func (d *Domain) Record(id RecordID) (Record, bool) {
	rec, ok := d.records[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Records returns copies of all entries, including ones marked for deletion, in document order.
func (d *Domain) Records() []Entry {
	out := make([]Entry, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, Entry{ID: id, Record: *d.records[id]})
	}
	return out
}

// Search matches host and type exactly. Entries marked for deletion are included.
func (d *Domain) Search(host string, rtype RecordType) ([]Entry, error) {
	if !rtype.Valid() {
		return nil, &InvalidRecordTypeError{Type: string(rtype)}
	}
	var found []Entry
	for _, id := range d.order {
		rec := d.records[id]
		if rec.Host == host && rec.Type == rtype {
			found = append(found, Entry{ID: id, Record: *rec})
		}
	}
	return found, nil
}

// Commit records a successful save: the serial is the one the panel returned.
// With fresh entries (the panel echoed the zone back) they replace the local view.
// Without them deleted entries are dropped and so are pending local ones, since
// their server ids are unknown until the domain is fetched again.
func (d *Domain) Commit(serial string, fresh []Entry) error {
	if serial == "" {
		return errors.New("empty serial")
	}
	if fresh != nil {
		if err := d.load(fresh); err != nil {
			return err
		}
	} else {
		kept := d.order[:0]
		for _, id := range d.order {
			if id.IsLocal() || d.records[id].MarkedForDeletion() {
				delete(d.records, id)
				continue
			}
			kept = append(kept, id)
		}
		d.order = kept
	}
	d.settings.Serial = serial
	d.newcount = 0
	d.changed = false
	return nil
}

func without(ids []RecordID, id RecordID) []RecordID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
