package zone

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type RecordType string

const (
	TypeA          RecordType = "A"
	TypeAAAA       RecordType = "AAAA"
	TypeMX         RecordType = "MX"
	TypeTXT        RecordType = "TXT"
	TypeCNAME      RecordType = "CNAME"
	TypeSRV        RecordType = "SRV"
	TypeNS         RecordType = "NS"
	TypeDS         RecordType = "DS"
	TypeTLSA       RecordType = "TLSA"
	TypeCAA        RecordType = "CAA"
	TypeSSHFP      RecordType = "SSHFP"
	TypeSMIMEA     RecordType = "SMIMEA"
	TypeOPENPGPKEY RecordType = "OPENPGPKEY"
)

// The panel's type dropdown. Anything else is refused before it reaches the wire.
var AllowedTypes = []RecordType{
	TypeA, TypeAAAA, TypeMX, TypeTXT, TypeCNAME, TypeSRV, TypeNS,
	TypeDS, TypeTLSA, TypeCAA, TypeSSHFP, TypeSMIMEA, TypeOPENPGPKEY,
}

func (t RecordType) Valid() bool {
	for _, a := range AllowedTypes {
		if t == a {
			return true
		}
	}
	return false
}

// ParseRecordType accepts any casing ("txt", "Txt") but only allow-listed types.
func ParseRecordType(s string) (RecordType, error) {
	t := RecordType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", &InvalidRecordTypeError{Type: s}
	}
	return t, nil
}

const (
	localPrefix = "new["
	hostSuffix  = "[host]"
)

// RecordID is either Local (created here, not yet known to the panel) or Remote
// (the panel's own key, e.g. "record[123456]"). The zero value is invalid.
type RecordID struct {
	local bool
	seq   int
	key   string
}

func Local(seq int) RecordID {
	return RecordID{local: true, seq: seq}
}

func Remote(key string) RecordID {
	return RecordID{key: key}
}

// ParseRemoteID recovers the record key from a host input name like "record[123456][host]".
func ParseRemoteID(inputName string) (RecordID, error) {
	if !strings.HasSuffix(inputName, hostSuffix) {
		return RecordID{}, errors.Errorf("input name %q does not end in %s", inputName, hostSuffix)
	}
	key := strings.TrimSuffix(inputName, hostSuffix)
	if key == "" || strings.HasPrefix(key, localPrefix) {
		return RecordID{}, errors.Errorf("input name %q is not a server record key", inputName)
	}
	return Remote(key), nil
}

// ParseRecordID turns a wire key back into an id: "new[3]" is local, anything else remote.
func ParseRecordID(key string) (RecordID, error) {
	if key == "" {
		return RecordID{}, errors.New("empty record id")
	}
	if strings.HasPrefix(key, localPrefix) && strings.HasSuffix(key, "]") {
		n, err := strconv.Atoi(key[len(localPrefix) : len(key)-1])
		if err != nil || n < 0 {
			return RecordID{}, errors.Errorf("malformed local record id %q", key)
		}
		return Local(n), nil
	}
	return Remote(key), nil
}

func (id RecordID) IsLocal() bool { return id.local }

func (id RecordID) IsZero() bool { return !id.local && id.key == "" }

// Key is the form field prefix the panel expects for this record.
func (id RecordID) Key() string {
	if id.local {
		return localPrefix + strconv.Itoa(id.seq) + "]"
	}
	return id.key
}

func (id RecordID) String() string { return id.Key() }

// deleteMarker is the numeric part between the last pair of brackets, which is
// what the panel wants in "<key>[delete]".
func (id RecordID) deleteMarker() string {
	open := strings.LastIndex(id.key, "[")
	if open < 0 || !strings.HasSuffix(id.key, "]") {
		return id.key
	}
	return id.key[open+1 : len(id.key)-1]
}

type Record struct {
	Host        string     `yaml:"host"`
	Type        RecordType `yaml:"type"`
	Destination string     `yaml:"destination"`
	Priority    int        `yaml:"priority,omitempty"`
	// Set on server records that will be deleted by the next save.
	Delete string `yaml:"delete,omitempty"`
}

func (r Record) MarkedForDeletion() bool { return r.Delete != "" }

func (r Record) String() string {
	s := fmt.Sprintf("%s\tIN\t%s\t%s", r.Host, r.Type, r.Destination)
	if r.Priority != 0 {
		s = fmt.Sprintf("%s\tIN\t%s\t%d %s", r.Host, r.Type, r.Priority, r.Destination)
	}
	return s
}

func (r Record) validate() error {
	if !r.Type.Valid() {
		return &InvalidRecordTypeError{Type: string(r.Type)}
	}
	if r.Priority < 0 {
		return &InputTypeError{Field: "priority", Value: r.Priority, Reason: "must not be negative"}
	}
	return nil
}

// Entry is a record together with the id it is stored under.
type Entry struct {
	ID RecordID
	Record
}

// RecordUpdate carries the fields SetRecord should overwrite; nil fields are left alone.
type RecordUpdate struct {
	Host        *string
	Type        *RecordType
	Destination *string
	Priority    *int
}
