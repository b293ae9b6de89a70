package dns

import (
	"strings"

	"github.com/pkg/errors"
)

// NewDNSAdapter picks an adapter by name. panel is only needed by "ccp", the default.
func NewDNSAdapter(name string, panel Panel) (DNSAdapter, error) {
	switch strings.ToLower(name) {
	case "", "ccp", "netcup":
		if panel == nil {
			return nil, errors.New("ccp adapter needs a started connection")
		}
		return newCCP(panel), nil
	case "null":
		return newNullDNS(), nil
	default:
		return nil, errors.Errorf("unknown dns adapter %q", name)
	}
}
