package ccp

import (
	"net/url"
	"strconv"

	"github.com/sergds/ccpdns/internal/zone"
)

// BuildPayload renders the zone edit form exactly as the panel's own page submits it.
func BuildPayload(d *zone.Domain) url.Values {
	id := d.ID()
	v := url.Values{}
	v.Set("zone", d.Name())
	v.Set("zoneid", d.ZoneID())
	v.Set("serial", d.Serial())
	v.Set("order", "")
	v.Set("formchanged", "")
	v.Set("zone_settings_ttl_"+id, strconv.Itoa(d.TTL()))
	v.Set("zone_settings_expire_"+id, strconv.Itoa(d.Expire()))
	v.Set("zone_settings_retry_"+id, strconv.Itoa(d.Retry()))
	v.Set("zone_settings_refresh_"+id, strconv.Itoa(d.Refresh()))
	v.Set("restoredefaults_"+id, "false")
	v.Set("submit", "DNS Records speichern")

	// The form field is inverted: the panel reads it as "was enabled before".
	if d.DNSSEC().Known() {
		v.Set("dnssecenabled", strconv.FormatBool(d.DNSSEC() != zone.DNSSECEnabled))
	}

	for _, e := range d.Records() {
		key := e.ID.Key()
		v.Set(key+"[host]", e.Host)
		v.Set(key+"[type]", string(e.Type))
		v.Set(key+"[pri]", strconv.Itoa(e.Priority))
		v.Set(key+"[destination]", e.Destination)
		if e.MarkedForDeletion() {
			v.Set(key+"[delete]", e.Delete)
		}
	}
	return v
}
