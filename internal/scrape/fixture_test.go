package scrape

import (
	"fmt"
	"strings"
)

type row struct {
	key, host, rtype, pri, dest string
}

type page struct {
	id         string
	serial     string
	timings    bool
	webhosting bool
	dnssec     string // "", "on", "off"
	rows       []row
	extraTable bool
	nested     bool
}

var types = []string{"A", "AAAA", "MX", "CNAME", "TXT", "SRV", "NS", "CAA"}

func (r row) html() string {
	var b strings.Builder
	fmt.Fprintf(&b, `<tr><td><input type="text" name="%s[host]" value="%s"></td><td><select name="%s[type]">`, r.key, r.host, r.key)
	for _, t := range types {
		sel := ""
		if t == r.rtype {
			sel = ` selected="selected"`
		}
		fmt.Fprintf(&b, `<option value="%s"%s>%s</option>`, t, sel, t)
	}
	fmt.Fprintf(&b, `</select></td><td><input type="text" name="%s[pri]" value="%s"></td>`, r.key, r.pri)
	fmt.Fprintf(&b, `<td><input type="text" name="%s[destination]" value="%s"></td><td><input type="checkbox" name="%s[delete]"></td></tr>`, r.key, r.dest, r.key)
	return b.String()
}

func (p page) html() string {
	var b strings.Builder
	b.WriteString(`<html><body><script>var sessionhash = "abc"; var nocsrftoken = "def";</script>`)
	fmt.Fprintf(&b, `<div id="domainsdetail_detail_dns_%s"><form>`, p.id)
	fmt.Fprintf(&b, `<input type="hidden" name="zone" value="example.org"><input type="hidden" name="zoneid" value="777"><input type="hidden" name="serial" value="%s">`, p.serial)

	b.WriteString(`<table class="settings"><tr><th>Setting</th></tr>`)
	if p.timings {
		for _, kv := range [][2]string{{"ttl", "3600"}, {"retry", "600"}, {"expire", "86400"}, {"refresh", "1800"}} {
			fmt.Fprintf(&b, `<tr><td><input name="zone_settings_%s_%s" value="%s"></td></tr>`, kv[0], p.id, kv[1])
		}
	}
	switch p.dnssec {
	case "on":
		fmt.Fprintf(&b, `<tr><td><input type="checkbox" id="dnssecenabled_%s" checked></td></tr>`, p.id)
	case "off":
		fmt.Fprintf(&b, `<tr><td><input type="checkbox" id="dnssecenabled_%s"></td></tr>`, p.id)
	}
	if p.nested {
		b.WriteString(`<tr><td><table><tr><td><input name="help[host]" value="ignored"></td></tr></table></td></tr>`)
	}
	b.WriteString(`</table>`)

	b.WriteString(`<table class="records"><tr><th>Host</th><th>Typ</th><th>MX</th><th>Ziel</th><th>Löschen</th></tr>`)
	for _, r := range p.rows {
		b.WriteString(r.html())
	}
	b.WriteString(`<tr><td><input name="new[0][host]" value=""></td><td></td><td></td><td></td></tr>`)
	if p.webhosting {
		fmt.Fprintf(&b, `<tr><td colspan="5"><label id="restoredefaultslabel_%s">Standard wiederherstellen</label></td></tr>`, p.id)
		b.WriteString(`<tr><td colspan="5">Webhosting Einträge</td></tr>`)
	}
	b.WriteString(`<tr><td colspan="5"><input type="submit" name="submit" value="DNS Records speichern"></td></tr></table>`)

	if p.extraTable {
		b.WriteString(`<table><tr><td><input name="record[9][host]" value="dup"></td></tr></table>`)
	}
	b.WriteString(`</form></div><table><tr><td>yes</td></tr></table></body></html>`)
	return b.String()
}

func basicPage() page {
	return page{
		id: "4711", serial: "2024050101", timings: true, dnssec: "on",
		rows: []row{
			{"record[100]", "@", "A", "", "192.0.2.1"},
			{"record[101]", "www", "CNAME", "", "@"},
			{"record[102]", "@", "MX", "10", "mx.example.org"},
			{"record[103]", "", "TXT", "", "blank placeholder"},
		},
	}
}
