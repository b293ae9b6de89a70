package scrape

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"github.com/sergds/ccpdns/internal/zone"
	"golang.org/x/net/html"
)

const (
	containerPrefix = "domainsdetail_detail_dns_"
	hostSuffix      = "[host]"
)

func parse(body string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "parse html")
	}
	return doc, nil
}

func byAttr(sel *goquery.Selection, attr, value string) *goquery.Selection {
	return sel.FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, ok := s.Attr(attr)
		return ok && v == value
	}).First()
}

func container(doc *goquery.Document, id string) *goquery.Selection {
	return byAttr(doc.Find("div"), "id", containerPrefix+id)
}

// HasDomain reports whether body carries the detail container of domain id.
func HasDomain(id, body string) bool {
	doc, err := parse(body)
	if err != nil {
		return false
	}
	return container(doc, id).Length() == 1
}

// ExtractDomain builds a clean snapshot of domain id from its detail page.
func ExtractDomain(id, body string) (*zone.Domain, error) {
	doc, err := parse(body)
	if err != nil {
		return nil, err
	}
	div := container(doc, id)
	if div.Length() == 0 {
		return nil, changed("no dns container for domain %s", id)
	}

	settings, err := extractSettings(div, id)
	if err != nil {
		return nil, err
	}
	entries, err := extractRecords(div, settings.Webhosting)
	if err != nil {
		return nil, err
	}
	d, err := zone.Restore(settings, entries)
	if err != nil {
		return nil, &StructureChangedError{What: "record table", Err: err}
	}
	return d, nil
}

// ExtractRecords reads only the record table of domain id, as echoed by a save.
func ExtractRecords(id, body string) ([]zone.Entry, error) {
	doc, err := parse(body)
	if err != nil {
		return nil, err
	}
	div := container(doc, id)
	if div.Length() == 0 {
		return nil, changed("no dns container for domain %s", id)
	}
	webhosting := isWebhosting(div, id)
	return extractRecords(div, webhosting)
}

func isWebhosting(div *goquery.Selection, id string) bool {
	markup, err := goquery.OuterHtml(div)
	return err == nil && strings.Contains(markup, "restoredefaultslabel_"+id)
}

func extractSettings(div *goquery.Selection, id string) (zone.Settings, error) {
	s := zone.Settings{ID: id, Webhosting: isWebhosting(div, id)}
	inputs := div.Find("input")

	required := map[string]*string{"zone": &s.Name, "zoneid": &s.ZoneID, "serial": &s.Serial}
	for _, name := range []string{"zone", "zoneid", "serial"} {
		in := byAttr(inputs, "name", name)
		if in.Length() == 0 {
			return s, changed("no %s input", name)
		}
		*required[name] = strings.TrimSpace(in.AttrOr("value", ""))
	}
	if s.Serial == "" {
		return s, changed("empty serial")
	}

	timings := []struct {
		name string
		dst  *int
		def  int
	}{
		{"ttl", &s.TTL, zone.DefaultTTL},
		{"retry", &s.Retry, zone.DefaultRetry},
		{"expire", &s.Expire, zone.DefaultExpire},
		{"refresh", &s.Refresh, zone.DefaultRefresh},
	}
	for _, tm := range timings {
		*tm.dst = tm.def
		in := byAttr(inputs, "name", "zone_settings_"+tm.name+"_"+id)
		v := strings.TrimSpace(in.AttrOr("value", ""))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return s, changed("%s value %q", tm.name, v)
		}
		*tm.dst = n
	}

	if box := byAttr(inputs, "id", "dnssecenabled_"+id); box.Length() > 0 {
		if _, checked := box.Attr("checked"); checked {
			s.DNSSEC = zone.DNSSECEnabled
		} else {
			s.DNSSEC = zone.DNSSECDisabled
		}
	}
	return s, nil
}

func isHostInput(_ int, s *goquery.Selection) bool {
	return strings.HasSuffix(s.AttrOr("name", ""), hostSuffix)
}

// owns reports whether table is the nearest table around s.
func owns(table *html.Node, s *goquery.Selection) bool {
	return s.Closest("table").Get(0) == table
}

// recordTable picks the one top level table whose own rows carry record host inputs.
func recordTable(div *goquery.Selection) (*goquery.Selection, error) {
	var found []*goquery.Selection
	div.Find("table").Each(func(_ int, t *goquery.Selection) {
		if t.ParentsUntilSelection(div).Filter("table").Length() > 0 {
			return
		}
		node := t.Get(0)
		hosts := t.Find("input").FilterFunction(isHostInput).FilterFunction(func(_ int, in *goquery.Selection) bool {
			return owns(node, in)
		})
		if hosts.Length() > 0 {
			found = append(found, t)
		}
	})
	switch len(found) {
	case 0:
		return nil, changed("no record table")
	case 1:
		return found[0], nil
	default:
		return nil, changed("%d candidate record tables", len(found))
	}
}

func extractRecords(div *goquery.Selection, webhosting bool) ([]zone.Entry, error) {
	table, err := recordTable(div)
	if err != nil {
		return nil, err
	}
	node := table.Get(0)
	rows := table.Find("tr").FilterFunction(func(_ int, r *goquery.Selection) bool {
		return owns(node, r)
	})

	// header row, then the add-record and submit rows; webhosting zones add two more
	trailer := 2
	if webhosting {
		trailer = 4
	}
	if rows.Length() < 1+trailer {
		return nil, changed("record table has %d rows", rows.Length())
	}

	var entries []zone.Entry
	var rowErr error
	rows.Slice(1, rows.Length()-trailer).EachWithBreak(func(i int, row *goquery.Selection) bool {
		e, ok, err := extractRow(row)
		if err != nil {
			rowErr = errors.Wrapf(err, "row %d", i+1)
			return false
		}
		if ok {
			entries = append(entries, e)
		}
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return entries, nil
}

func extractRow(row *goquery.Selection) (zone.Entry, bool, error) {
	cells := row.ChildrenFiltered("td")
	if cells.Length() < 4 {
		return zone.Entry{}, false, changed("%d cells", cells.Length())
	}

	hostIn := cells.Eq(0).Find("input").First()
	if hostIn.Length() == 0 {
		return zone.Entry{}, false, changed("no host input")
	}
	host := hostIn.AttrOr("value", "")
	if host == "" {
		return zone.Entry{}, false, nil
	}

	id, err := zone.ParseRemoteID(hostIn.AttrOr("name", ""))
	if err != nil {
		return zone.Entry{}, false, &StructureChangedError{What: "record id", Err: err}
	}

	selected := cells.Eq(1).Find("option").FilterFunction(func(_ int, o *goquery.Selection) bool {
		_, ok := o.Attr("selected")
		return ok
	}).First()
	if selected.Length() == 0 {
		return zone.Entry{}, false, changed("no selected type for %s", id)
	}
	rtype, err := zone.ParseRecordType(selected.AttrOr("value", selected.Text()))
	if err != nil {
		return zone.Entry{}, false, &StructureChangedError{What: "record type", Err: err}
	}

	priIn := cells.Eq(2).Find("input").First()
	if priIn.Length() == 0 {
		return zone.Entry{}, false, changed("no priority input for %s", id)
	}
	priority := 0
	if v := strings.TrimSpace(priIn.AttrOr("value", "")); v != "" {
		priority, err = strconv.Atoi(v)
		if err != nil || priority < 0 {
			return zone.Entry{}, false, changed("priority %q for %s", v, id)
		}
	}

	var destination string
	if in := cells.Eq(3).Find("input").First(); in.Length() > 0 {
		destination = in.AttrOr("value", "")
	} else if ta := cells.Eq(3).Find("textarea").First(); ta.Length() > 0 {
		destination = ta.Text()
	} else {
		return zone.Entry{}, false, changed("no destination input for %s", id)
	}

	return zone.Entry{ID: id, Record: zone.Record{
		Host:        host,
		Type:        rtype,
		Destination: destination,
		Priority:    priority,
	}}, true, nil
}

// ExtractSerial reads the zone serial a save response carries.
func ExtractSerial(body string) (string, error) {
	doc, err := parse(body)
	if err != nil {
		return "", err
	}
	in := byAttr(doc.Find("input"), "name", "serial")
	if in.Length() == 0 {
		return "", changed("no serial input")
	}
	serial := strings.TrimSpace(in.AttrOr("value", ""))
	if serial == "" {
		return "", changed("empty serial")
	}
	return serial, nil
}
