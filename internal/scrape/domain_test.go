package scrape

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/sergds/ccpdns/internal/zone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireChanged(t *testing.T, err error) {
	t.Helper()
	var sc *StructureChangedError
	require.Error(t, err)
	assert.True(t, errors.As(err, &sc), "want StructureChangedError, got %T: %v", err, err)
}

func TestExtractDomain(t *testing.T) {
	d, err := ExtractDomain("4711", basicPage().html())
	require.NoError(t, err)

	assert.Equal(t, "4711", d.ID())
	assert.Equal(t, "example.org", d.Name())
	assert.Equal(t, "777", d.ZoneID())
	assert.Equal(t, "2024050101", d.Serial())
	assert.Equal(t, zone.DNSSECEnabled, d.DNSSEC())
	assert.False(t, d.Webhosting())
	assert.Equal(t, 3600, d.TTL())
	assert.Equal(t, 600, d.Retry())
	assert.Equal(t, 86400, d.Expire())
	assert.Equal(t, 1800, d.Refresh())
	assert.False(t, d.Changed())

	want := []zone.Entry{
		{ID: zone.Remote("record[100]"), Record: zone.Record{Host: "@", Type: zone.TypeA, Destination: "192.0.2.1"}},
		{ID: zone.Remote("record[101]"), Record: zone.Record{Host: "www", Type: zone.TypeCNAME, Destination: "@"}},
		{ID: zone.Remote("record[102]"), Record: zone.Record{Host: "@", Type: zone.TypeMX, Destination: "mx.example.org", Priority: 10}},
	}
	assert.Equal(t, want, d.Records())
}

func TestExtractWebhostingZone(t *testing.T) {
	p := basicPage()
	p.webhosting = true
	d, err := ExtractDomain("4711", p.html())
	require.NoError(t, err)

	assert.True(t, d.Webhosting())
	assert.Len(t, d.Records(), 3)
}

func TestExtractDNSSECTriState(t *testing.T) {
	testCases := []struct {
		box  string
		want zone.DNSSEC
	}{
		{"on", zone.DNSSECEnabled},
		{"off", zone.DNSSECDisabled},
		{"", zone.DNSSECUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.want.String(), func(t *testing.T) {
			p := basicPage()
			p.dnssec = tc.box
			d, err := ExtractDomain("4711", p.html())
			require.NoError(t, err)
			assert.Equal(t, tc.want, d.DNSSEC())
		})
	}
}

func TestExtractDefaultsTimings(t *testing.T) {
	p := basicPage()
	p.timings = false
	d, err := ExtractDomain("4711", p.html())
	require.NoError(t, err)

	assert.Equal(t, zone.DefaultTTL, d.TTL())
	assert.Equal(t, zone.DefaultRetry, d.Retry())
	assert.Equal(t, zone.DefaultExpire, d.Expire())
	assert.Equal(t, zone.DefaultRefresh, d.Refresh())
}

func TestExtractIgnoresNestedTables(t *testing.T) {
	p := basicPage()
	p.nested = true
	d, err := ExtractDomain("4711", p.html())
	require.NoError(t, err)
	assert.Len(t, d.Records(), 3)
}

func TestExtractEmptyZone(t *testing.T) {
	p := basicPage()
	p.rows = []row{{"record[1]", "", "A", "", ""}}
	d, err := ExtractDomain("4711", p.html())
	require.NoError(t, err)
	assert.Empty(t, d.Records())
}

func TestExtractStructureChanged(t *testing.T) {
	testCases := []struct {
		name   string
		id     string
		mutate func(p *page)
	}{
		{"other domain", "1234", func(p *page) {}},
		{"two record tables", "4711", func(p *page) { p.extraTable = true }},
		{"empty serial", "4711", func(p *page) { p.serial = "" }},
		{"bad priority", "4711", func(p *page) { p.rows[2].pri = "ten" }},
		{"unknown type", "4711", func(p *page) { p.rows[0].rtype = "PTR" }},
		{"malformed id", "4711", func(p *page) { p.rows[0].key = "new[4]" }},
		{"duplicate id", "4711", func(p *page) { p.rows[1].key = "record[100]" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := basicPage()
			tc.mutate(&p)
			d, err := ExtractDomain(tc.id, p.html())
			assert.Nil(t, d)
			requireChanged(t, err)
		})
	}
}

func TestExtractRecordsFromSaveResponse(t *testing.T) {
	body := basicPage().html()
	assert.True(t, HasDomain("4711", body))
	assert.False(t, HasDomain("1", body))

	entries, err := ExtractRecords("4711", body)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestExtractSerial(t *testing.T) {
	serial, err := ExtractSerial(`<p>Eintrag erfolgreich!</p><input type="hidden" name="serial" value=" 2024050102 ">`)
	require.NoError(t, err)
	assert.Equal(t, "2024050102", serial)

	_, err = ExtractSerial(`<p>Eintrag erfolgreich!</p>`)
	requireChanged(t, err)
}
