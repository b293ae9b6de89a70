package certbot

import (
	"testing"

	"github.com/pkg/errors"
	dnsadapters "github.com/sergds/ccpdns/internal/adapters/dns"
	"github.com/sergds/ccpdns/internal/scrape"
	"github.com/sergds/ccpdns/internal/zone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHost(t *testing.T) {
	cases := []struct {
		domain, zone, host string
	}{
		{"example.org", "example.org", "_acme-challenge"},
		{"*.example.org", "example.org", "_acme-challenge"},
		{"www.example.org", "example.org", "_acme-challenge.www"},
		{"*.a.b.example.org.", "example.org", "_acme-challenge.a.b"},
		{"WWW.Example.org", "example.org.", "_acme-challenge.www"},
	}
	for _, tc := range cases {
		host, err := Challenge{Domain: tc.domain, Validation: "v"}.Host(tc.zone)
		require.NoError(t, err, tc.domain)
		assert.Equal(t, tc.host, host, tc.domain)
	}

	_, err := Challenge{Domain: "notexample.org"}.Host("example.org")
	assert.True(t, errors.Is(err, ErrNoZone))
}

func TestSearchAndZone(t *testing.T) {
	c := Challenge{Domain: "*.www.sub.example.org", Validation: "v"}
	assert.Equal(t, "example.org", c.Search())
	assert.Equal(t, "example.org", Challenge{Domain: "example.org"}.Search())

	zones := []scrape.DomainRef{
		{ID: "1", Name: "example.org"},
		{ID: "2", Name: "sub.example.org"},
		{ID: "3", Name: "other.org"},
	}
	z, err := c.Zone(zones)
	require.NoError(t, err)
	assert.Equal(t, "2", z.ID)

	z, err = Challenge{Domain: "example.org"}.Zone(zones)
	require.NoError(t, err)
	assert.Equal(t, "1", z.ID)

	z, err = Challenge{Domain: "www.sub.example.org"}.Zone([]scrape.DomainRef{
		{ID: "1", Name: "Example.org."},
		{ID: "2", Name: "sub.example.org."},
		{ID: "3", Name: "example.org"},
	})
	require.NoError(t, err)
	assert.Equal(t, "2", z.ID)

	_, err = Challenge{Domain: "badexample.org"}.Zone(zones)
	assert.True(t, errors.Is(err, ErrNoZone))
}

func TestPlaybooks(t *testing.T) {
	c := Challenge{Domain: "www.example.org", Validation: "token"}
	want := zone.Record{Host: "_acme-challenge.www", Type: zone.TypeTXT, Destination: "token"}

	deploy, err := c.Deploy("example.org")
	require.NoError(t, err)
	require.NoError(t, deploy.Validate())
	assert.Equal(t, []zone.Record{want}, deploy.Present)

	cleanup, err := c.Cleanup("example.org")
	require.NoError(t, err)
	add, del := cleanup.Plan([]dnsadapters.DNSRecord{
		{ID: "record[1]", Record: want},
		{ID: "record[2]", Record: zone.Record{Host: "_acme-challenge.www", Type: zone.TypeTXT, Destination: "other"}},
	})
	assert.Empty(t, add)
	require.Len(t, del, 1)
	assert.Equal(t, "record[1]", del[0].ID)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("CERTBOT_DOMAIN", "example.org")
	t.Setenv("CERTBOT_VALIDATION", "")
	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("CERTBOT_VALIDATION", "token")
	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, Challenge{Domain: "example.org", Validation: "token"}, c)
}
