package zone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecordType(t *testing.T) {
	rt, err := ParseRecordType(" txt ")
	require.NoError(t, err)
	assert.Equal(t, TypeTXT, rt)

	_, err = ParseRecordType("PTR")
	assert.Error(t, err)
}

func TestParseRemoteID(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		wantKey string
		wantErr bool
	}{
		{"server record", "record[123456][host]", "record[123456]", false},
		{"missing suffix", "record[123456]", "", true},
		{"only suffix", "[host]", "", true},
		{"local key", "new[0][host]", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := ParseRemoteID(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.False(t, id.IsLocal())
			assert.Equal(t, tc.wantKey, id.Key())
		})
	}
}

func TestParseRecordID(t *testing.T) {
	id, err := ParseRecordID("new[12]")
	require.NoError(t, err)
	assert.Equal(t, Local(12), id)

	id, err = ParseRecordID("record[5]")
	require.NoError(t, err)
	assert.Equal(t, Remote("record[5]"), id)

	_, err = ParseRecordID("new[x]")
	assert.Error(t, err)
	_, err = ParseRecordID("")
	assert.Error(t, err)
}

func TestLocalAndRemoteNeverCollide(t *testing.T) {
	assert.NotEqual(t, Local(0), Remote("new[0]"))
	assert.True(t, RecordID{}.IsZero())
}

func TestDeleteMarker(t *testing.T) {
	assert.Equal(t, "123456", Remote("record[123456]").deleteMarker())
	assert.Equal(t, "plain", Remote("plain").deleteMarker())
}
