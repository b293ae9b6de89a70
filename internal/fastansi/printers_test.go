package fastansi

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainStatus(t *testing.T) {
	var buf bytes.Buffer
	sp := NewStatusPrinter(&buf, true)
	sp.PushLines(2)
	sp.Status(1, "Fetching zone")
	sp.Status(1, "Fetching zone")
	sp.Status(0, "example.org has ", 3, " records")
	sp.Status(0, "")
	sp.Println("done")
	assert.Equal(t, "Fetching zone\nexample.org has 3 records\ndone\n", buf.String())
}

func TestANSIStatus(t *testing.T) {
	var buf bytes.Buffer
	sp := NewStatusPrinter(&buf, false)
	sp.PushLines(2)
	sp.Status(1, "hi")
	assert.Equal(t, "\n\n\x1b[0E\x1b[2A\x1b[Khi\x1b[2B\x1b[0E", buf.String())
}
