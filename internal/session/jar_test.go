package session

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestJarRoundTrip(t *testing.T) {
	u, _ := url.Parse("https://ccp.example/run/start.php")
	path := filepath.Join(t.TempDir(), "cookies.db")

	jar, err := NewJar()
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{
		{Name: "PHPSESSID", Value: "abc", Path: "/"},
		{Name: "lang", Value: "de", Path: "/", MaxAge: 3600},
		{Name: "old", Value: "x", Path: "/", Expires: time.Now().Add(-time.Hour)},
	})
	assert.Equal(t, 2, jar.Len())
	require.NoError(t, jar.Save(path))

	loaded, err := NewJar()
	require.NoError(t, err)
	n, err := loaded.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got := loaded.Cookies(u)
	assert.True(t, hasCookie(got, "PHPSESSID"))
	assert.True(t, hasCookie(got, "lang"))
	assert.False(t, hasCookie(got, "old"))
}

func TestJarForgetsDeletedCookies(t *testing.T) {
	u, _ := url.Parse("https://ccp.example/")
	jar, _ := NewJar()
	jar.SetCookies(u, []*http.Cookie{{Name: "PHPSESSID", Value: "abc", Path: "/"}})
	jar.SetCookies(u, []*http.Cookie{{Name: "PHPSESSID", Value: "", Path: "/", MaxAge: -1}})
	assert.Equal(t, 0, jar.Len())
}

func TestJarSkipsExpiredOnLoad(t *testing.T) {
	u, _ := url.Parse("https://ccp.example/")
	path := filepath.Join(t.TempDir(), "cookies.db")

	jar, _ := NewJar()
	jar.SetCookies(u, []*http.Cookie{{Name: "short", Value: "1", Path: "/", MaxAge: 60}})
	require.NoError(t, jar.Save(path))

	later, _ := NewJar()
	later.now = func() time.Time { return time.Now().Add(time.Hour) }
	n, err := later.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestJarSaveReplacesCorruptCache(t *testing.T) {
	u, _ := url.Parse("https://ccp.example/")
	path := filepath.Join(t.TempDir(), "cookies.db")
	require.NoError(t, os.WriteFile(path, []byte("not a bolt file"), 0o600))

	jar, _ := NewJar()
	jar.SetCookies(u, []*http.Cookie{{Name: "PHPSESSID", Value: "abc", Path: "/"}})
	require.NoError(t, jar.Save(path))

	loaded, _ := NewJar()
	n, err := loaded.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestJarLoadMissingFile(t *testing.T) {
	jar, _ := NewJar()
	n, err := jar.Load(filepath.Join(t.TempDir(), "absent.db"))
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}

func response(encoding, contentType string, body []byte) *http.Response {
	h := http.Header{}
	h.Set("Content-Type", contentType)
	if encoding != "" {
		h.Set("Content-Encoding", encoding)
	}
	return &http.Response{StatusCode: 200, Header: h, Body: io.NopCloser(bytes.NewReader(body))}
}

func TestDecodeBody(t *testing.T) {
	page := "<p>Grüße</p>"

	var zl bytes.Buffer
	zw := zlib.NewWriter(&zl)
	zw.Write([]byte(page))
	zw.Close()

	var raw bytes.Buffer
	fw, _ := flate.NewWriter(&raw, flate.DefaultCompression)
	fw.Write([]byte(page))
	fw.Close()

	latin1, err := charmap.ISO8859_1.NewEncoder().String(page)
	require.NoError(t, err)

	testCases := []struct {
		name string
		resp *http.Response
	}{
		{"identity", response("", "text/html; charset=utf-8", []byte(page))},
		{"zlib deflate", response("deflate", "text/html; charset=utf-8", zl.Bytes())},
		{"raw deflate", response("deflate", "text/html; charset=utf-8", raw.Bytes())},
		{"latin1", response("", "text/html; charset=ISO-8859-1", []byte(latin1))},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeBody(tc.resp)
			require.NoError(t, err)
			assert.Equal(t, page, got)
		})
	}
}

func TestDecodeBodyUnknownEncoding(t *testing.T) {
	_, err := decodeBody(response("br", "text/html", []byte("x")))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "br"))
}
