package session

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// The panel serves a different (and partly broken) page to unknown clients.
const (
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.36 Edge/16.16299"
	acceptHeader   = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8"
	acceptEncoding = "gzip, deflate"
)

type transport struct {
	client   *http.Client
	endpoint *url.URL
	log      *zap.Logger
}

func (t *transport) resolve(path string, query url.Values) string {
	u := *t.endpoint
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	u.RawQuery = query.Encode()
	return u.String()
}

// do sends one request and returns the decoded body. form == nil means GET.
func (t *transport) do(ctx context.Context, path string, query, form url.Values) (string, error) {
	method := http.MethodGet
	var body io.Reader
	if form != nil {
		method = http.MethodPost
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, t.resolve(path, query), body)
	if err != nil {
		return "", errors.Wrapf(err, "build request %s", path)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Encoding", acceptEncoding)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	t.log.Debug("request", zap.String("method", method), zap.String("path", path))
	resp, err := t.client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return "", &StatusError{Method: method, URL: path, Code: resp.StatusCode}
	}

	text, err := decodeBody(resp)
	if err != nil {
		return "", errors.Wrapf(err, "read %s", path)
	}
	t.log.Debug("response", zap.String("path", path), zap.Int("status", resp.StatusCode), zap.Int("bytes", len(text)))
	return text, nil
}

// decodeBody undoes Content-Encoding (we asked for it ourselves, so net/http
// leaves it alone) and converts the page charset to UTF-8.
func decodeBody(resp *http.Response) (string, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var r io.Reader
	switch enc := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))); enc {
	case "", "identity":
		r = bytes.NewReader(raw)
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return "", errors.Wrap(err, "gzip")
		}
		defer zr.Close()
		r = zr
	case "deflate":
		// Servers disagree on whether deflate means zlib framing or a bare stream.
		if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
			defer zr.Close()
			r = zr
		} else {
			fr := flate.NewReader(bytes.NewReader(raw))
			defer fr.Close()
			r = fr
		}
	default:
		return "", errors.Errorf("unsupported content encoding %q", enc)
	}

	cr, err := charset.NewReader(r, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", errors.Wrap(err, "charset")
	}
	out, err := io.ReadAll(cr)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
