package session

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
)

// fakePanel answers the login handshake the way the real panel does: every page
// is gzipped and a session cookie gates the landing page.
type fakePanel struct {
	*httptest.Server

	mu          sync.Mutex
	user        string
	password    string
	tan         string
	hash        string
	csrf        string
	embedCSRF   bool
	loginCalls  int
	logoutCalls int
	csrfCalls   int
	lastQuery   url.Values
	lastForm    url.Values
	handlers    map[string]http.HandlerFunc
}

func newFakePanel(t *testing.T) *fakePanel {
	t.Helper()
	p := &fakePanel{
		user: "12345", password: "secret", hash: "h4sh", csrf: "c5rf", embedCSRF: true,
		handlers: map[string]http.HandlerFunc{},
	}
	p.Server = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.Close)
	return p
}

func writeGzip(w http.ResponseWriter, body string) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte(body))
	zw.Close()
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	w.Header().Set("Content-Encoding", "gzip")
	w.Write(buf.Bytes())
}

func (p *fakePanel) loggedIn(r *http.Request) bool {
	c, err := r.Cookie("PHPSESSID")
	return err == nil && c.Value == "valid"
}

func (p *fakePanel) tokens() string {
	s := `<script>var sessionhash = "` + p.hash + `";`
	if p.embedCSRF {
		s += ` var nocsrftoken = '` + p.csrf + `';`
	}
	return s + `</script>`
}

func (p *fakePanel) serve(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r.ParseForm()
	p.lastQuery = r.URL.Query()
	p.lastForm = r.PostForm

	if h, ok := p.handlers[r.URL.Path]; ok {
		h(w, r)
		return
	}

	switch r.URL.Path {
	case "/run/start.php":
		p.loginCalls++
		ok := r.PostForm.Get("ccp_user") == p.user
		if p.tan != "" {
			if r.PostForm.Get("pwdb64") == "" || r.PostForm.Get("tan") != p.tan {
				ok = false
			}
		} else if r.PostForm.Get("ccp_password") != p.password {
			ok = false
		}
		if ok {
			http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "valid", Path: "/"})
			writeGzip(w, "<html>Willkommen "+p.user+"</html>")
			return
		}
		if r.PostForm.Get("ccp_user") == p.user && p.tan != "" && r.PostForm.Get("tan") == "" {
			writeGzip(w, "<html>Zwei-Faktor für "+p.user+"</html>")
			return
		}
		writeGzip(w, "<html>Login fehlgeschlagen</html>")
	case "/run/domains.php":
		if !p.loggedIn(r) {
			writeGzip(w, "<html>Bitte anmelden</html>")
			return
		}
		writeGzip(w, "<html>Kunde "+p.user+p.tokens()+"</html>")
	case "/run/nocrfs_ajax.php":
		p.csrfCalls++
		if !p.loggedIn(r) {
			writeGzip(w, "Your session has expired")
			return
		}
		writeGzip(w, p.csrf)
	case "/run/logout.php":
		p.logoutCalls++
		http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "", Path: "/", MaxAge: -1})
		writeGzip(w, "<html>bye</html>")
	default:
		http.NotFound(w, r)
	}
}

func (p *fakePanel) handle(path string, h http.HandlerFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[path] = h
}

func (p *fakePanel) set(fn func(p *fakePanel)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p)
}

func (p *fakePanel) counts() (login, logout, csrf int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loginCalls, p.logoutCalls, p.csrfCalls
}

func (p *fakePanel) requestQuery() url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastQuery
}

func (p *fakePanel) requestForm() url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastForm
}

func hasCookie(cookies []*http.Cookie, name string) bool {
	for _, c := range cookies {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}
