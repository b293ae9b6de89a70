package session

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

var cookieBucket = []byte("cookies")

type storedCookie struct {
	URL    string       `json:"url"`
	Cookie *http.Cookie `json:"cookie"`
}

// Jar is a cookiejar.Jar that remembers what it was given so the session can be
// written to disk and replayed by a later process. Session-only cookies are kept
// too: the panel's login cookie has no expiry.
type Jar struct {
	inner *cookiejar.Jar

	mu   sync.Mutex
	seen map[string]storedCookie
	now  func() time.Time
}

func NewJar() (*Jar, error) {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Jar{inner: inner, seen: map[string]storedCookie{}, now: time.Now}, nil
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	return j.inner.Cookies(u)
}

func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.inner.SetCookies(u, cookies)

	j.mu.Lock()
	defer j.mu.Unlock()
	now := j.now()
	for _, c := range cookies {
		key := u.Host + "|" + c.Domain + "|" + c.Path + "|" + c.Name
		if c.MaxAge < 0 || (!c.Expires.IsZero() && !c.Expires.After(now)) {
			delete(j.seen, key)
			continue
		}
		cp := *c
		if cp.MaxAge > 0 {
			cp.Expires = now.Add(time.Duration(cp.MaxAge) * time.Second)
			cp.MaxAge = 0
		}
		cp.Raw = ""
		cp.Unparsed = nil
		j.seen[key] = storedCookie{URL: u.Scheme + "://" + u.Host + "/", Cookie: &cp}
	}
}

// Len is the number of cookies that would be saved.
func (j *Jar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.seen)
}

// Save replaces the cookie bucket of the bbolt file at path with the jar's content.
func (j *Jar) Save(path string) error {
	opts := &bbolt.Options{Timeout: time.Second}
	db, err := bbolt.Open(path, 0600, opts)
	if err != nil && !errors.Is(err, bbolt.ErrTimeout) {
		// unreadable cache, start over
		if rerr := os.Remove(path); rerr == nil {
			db, err = bbolt.Open(path, 0600, opts)
		}
	}
	if err != nil {
		return errors.Wrapf(err, "open cookie cache %s", path)
	}
	defer db.Close()

	j.mu.Lock()
	defer j.mu.Unlock()
	return db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(cookieBucket) != nil {
			if err := tx.DeleteBucket(cookieBucket); err != nil {
				return err
			}
		}
		b, err := tx.CreateBucket(cookieBucket)
		if err != nil {
			return err
		}
		for key, sc := range j.seen {
			raw, err := json.Marshal(sc)
			if err != nil {
				return errors.Wrapf(err, "encode cookie %s", sc.Cookie.Name)
			}
			if err := b.Put([]byte(key), raw); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load replays the cookies stored at path. A missing file is not an error.
// It returns the number of cookies restored; expired ones are skipped.
func (j *Jar) Load(path string) (int, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second, ReadOnly: true})
	if err != nil {
		return 0, errors.Wrapf(err, "open cookie cache %s", path)
	}
	defer db.Close()

	var restored []storedCookie
	err = db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(cookieBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var sc storedCookie
			if err := json.Unmarshal(v, &sc); err != nil {
				return errors.Wrap(err, "decode cookie")
			}
			if sc.Cookie != nil {
				restored = append(restored, sc)
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}

	n := 0
	now := j.now()
	for _, sc := range restored {
		if !sc.Cookie.Expires.IsZero() && !sc.Cookie.Expires.After(now) {
			continue
		}
		u, err := url.Parse(sc.URL)
		if err != nil {
			continue
		}
		j.SetCookies(u, []*http.Cookie{sc.Cookie})
		n++
	}
	return n, nil
}
