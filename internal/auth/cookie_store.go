package auth

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"golang.org/x/net/publicsuffix"
)

// CookieStore keeps the session cookies issued by the API and persists them
// between runs, so a refresh credential survives a restart.
type CookieStore struct {
	mu     sync.Mutex
	path   string
	base   *url.URL
	scopes []string
	jar    http.CookieJar
}

type storedCookie struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
	Path  string `toml:"path"`
}

type cookieFile struct {
	URL     string         `toml:"url"`
	Cookies []storedCookie `toml:"cookies"`
}

// NewCookieStore creates a store for cookies scoped to baseURL, persisted at path.
// Pass an empty path to keep cookies in memory only. scopes lists extra
// paths whose cookies are not visible at the root, such as the refresh endpoint.
func NewCookieStore(path string, baseURL string, scopes ...string) (*CookieStore, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing api base URL: %w", err)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return &CookieStore{
		path:   path,
		base:   base,
		scopes: append([]string{"/"}, scopes...),
		jar:    jar,
	}, nil
}

// Jar returns the cookie jar to hand to the HTTP client.
func (s *CookieStore) Jar() http.CookieJar {
	return s.jar
}

// Load restores persisted cookies into the jar.
// A missing file, or a file written for another API URL, is not an error.
func (s *CookieStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return nil
	}
	if _, err := os.Stat(s.path); err != nil {
		return nil
	}
	var f cookieFile
	if _, err := toml.DecodeFile(s.path, &f); err != nil {
		return fmt.Errorf("reading cookie file: %w", err)
	}
	if f.URL != s.base.String() {
		return nil
	}
	cookies := make([]*http.Cookie, 0, len(f.Cookies))
	for _, c := range f.Cookies {
		p := c.Path
		if p == "" {
			p = "/"
		}
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: p})
	}
	s.jar.SetCookies(s.base, cookies)
	return nil
}

// Save writes the jar's cookies for the API URL to disk with 0600 permissions.
func (s *CookieStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return nil
	}
	f := cookieFile{URL: s.base.String(), Cookies: s.visible()}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating cookie directory: %w", err)
	}
	out, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("opening cookie file: %w", err)
	}
	if encErr := toml.NewEncoder(out).Encode(f); encErr != nil {
		out.Close()
		return encErr
	}
	return out.Close()
}

// Clear expires every cookie in the jar for the API URL and removes the file.
func (s *CookieStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.visible()
	expired := make([]*http.Cookie, 0, len(current))
	for _, c := range current {
		expired = append(expired, &http.Cookie{Name: c.Name, Path: c.Path, MaxAge: -1})
	}
	s.jar.SetCookies(s.base, expired)

	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cookie file: %w", err)
	}
	return nil
}

// visible returns the jar's cookies for every scope. A cookie is recorded
// under the first (shallowest) scope it is visible from.
func (s *CookieStore) visible() []storedCookie {
	var out []storedCookie
	seen := make(map[string]bool)
	for _, scope := range s.scopes {
		u := *s.base
		u.Path = scope
		for _, c := range s.jar.Cookies(&u) {
			if seen[c.Name] {
				continue
			}
			seen[c.Name] = true
			out = append(out, storedCookie{Name: c.Name, Value: c.Value, Path: scope})
		}
	}
	return out
}
