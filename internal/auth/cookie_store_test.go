package auth_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/waabox/shopdeck/internal/auth"
)

// sessionServer sets a refresh cookie on /auth/login and echoes it on /whoami.
func sessionServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			http.SetCookie(w, &http.Cookie{Name: "refresh", Value: "r-123", Path: "/"})
		case "/whoami":
			c, err := r.Cookie("refresh")
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(c.Value))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCookieStore_SaveAndLoadAcrossRuns(t *testing.T) {
	srv := sessionServer(t)
	path := filepath.Join(t.TempDir(), "session", "cookies.toml")

	first, err := auth.NewCookieStore(path, srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client := &http.Client{Jar: first.Jar()}
	resp, err := client.Post(srv.URL+"/auth/login", "application/json", nil)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	resp.Body.Close()
	if err := first.Save(); err != nil {
		t.Fatalf("saving cookies: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected cookie file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected 0600 permissions, got %v", info.Mode().Perm())
	}

	second, err := auth.NewCookieStore(path, srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := second.Load(); err != nil {
		t.Fatalf("loading cookies: %v", err)
	}
	client = &http.Client{Jar: second.Jar()}
	resp, err = client.Get(srv.URL + "/whoami")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected restored cookie to authenticate, got %d", resp.StatusCode)
	}
}

func TestCookieStore_LoadMissingFileIsNotError(t *testing.T) {
	store, err := auth.NewCookieStore("/nonexistent/cookies.toml", "https://api.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Load(); err != nil {
		t.Errorf("missing file should not be an error, got: %v", err)
	}
}

func TestCookieStore_IgnoresFileForOtherURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.toml")
	content := `
url = "https://other.example.com"

[[cookies]]
name = "refresh"
value = "foreign"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	store, err := auth.NewCookieStore(path, "https://api.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	base, _ := http.NewRequest(http.MethodGet, "https://api.example.com/", nil)
	if got := store.Jar().Cookies(base.URL); len(got) != 0 {
		t.Errorf("expected no cookies, got %v", got)
	}
}

func TestCookieStore_ClearRemovesCookiesAndFile(t *testing.T) {
	srv := sessionServer(t)
	path := filepath.Join(t.TempDir(), "cookies.toml")
	store, err := auth.NewCookieStore(path, srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client := &http.Client{Jar: store.Jar()}
	resp, err := client.Post(srv.URL+"/auth/login", "application/json", nil)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	resp.Body.Close()
	if err := store.Save(); err != nil {
		t.Fatalf("saving cookies: %v", err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clearing cookies: %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected cookie file to be removed, got: %v", err)
	}
	resp, err = client.Get(srv.URL + "/whoami")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected cleared jar to be anonymous, got %d", resp.StatusCode)
	}
}

func TestCookieStore_PersistsPathScopedRefreshCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			http.SetCookie(w, &http.Cookie{Name: "refresh", Value: "r-9", Path: "/auth/refresh-token"})
		case "/auth/refresh-token":
			if _, err := r.Cookie("refresh"); err != nil {
				w.WriteHeader(http.StatusUnauthorized)
			}
		}
	}))
	defer srv.Close()
	path := filepath.Join(t.TempDir(), "cookies.toml")

	first, err := auth.NewCookieStore(path, srv.URL, "/auth/refresh-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client := &http.Client{Jar: first.Jar()}
	resp, err := client.Post(srv.URL+"/auth/login", "application/json", nil)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	resp.Body.Close()
	if err := first.Save(); err != nil {
		t.Fatalf("saving cookies: %v", err)
	}

	second, err := auth.NewCookieStore(path, srv.URL, "/auth/refresh-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := second.Load(); err != nil {
		t.Fatalf("loading cookies: %v", err)
	}
	client = &http.Client{Jar: second.Jar()}
	resp, err = client.Post(srv.URL+"/auth/refresh-token", "application/json", nil)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected restored refresh cookie, got %d", resp.StatusCode)
	}
}
