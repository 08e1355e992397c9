package apiclient_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/waabox/shopdeck/internal/apiclient"
	"github.com/waabox/shopdeck/internal/session"
)

// recordedRequest is what the fake API saw for one call.
type recordedRequest struct {
	Method string
	Path   string
	Lang   string
	HasLang bool
	Body   string
	Cookie string
}

// fakeAPI is a storefront API whose protected routes require the "access"
// cookie to equal "fresh". The refresh endpoint sets that cookie.
type fakeAPI struct {
	t        *testing.T
	srv      *httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
	refreshCalls atomic.Int32

	// refresh decides the refresh endpoint status; nil means 200.
	refresh func(w http.ResponseWriter)
	routes  map[string]http.HandlerFunc
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{t: t, routes: make(map[string]http.HandlerFunc)}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	rec := recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Lang:   r.URL.Query().Get("lang"),
		HasLang: r.URL.Query().Has("lang"),
		Body:   string(body),
	}
	if c, err := r.Cookie("access"); err == nil {
		rec.Cookie = c.Value
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()

	if r.URL.Path == "/auth/refresh-token" {
		f.refreshCalls.Add(1)
		if f.refresh != nil {
			f.refresh(w)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "access", Value: "fresh", Path: "/"})
		w.WriteHeader(http.StatusOK)
		return
	}
	if h, ok := f.routes[r.URL.Path]; ok {
		h(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{}`))
}

// protected wraps h so that it answers 401 until the session cookie is fresh.
func protected(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("access"); err != nil || c.Value != "fresh" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"statusCode":401,"message":"Unauthorized"}`))
			return
		}
		h(w, r)
	}
}

func jsonBody(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func (f *fakeAPI) recorded(path string) []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedRequest
	for _, r := range f.requests {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeAPI) client(options ...apiclient.Option) *apiclient.Client {
	f.t.Helper()
	c, err := apiclient.New(apiclient.Options{BaseURL: f.srv.URL}, options...)
	require.NoError(f.t, err)
	return c
}

// signalRecorder collects published session signals.
type signalRecorder struct {
	ch chan session.Signal
}

func recordSignals(b *session.Broadcaster) *signalRecorder {
	r := &signalRecorder{ch: make(chan session.Signal, 16)}
	b.Subscribe(session.SignalRefreshFailed, func(s session.Signal) { r.ch <- s })
	b.Subscribe(session.SignalLogout, func(s session.Signal) { r.ch <- s })
	return r
}

func (r *signalRecorder) expect(t *testing.T, want session.Signal) {
	t.Helper()
	select {
	case got := <-r.ch:
		require.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("expected signal %q", want)
	}
}

func (r *signalRecorder) expectNone(t *testing.T) {
	t.Helper()
	select {
	case got := <-r.ch:
		t.Fatalf("unexpected signal %q", got)
	case <-time.After(100 * time.Millisecond):
	}
}
