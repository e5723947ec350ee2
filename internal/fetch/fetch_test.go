package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const articlePage = `<!DOCTYPE html>
<html><head><title>How Tides Work</title></head>
<body>
<nav><a href="/">Home</a> <a href="/about">About</a></nav>
<article>
<h1>How Tides Work</h1>
<p>Tides are the regular rise and fall of sea level caused by the gravitational pull of the Moon and the Sun acting on the rotating Earth.</p>
<p>Most coastlines see two high tides and two low tides every lunar day, which lasts about twenty four hours and fifty minutes.</p>
<p>Spring tides happen when the Sun and Moon line up, and neap tides happen when they pull at right angles to each other.</p>
</article>
<footer>Copyright</footer>
</body></html>`

func TestIsBareURL(t *testing.T) {
	tests := map[string]bool{
		"https://example.com/a":        true,
		"  http://example.com  ":       true,
		"see https://example.com":      false,
		"https://example.com and more": false,
		"ftp://example.com/file":       false,
		"What is photosynthesis?":      false,
	}
	for in, want := range tests {
		if got := IsBareURL(in); got != want {
			t.Errorf("IsBareURL(%q): expected %v, got %v", in, want, got)
		}
	}
}

func TestResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "studydeck/") {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, articlePage)
	}))
	defer srv.Close()

	a := NewArticleResolver(0, nil, AllowPrivateAddresses()).Resolve(context.Background(), srv.URL+"/tides")
	if a == nil {
		t.Fatal("expected article")
	}
	if !strings.Contains(a.Title, "Tides") {
		t.Errorf("unexpected title %q", a.Title)
	}
	if !strings.Contains(a.Content, "gravitational pull of the Moon") {
		t.Errorf("expected article body, got %q", a.Content)
	}
}

func TestResolveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/thin":
			fmt.Fprint(w, "<html><body><p>Too short.</p></body></html>")
		}
	}))
	defer srv.Close()

	r := NewArticleResolver(0, nil, AllowPrivateAddresses())
	for _, u := range []string{srv.URL + "/missing", srv.URL + "/thin", "not a url", "mailto:a@b.c"} {
		if a := r.Resolve(context.Background(), u); a != nil {
			t.Errorf("%s: expected nil, got %+v", u, a)
		}
	}
}

func TestResolveRefusesPrivateAddresses(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, articlePage)
	}))
	defer srv.Close()

	r := NewArticleResolver(0, nil)
	if a := r.Resolve(context.Background(), srv.URL+"/tides"); a != nil {
		t.Errorf("expected nil for loopback page, got %+v", a)
	}
	if _, err := r.download(context.Background(), srv.URL+"/tides"); !errors.Is(err, ErrBlockedAddress) {
		t.Errorf("expected ErrBlockedAddress, got %v", err)
	}
	if hits != 0 {
		t.Errorf("expected no request to reach the server, got %d", hits)
	}
}

func TestIsPublic(t *testing.T) {
	tests := map[string]bool{
		"127.0.0.1":       false,
		"10.1.2.3":        false,
		"172.16.0.9":      false,
		"192.168.1.1":     false,
		"169.254.169.254": false,
		"0.0.0.0":         false,
		"::1":             false,
		"fe80::1":         false,
		"fd00::1":         false,
		"::ffff:10.0.0.1": false,
		"93.184.216.34":   true,
		"2606:4700::1111": true,
	}
	for in, want := range tests {
		if got := isPublic(net.ParseIP(in)); got != want {
			t.Errorf("isPublic(%s): expected %v, got %v", in, want, got)
		}
	}
}
