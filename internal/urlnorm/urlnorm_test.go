package urlnorm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  flipkart.com/item?a=1&amp;b=2 ", "https://flipkart.com/item?a=1&b=2"},
		{"https://www.myntra.com/shoes/\n123/\tbuy", "https://www.myntra.com/shoes/123/buy"},
		{"http://x.com/a b c", "http://x.com/abc"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := Sanitize(tc.in); got != tc.want {
			t.Fatalf("Sanitize(%q)=%q want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	got, err := Normalize("HTTPS://WWW.Flipkart.COM:443/Item?x=1#frag")
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if got != "https://www.flipkart.com/Item?x=1" {
		t.Fatalf("unexpected normalized url: %s", got)
	}
	if got, _ := Normalize("amazon.in"); got != "https://amazon.in/" {
		t.Fatalf("unexpected bare host normalization: %s", got)
	}
	for _, bad := range []string{"", "   ", "ftp://x.com/a", "https://", "notaurl"} {
		if _, err := Normalize(bad); !errors.Is(err, ErrInvalidURL) {
			t.Fatalf("Normalize(%q) want ErrInvalidURL got %v", bad, err)
		}
	}
}

func TestHostMatches(t *testing.T) {
	if !HostMatches("dl.flipkart.com", "flipkart.com") {
		t.Fatalf("subdomain should match")
	}
	if !HostMatches("www.flipkart.com", "flipkart.com") {
		t.Fatalf("www should match")
	}
	if HostMatches("notflipkart.com", "flipkart.com") {
		t.Fatalf("suffix without dot must not match")
	}
}

func TestMakeProviderSafe(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{
			"https://www.flipkart.com/apple-iphone-15-(black,-128-gb)/p/itm6ac6485515ae4?pid=MOBGTAGPTB3VS24W&lid=LSTMOB&marketplace=FLIPKART",
			"https://www.flipkart.com/product/p/itm6ac6485515ae4?lid=LSTMOB&pid=MOBGTAGPTB3VS24W",
		},
		{
			"https://www.myntra.com/tshirts/roadster/roadster-men-black-t-shirt/1234567/buy",
			"https://www.myntra.com/1234567",
		},
		{
			"https://www.ajio.com/men-solid-shirt/p/469123456_black?utm=1",
			"https://www.ajio.com/p/469123456_black",
		},
		{
			"https://amazon.in/Some-Product-Name/dp/B0ABCDEFGH/ref=sr_1_1?keywords=x",
			"https://www.amazon.in/dp/B0ABCDEFGH",
		},
		{
			"https://www.flipkart.com/search?q=phone",
			"https://www.flipkart.com/search?q=phone",
		},
		{
			"https://www.nykaa.com/some/product",
			"https://www.nykaa.com/some/product",
		},
	}
	for _, tc := range cases {
		if got := MakeProviderSafe(tc.in); got != tc.want {
			t.Fatalf("MakeProviderSafe(%q)=%q want %q", tc.in, got, tc.want)
		}
	}
}

type memoryResolveCache struct {
	mu   sync.Mutex
	data map[string]string
}

func (c *memoryResolveCache) GetResolvedURL(_ context.Context, raw string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[raw]
	return v, ok
}

func (c *memoryResolveCache) SetResolvedURL(_ context.Context, raw, final string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[raw] = final
}

func TestResolveRedirectChainFollowsHops(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/short":
			w.Header().Set("Location", "/mid")
			w.WriteHeader(http.StatusFound)
		case "/mid":
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			w.Header().Set("Location", srv.URL+"/final?pid=1")
			w.WriteHeader(http.StatusMovedPermanently)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	cache := &memoryResolveCache{data: map[string]string{}}
	r := NewResolver(ResolverOptions{Cache: cache})
	got := r.ResolveRedirectChain(context.Background(), srv.URL+"/short")
	if got != srv.URL+"/final?pid=1" {
		t.Fatalf("unexpected final url: %s", got)
	}
	if cache.data[srv.URL+"/short"] != got {
		t.Fatalf("resolved url not cached: %#v", cache.data)
	}
}

func TestResolveRedirectChainKeepsLastKnownOnTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer slow.Close()
	front := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", slow.URL+"/landing")
		w.WriteHeader(http.StatusFound)
	}))
	defer front.Close()

	r := NewResolver(ResolverOptions{HopTimeout: 50 * time.Millisecond})
	got := r.ResolveRedirectChain(context.Background(), front.URL+"/s")
	if got != slow.URL+"/landing" {
		t.Fatalf("want last known url, got %s", got)
	}
}

func TestResolveRedirectChainCapsHops(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", r.URL.Path+"x")
		w.WriteHeader(http.StatusFound)
	}))
	defer srv.Close()

	r := NewResolver(ResolverOptions{MaxHops: 3})
	got := r.ResolveRedirectChain(context.Background(), srv.URL+"/a")
	if got != srv.URL+"/axxx" {
		t.Fatalf("want 3 hops, got %s", got)
	}
}

func TestResolveRedirectChainDisabled(t *testing.T) {
	r := NewResolver(ResolverOptions{Disabled: true})
	if got := r.ResolveRedirectChain(context.Background(), "https://bit.ly/x"); got != "https://bit.ly/x" {
		t.Fatalf("disabled resolver must return input, got %s", got)
	}
}
