package cuelinks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/earnko/internal/network"
)

func TestBuildDeeplinkSendsSubidAndReadsNestedShortURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/links.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("subid") != "01HCLICK" || q.Get("shorten") != "true" || q.Get("channel_id") != "77" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if r.Header.Get("Token") != "secret" {
			t.Errorf("expected token header on first variant")
		}
		_, _ = w.Write([]byte(`{"link":{"short_url":"https://clnk.in/abc"}}`))
	}))
	defer srv.Close()

	a := New(Options{APIBase: srv.URL, APIKey: "secret", ChannelID: "77"})
	got, err := a.BuildDeeplink(context.Background(), "https://www.nykaa.com/p/1", "01HCLICK", network.Config{})
	if err != nil {
		t.Fatalf("build deeplink failed: %v", err)
	}
	if got != "https://clnk.in/abc" {
		t.Fatalf("unexpected link %s", got)
	}
}

func TestBuildDeeplinkFallsBackThroughAuthVariants(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Unauthorized"}`))
			return
		}
		if n != 3 {
			t.Errorf("bearer should be the third variant, got call %d", n)
		}
		_, _ = w.Write([]byte(`{"affiliate_url":"https://linksredirect.com/?x=1"}`))
	}))
	defer srv.Close()

	a := New(Options{APIBase: srv.URL, APIKey: "secret"})
	got, err := a.BuildDeeplink(context.Background(), "https://www.nykaa.com/p/1", "c1", network.Config{})
	if err != nil {
		t.Fatalf("build deeplink failed: %v", err)
	}
	if got != "https://linksredirect.com/?x=1" {
		t.Fatalf("unexpected link %s", got)
	}
}

func TestBuildDeeplinkErrorKinds(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		kind   network.Kind
	}{
		{"all variants unauthorized", http.StatusUnauthorized, `{"message":"bad token"}`, network.KindInvalidCredentials},
		{"forbidden", http.StatusForbidden, `{"message":"forbidden"}`, network.KindForbidden},
		{"approval", http.StatusUnprocessableEntity, `{"message":"Campaign needs approval"}`, network.KindApprovalRequired},
		{"empty success", http.StatusOK, `{}`, network.KindNoDeeplink},
		{"server error", http.StatusBadGateway, `oops`, network.KindProviderFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			a := New(Options{APIBase: srv.URL, APIKey: "k"})
			_, err := a.BuildDeeplink(context.Background(), "https://www.ajio.com/p/1", "c1", network.Config{})
			kind, ok := network.KindOf(err)
			if !ok || kind != tc.kind {
				t.Fatalf("want kind %s got %v (%v)", tc.kind, kind, err)
			}
			if tc.kind == network.KindApprovalRequired {
				var ne *network.Error
				ne, _ = err.(*network.Error)
				if ne == nil || ne.Host != "ajio.com" {
					t.Fatalf("approval error must carry host, got %+v", err)
				}
			}
		})
	}
}

func TestBuildDeeplinkRequiresKeyAndURL(t *testing.T) {
	a := New(Options{})
	if _, err := a.BuildDeeplink(context.Background(), "https://x.com", "c", network.Config{}); err == nil {
		t.Fatalf("expected missing key error")
	} else if kind, _ := network.KindOf(err); kind != network.KindMissingAccountID {
		t.Fatalf("unexpected kind %s", kind)
	}
	a = New(Options{APIKey: "k"})
	if _, err := a.BuildDeeplink(context.Background(), " ", "c", network.Config{}); err == nil {
		t.Fatalf("expected bad request")
	} else if kind, _ := network.KindOf(err); kind != network.KindBadRequest {
		t.Fatalf("unexpected kind %s", kind)
	}
}

func TestSearchCampaigns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/campaigns.json") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("search_term") != "ajio.com" || r.URL.Query().Get("country_id") != "252" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"campaigns":[{"id":101,"name":"Ajio","url":"https://www.ajio.com","status":"pending"}]}`))
	}))
	defer srv.Close()

	a := New(Options{APIBase: srv.URL, APIKey: "k", CountryID: "252"})
	got, err := a.SearchCampaigns(context.Background(), "ajio.com")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "101" || got[0].Name != "Ajio" {
		t.Fatalf("unexpected campaigns %+v", got)
	}
}
