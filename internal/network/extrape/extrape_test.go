package extrape

import (
	"context"
	"net/url"
	"testing"

	"github.com/earnko/internal/network"
)

func TestBuildDeeplinkAppendsParams(t *testing.T) {
	a := New(Options{AffID: "adminx", AffExtParam1: "EPTG1"})
	got, err := a.BuildDeeplink(context.Background(), "https://www.flipkart.com/product/p/itm1?pid=ABC&affid=old", "01HCLICK", network.Config{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	u, _ := url.Parse(got)
	q := u.Query()
	if q.Get("affid") != "adminx" || q.Get("affExtParam1") != "EPTG1" || q.Get("affExtParam2") != "01HCLICK" || q.Get("pid") != "ABC" {
		t.Fatalf("unexpected query %s", u.RawQuery)
	}
}

func TestBuildDeeplinkAccountOverride(t *testing.T) {
	a := New(Options{AffID: "default"})
	got, err := a.BuildDeeplink(context.Background(), "https://dl.flipkart.com/s/x", "c1", network.Config{AccountID: "routed"})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	u, _ := url.Parse(got)
	if u.Query().Get("affid") != "routed" {
		t.Fatalf("route account id should win, got %s", got)
	}
}

func TestBuildDeeplinkErrors(t *testing.T) {
	cases := []struct {
		opts  Options
		url   string
		click string
		kind  network.Kind
	}{
		{Options{}, "https://www.flipkart.com/x", "c", network.KindMissingAccountID},
		{Options{AffID: "a"}, "https://www.amazon.in/x", "c", network.KindBadRequest},
		{Options{AffID: "a"}, "", "c", network.KindBadRequest},
		{Options{AffID: "a"}, "https://www.flipkart.com/x", "", network.KindBadRequest},
	}
	for _, tc := range cases {
		_, err := New(tc.opts).BuildDeeplink(context.Background(), tc.url, tc.click, network.Config{})
		if kind, _ := network.KindOf(err); kind != tc.kind {
			t.Fatalf("url=%q click=%q want %s got %v", tc.url, tc.click, tc.kind, err)
		}
	}
}
