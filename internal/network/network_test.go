package network

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type stubAdapter struct{ name string }

func (s stubAdapter) Name() string { return s.name }
func (s stubAdapter) BuildDeeplink(context.Context, string, string, Config) (string, error) {
	return "", nil
}

func TestKindOfUnwrapsWrappedErrors(t *testing.T) {
	base := NewError("trackier", KindMissingCampaignID, "no campaign for host")
	wrapped := fmt.Errorf("issue link: %w", base)
	kind, ok := KindOf(wrapped)
	if !ok || kind != KindMissingCampaignID {
		t.Fatalf("unexpected kind %q ok=%v", kind, ok)
	}
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Fatalf("plain error should not carry a kind")
	}
	if !IsConfigKind(kind) || IsAuthKind(kind) {
		t.Fatalf("config/auth classification mismatch")
	}
}

func TestRegistryLookupIsCaseInsensitive(t *testing.T) {
	r := NewRegistry(stubAdapter{"cuelinks"}, stubAdapter{"Trackier"}, nil)
	if _, ok := r.Get(" CUELINKS "); !ok {
		t.Fatalf("expected cuelinks adapter")
	}
	if _, ok := r.Get("trackier"); !ok {
		t.Fatalf("expected trackier adapter")
	}
	if got := r.Names(); len(got) != 2 || got[0] != "cuelinks" {
		t.Fatalf("unexpected names %v", got)
	}
}

func TestReadStringPaths(t *testing.T) {
	raw := map[string]interface{}{
		"link":      map[string]interface{}{"short_url": " https://clnk.in/x "},
		"deeplinks": []interface{}{map[string]interface{}{"url": "https://t.vcommission.com/a"}},
		"id":        float64(1234),
	}
	if got := ReadString(raw, "link", "short_url"); got != "https://clnk.in/x" {
		t.Fatalf("unexpected short url %q", got)
	}
	if got := ReadString(raw, "deeplinks", "0", "url"); got != "https://t.vcommission.com/a" {
		t.Fatalf("unexpected deeplink %q", got)
	}
	if got := ReadString(raw, "id"); got != "1234" {
		t.Fatalf("unexpected id %q", got)
	}
	if got := FirstString(raw, []string{"missing"}, []string{"id"}); got != "1234" {
		t.Fatalf("FirstString fallback failed: %q", got)
	}
}

func TestWithDefaultTimeoutKeepsExistingDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()
	ctx, done := WithDefaultTimeout(parent, time.Second)
	defer done()
	dl, _ := ctx.Deadline()
	if time.Until(dl) < 30*time.Minute {
		t.Fatalf("existing deadline overridden")
	}

	ctx2, done2 := WithDefaultTimeout(context.Background(), time.Second)
	defer done2()
	if _, ok := ctx2.Deadline(); !ok {
		t.Fatalf("default timeout not applied")
	}
}
