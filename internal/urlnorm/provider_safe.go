package urlnorm

import (
	"net/url"
	"regexp"
	"strings"
)

// rewriteRule 针对某个商家域名的链接重建规则；返回 false 表示不适用
type rewriteRule struct {
	domain  string
	rewrite func(u *url.URL) (string, bool)
}

var (
	myntraIDPattern = regexp.MustCompile(`/(\d{5,})(?:/buy)?/?$`)
	ajioIDPattern   = regexp.MustCompile(`/p/([A-Za-z0-9_]+)`)
	amazonASIN      = regexp.MustCompile(`/(?:dp|gp/product|gp/aw/d)/([A-Z0-9]{10})`)
	flipkartItem    = regexp.MustCompile(`/p/(itm[a-zA-Z0-9]+)`)
)

var providerSafeRules = []rewriteRule{
	{
		domain: "flipkart.com",
		rewrite: func(u *url.URL) (string, bool) {
			pid := u.Query().Get("pid")
			if pid == "" {
				return "", false
			}
			item := "itm"
			if m := flipkartItem.FindStringSubmatch(u.Path); m != nil {
				item = m[1]
			}
			q := url.Values{}
			q.Set("pid", pid)
			if lid := u.Query().Get("lid"); lid != "" {
				q.Set("lid", lid)
			}
			return "https://www.flipkart.com/product/p/" + item + "?" + q.Encode(), true
		},
	},
	{
		domain: "myntra.com",
		rewrite: func(u *url.URL) (string, bool) {
			m := myntraIDPattern.FindStringSubmatch(u.Path)
			if m == nil {
				return "", false
			}
			return "https://www.myntra.com/" + m[1], true
		},
	},
	{
		domain: "ajio.com",
		rewrite: func(u *url.URL) (string, bool) {
			m := ajioIDPattern.FindStringSubmatch(u.Path)
			if m == nil {
				return "", false
			}
			return "https://www.ajio.com/p/" + m[1], true
		},
	},
	{
		domain:  "amazon.in",
		rewrite: amazonRewrite,
	},
	{
		domain:  "amazon.com",
		rewrite: amazonRewrite,
	},
}

func amazonRewrite(u *url.URL) (string, bool) {
	m := amazonASIN.FindStringSubmatch(u.Path)
	if m == nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if !strings.HasPrefix(host, "www.") {
		host = "www." + strings.TrimPrefix(host, "m.")
	}
	return "https://" + host + "/dp/" + m[1], true
}

// MakeProviderSafe 对已知会破坏联盟网络包装的商家链接重建为最小形式；无匹配规则时原样返回
func MakeProviderSafe(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	host := u.Hostname()
	for _, rule := range providerSafeRules {
		if !HostMatches(host, rule.domain) {
			continue
		}
		if out, ok := rule.rewrite(u); ok {
			return out
		}
		return rawURL
	}
	return rawURL
}
