// Package urlnorm 清洗用户粘贴的商家链接、展开短链并按商家规则改写为联盟网络可安全包装的形式。
package urlnorm

import (
	"errors"
	"net/url"
	"strings"
	"unicode"
)

// ErrInvalidURL 链接为空或无法解析为 http(s) 地址
var ErrInvalidURL = errors.New("invalid url")

var entityReplacer = strings.NewReplacer("&amp;", "&", "&AMP;", "&", "&Amp;", "&")

// Sanitize 去除粘贴产生的空白与控制字符，解码 &amp;，缺少协议时补 https://
func Sanitize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsControl(r) || r == '\u200b' || r == '\ufeff' {
			return -1
		}
		return r
	}, s)
	s = entityReplacer.Replace(s)
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		s = "https://" + s
	}
	return s
}

// Normalize 清洗并规范化链接：小写主机、去掉 fragment 与默认端口
func Normalize(raw string) (string, error) {
	s := Sanitize(raw)
	if s == "" {
		return "", ErrInvalidURL
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", ErrInvalidURL
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidURL
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || (!strings.Contains(host, ".") && host != "localhost") {
		return "", ErrInvalidURL
	}
	port := u.Port()
	if (u.Scheme == "https" && port == "443") || (u.Scheme == "http" && port == "80") {
		port = ""
	}
	if port != "" {
		u.Host = host + ":" + port
	} else {
		u.Host = host
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}

// Host 返回去掉 www. 的小写主机名
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// HostMatches host 等于 domain 或为其子域名
func HostMatches(host, domain string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	domain = strings.TrimPrefix(strings.ToLower(domain), "www.")
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}
