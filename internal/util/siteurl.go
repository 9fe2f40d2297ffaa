package util

import "strings"

const defaultSiteURL = "http://localhost:3000/"

// SiteURL normalises the public base URL used for redirect targets: empty
// falls back to localhost, a missing scheme becomes https, and the result
// always ends in a slash.
func SiteURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return defaultSiteURL
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "https://" + u
	}
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u
}
