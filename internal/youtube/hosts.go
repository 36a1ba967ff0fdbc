package youtube

import (
	"net/url"
	"strings"
)

// IsThumbnailURL reports whether raw points at YouTube's image CDN. Server
// side fetches of user supplied URLs are limited to these hosts.
func IsThumbnailURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "img.youtube.com" || host == "ytimg.com" || strings.HasSuffix(host, ".ytimg.com")
}
