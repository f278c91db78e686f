package httputil

import (
	"net/http"
	"net/url"
	"strings"
)

const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36"

// SetBrowserHeaders makes req look like it was issued by the web player
// served at webURL.
func SetBrowserHeaders(req *http.Request, webURL string) {
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Referer", webURL)
	req.Header.Set("Origin", Origin(webURL))
}

// Origin returns scheme://host of rawURL without trailing slash. Inputs that
// fail to parse are returned with trailing slashes trimmed.
func Origin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if nil != err || u.Scheme == "" || u.Host == "" {
		return strings.TrimRight(rawURL, "/")
	}

	return u.Scheme + "://" + u.Host
}

// NoRedirect is a CheckRedirect policy that hands the 3xx response back to
// the caller.
func NoRedirect(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}
