// url.go - URL origin extraction.
package util

import (
	"net/url"
	"strings"
)

// ExtractOrigin returns scheme://host[:port] of rawURL, or "" for data:
// URLs, relative URLs and malformed input. blob: URLs yield their nested origin.
func ExtractOrigin(rawURL string) string {
	if strings.HasPrefix(rawURL, "data:") {
		return ""
	}
	rawURL = strings.TrimPrefix(rawURL, "blob:")

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}
