package tabs

import (
	"net/url"
	"strings"
)

// unroutable schemes never participate in origin routing.
var unroutableSchemes = map[string]bool{
	"about":            true,
	"chrome":           true,
	"chrome-extension": true,
	"data":             true,
	"blob":             true,
	"javascript":       true,
}

// Origin reduces a URL to its routing key: scheme://host[:port], with the
// port omitted at its standard value. Userinfo is stripped and the host
// lowercased. Unroutable or unparsable URLs yield "".
func Origin(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme == "" || unroutableSchemes[scheme] {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ""
	}
	port := u.Port()
	if port == standardPort(scheme) {
		port = ""
	}
	if port != "" {
		return scheme + "://" + host + ":" + port
	}
	return scheme + "://" + host
}

func standardPort(scheme string) string {
	switch scheme {
	case "http", "ws":
		return "80"
	case "https", "wss":
		return "443"
	default:
		return ""
	}
}
