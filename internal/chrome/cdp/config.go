package cdp

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	defaultConnectTimeout = 5 * time.Second
	defaultCommandTimeout = 30 * time.Second
)

// Config is supplied per session; there is no shared mutable singleton.
type Config struct {
	Host string
	Port int

	ConnectTimeout time.Duration
	CommandTimeout time.Duration

	MaxRetries int
	RetryDelay time.Duration

	ProxyHost     string
	ProxyPort     int
	ProxyUsername string
	ProxyPassword string
	NoProxy       bool

	// TargetID pins the session to a specific page target. Empty picks the
	// first debuggable page.
	TargetID string
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Host) == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port <= 0 {
		c.Port = 9222
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = defaultCommandTimeout
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	return c
}

// Endpoint returns the base HTTP URL of the debugging port.
func (c Config) Endpoint() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// FromEnvironment fills unset proxy fields from HTTP_PROXY/HTTPS_PROXY and
// applies the NO_PROXY bypass decision for the CDP host.
func FromEnvironment(c Config) Config {
	c = c.withDefaults()
	if c.ProxyHost == "" {
		for _, key := range []string{"HTTPS_PROXY", "https_proxy", "HTTP_PROXY", "http_proxy"} {
			raw := strings.TrimSpace(os.Getenv(key))
			if raw == "" {
				continue
			}
			u, err := url.Parse(raw)
			if err != nil || u.Hostname() == "" {
				continue
			}
			c.ProxyHost = u.Hostname()
			if p := u.Port(); p != "" {
				fmt.Sscanf(p, "%d", &c.ProxyPort)
			}
			if u.User != nil {
				c.ProxyUsername = u.User.Username()
				if pw, ok := u.User.Password(); ok {
					c.ProxyPassword = pw
				}
			}
			break
		}
	}
	if !c.NoProxy && hostInNoProxy(c.Host, os.Getenv("NO_PROXY")+","+os.Getenv("no_proxy")) {
		c.NoProxy = true
	}
	return c
}

func hostInNoProxy(host, noProxy string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	for _, entry := range strings.Split(noProxy, ",") {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if entry == "*" || entry == host {
			return true
		}
		if strings.HasPrefix(entry, ".") && strings.HasSuffix(host, entry) {
			return true
		}
	}
	return false
}

// proxyURL returns the proxy to dial through, or nil when proxying is off.
func (c Config) proxyURL() (*url.URL, error) {
	if c.NoProxy || strings.TrimSpace(c.ProxyHost) == "" {
		return nil, nil
	}
	if c.ProxyPort <= 0 {
		return nil, &ProxyConfigError{Message: fmt.Sprintf("proxy host %q has no port", c.ProxyHost)}
	}
	u := &url.URL{
		Scheme: "http",
		Host:   fmt.Sprintf("%s:%d", c.ProxyHost, c.ProxyPort),
	}
	if c.ProxyUsername != "" {
		if c.ProxyPassword != "" {
			u.User = url.UserPassword(c.ProxyUsername, c.ProxyPassword)
		} else {
			u.User = url.User(c.ProxyUsername)
		}
	}
	return u, nil
}
