package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Target describes one entry of the browser's /json/list response.
type Target struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	URL                  string `json:"url"`
	Title                string `json:"title"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// VersionInfo is the /json/version response.
type VersionInfo struct {
	Browser              string `json:"Browser"`
	ProtocolVersion      string `json:"Protocol-Version"`
	WebKitVersion        string `json:"WebKit-Version"`
	UserAgent            string `json:"User-Agent"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

func discoveryClient(cfg Config) (*http.Client, error) {
	proxy, err := cfg.proxyURL()
	if err != nil {
		return nil, err
	}
	transport := &http.Transport{}
	if proxy != nil {
		transport.Proxy = http.ProxyURL(proxy)
	}
	return &http.Client{Timeout: cfg.ConnectTimeout, Transport: transport}, nil
}

// ListTargets fetches the current target descriptors from the browser.
func ListTargets(ctx context.Context, cfg Config) ([]Target, error) {
	cfg = cfg.withDefaults()
	client, err := discoveryClient(cfg)
	if err != nil {
		return nil, err
	}
	var targets []Target
	if err := getJSON(ctx, client, cfg.Endpoint()+"/json/list", &targets); err != nil {
		return nil, err
	}
	return targets, nil
}

// Version fetches the browser-level descriptor, including the browser
// websocket URL used as a discovery fallback.
func Version(ctx context.Context, cfg Config) (*VersionInfo, error) {
	cfg = cfg.withDefaults()
	client, err := discoveryClient(cfg)
	if err != nil {
		return nil, err
	}
	var info VersionInfo
	if err := getJSON(ctx, client, cfg.Endpoint()+"/json/version", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &ConnectionError{Message: "build discovery request", Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return &ConnectionError{Message: "discovery request " + url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return &ConnectionError{Message: fmt.Sprintf("discovery request %s: status %d", url, resp.StatusCode)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ConnectionError{Message: "decode discovery response", Err: err}
	}
	return nil
}

// resolveWebSocketURL picks the websocket endpoint for a new session:
// an explicit target id must exist; otherwise the first debuggable page
// wins; if the tab list itself is unreachable, fall back to the browser
// socket from /json/version.
func resolveWebSocketURL(ctx context.Context, cfg Config) (string, error) {
	targets, err := ListTargets(ctx, cfg)
	if err != nil {
		if strings.TrimSpace(cfg.TargetID) != "" {
			return "", err
		}
		info, verr := Version(ctx, cfg)
		if verr != nil {
			return "", err
		}
		if info.WebSocketDebuggerURL == "" {
			return "", &ConnectionError{Message: "browser reported no websocket debugger URL"}
		}
		return info.WebSocketDebuggerURL, nil
	}

	if want := strings.TrimSpace(cfg.TargetID); want != "" {
		for _, t := range targets {
			if t.ID == want {
				if t.WebSocketDebuggerURL == "" {
					return "", &ConnectionError{Message: fmt.Sprintf("target %s has no websocket debugger URL", want)}
				}
				return t.WebSocketDebuggerURL, nil
			}
		}
		return "", &ConnectionError{Message: fmt.Sprintf("target not found: %s", want)}
	}

	for _, t := range targets {
		if t.Type == "page" && t.WebSocketDebuggerURL != "" {
			return t.WebSocketDebuggerURL, nil
		}
	}
	return "", &ConnectionError{Message: "no debuggable page targets"}
}
