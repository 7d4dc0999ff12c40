package cdp

import (
	"fmt"
	"strings"
	"time"
)

// ConnectionError covers websocket and HTTP discovery failures.
type ConnectionError struct {
	Message string
	Err     error
}

func (e *ConnectionError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "connection failed"
	}
	if e.Err != nil {
		return fmt.Sprintf("cdp connection error: %s: %v", msg, e.Err)
	}
	return "cdp connection error: " + msg
}

func (e *ConnectionError) Unwrap() error           { return e.Err }
func (e *ConnectionError) ConnectionFailure() bool { return true }

// TimeoutError means a command's response did not arrive within the
// configured command timeout.
type TimeoutError struct {
	Method  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("cdp timeout: %s did not complete within %v", e.Method, e.Timeout)
}

// CDPError carries a protocol-level error object returned by the browser.
// These are logical failures and are never retried.
type CDPError struct {
	Method  string
	Code    int
	Message string
}

func (e *CDPError) Error() string {
	return fmt.Sprintf("cdp error (method=%s code=%d): %s", e.Method, e.Code, e.Message)
}

// ProxyConfigError means the proxy settings themselves are unusable.
type ProxyConfigError struct {
	Message string
}

func (e *ProxyConfigError) Error() string {
	return "proxy configuration error: " + e.Message
}

// ProxyConnectionError is a TCP-level failure reaching the configured proxy.
type ProxyConnectionError struct {
	Proxy string
	Err   error
}

func (e *ProxyConnectionError) Error() string {
	return fmt.Sprintf("proxy connection error via %s: %v", e.Proxy, e.Err)
}

func (e *ProxyConnectionError) Unwrap() error           { return e.Err }
func (e *ProxyConnectionError) ConnectionFailure() bool { return true }
func (e *ProxyConnectionError) ProxyFailure() bool      { return true }
