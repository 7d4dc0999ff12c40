package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/frago-dev/frago/internal/retry"
)

const readerJoinTimeout = 5 * time.Second

// EventHandler receives the params object of a CDP event. Handlers run on
// the reader goroutine and must not block.
type EventHandler func(params map[string]any)

// Session owns one websocket to a browser target and multiplexes
// request/response pairs and events on it.
type Session struct {
	cfg Config
	log zerolog.Logger

	conn *websocket.Conn

	idMu   sync.Mutex
	nextID int

	pendingMu sync.Mutex
	pending   map[int]chan map[string]any

	handlerMu sync.Mutex
	handlers  map[string]EventHandler

	writeMu sync.Mutex

	closeOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// Connect discovers a target, dials its websocket (through the configured
// proxy when one applies), and starts the reader goroutine. Transient
// discovery and dial failures are retried per the session's retry settings.
func Connect(ctx context.Context, cfg Config, log zerolog.Logger) (*Session, error) {
	cfg = cfg.withDefaults()

	policy := retry.Connection()
	policy.MaxRetries = cfg.MaxRetries
	policy.BaseDelay = cfg.RetryDelay
	policy.Logger = log

	var conn *websocket.Conn
	err := policy.Execute(ctx, func() error {
		wsURL, err := resolveWebSocketURL(ctx, cfg)
		if err != nil {
			return err
		}
		c, err := dial(ctx, cfg, wsURL)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:      cfg,
		log:      log,
		conn:     conn,
		pending:  map[int]chan map[string]any{},
		handlers: map[string]EventHandler{},
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

func dial(ctx context.Context, cfg Config, wsURL string) (*websocket.Conn, error) {
	proxy, err := cfg.proxyURL()
	if err != nil {
		return nil, err
	}
	dialer := websocket.Dialer{HandshakeTimeout: cfg.ConnectTimeout}
	if proxy != nil {
		dialer.Proxy = http.ProxyURL(proxy)
	}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if proxy != nil {
			if _, ok := err.(net.Error); ok {
				return nil, &ProxyConnectionError{Proxy: proxy.Host, Err: err}
			}
		}
		return nil, &ConnectionError{Message: "dial " + wsURL, Err: err}
	}
	return conn, nil
}

// Call sends {id, method, params} and waits for the response whose id
// matches, up to the command timeout. The full decoded response object is
// returned; a protocol "error" member becomes a CDPError.
func (s *Session) Call(ctx context.Context, method string, params map[string]any) (map[string]any, error) {
	id := s.nextRequestID()
	ch := make(chan map[string]any, 1)

	s.pendingMu.Lock()
	s.pending[id] = ch
	s.pendingMu.Unlock()
	defer func() {
		s.pendingMu.Lock()
		delete(s.pending, id)
		s.pendingMu.Unlock()
	}()

	frame := map[string]any{"id": id, "method": method}
	if params == nil {
		params = map[string]any{}
	}
	frame["params"] = params
	payload, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", method, err)
	}

	s.writeMu.Lock()
	werr := s.conn.WriteMessage(websocket.TextMessage, payload)
	s.writeMu.Unlock()
	if werr != nil {
		return nil, &ConnectionError{Message: "write " + method, Err: werr}
	}

	timer := time.NewTimer(s.cfg.CommandTimeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		if errObj, ok := resp["error"].(map[string]any); ok {
			code := 0
			if c, ok := errObj["code"].(float64); ok {
				code = int(c)
			}
			msg, _ := errObj["message"].(string)
			return nil, &CDPError{Method: method, Code: code, Message: msg}
		}
		return resp, nil
	case <-timer.C:
		return nil, &TimeoutError{Method: method, Timeout: s.cfg.CommandTimeout}
	case <-s.done:
		return nil, &ConnectionError{Message: "connection closed while waiting for " + method}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// OnEvent registers the handler for a CDP event method. At most one handler
// per method; a second registration replaces the first.
func (s *Session) OnEvent(method string, h EventHandler) {
	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()
	if h == nil {
		delete(s.handlers, method)
		return
	}
	s.handlers[method] = h
}

// RemoveEventHandler unregisters the handler for method, if any.
func (s *Session) RemoveEventHandler(method string) {
	s.OnEvent(method, nil)
}

// Health verifies the session end to end by evaluating the expression "1".
func (s *Session) Health(ctx context.Context) bool {
	resp, err := s.Call(ctx, "Runtime.evaluate", map[string]any{"expression": "1"})
	if err != nil {
		return false
	}
	_, ok := resp["result"].(map[string]any)
	return ok
}

// Close is idempotent and safe under concurrent use. It stops the reader,
// waits for it to exit, and closes the socket, ignoring close errors.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		_ = s.conn.Close()
		select {
		case <-s.done:
		case <-time.After(readerJoinTimeout):
			s.log.Warn().Msg("cdp reader did not exit before join timeout")
		}
	})
}

func (s *Session) nextRequestID() int {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	s.nextID++
	return s.nextID
}

// readLoop moves frames off the socket: responses complete their pending
// waiter by id, events dispatch to the registered handler in arrival order.
// Anything else is noise and is dropped.
func (s *Session) readLoop() {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		default:
		}
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.stop:
			default:
				s.log.Debug().Err(err).Msg("cdp socket closed")
			}
			return
		}
		s.dispatch(data)
	}
}

func (s *Session) dispatch(data []byte) {
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		s.log.Debug().Err(err).Msg("dropping undecodable cdp frame")
		return
	}

	if rawID, ok := msg["id"].(float64); ok {
		id := int(rawID)
		s.pendingMu.Lock()
		ch, ok := s.pending[id]
		if ok {
			delete(s.pending, id)
		}
		s.pendingMu.Unlock()
		if ok {
			ch <- msg
		}
		return
	}

	method, ok := msg["method"].(string)
	if !ok {
		return
	}
	s.handlerMu.Lock()
	h := s.handlers[method]
	s.handlerMu.Unlock()
	if h == nil {
		return
	}
	params, _ := msg["params"].(map[string]any)
	func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Warn().Str("method", method).Interface("panic", r).
					Msg("event handler panicked; swallowed")
			}
		}()
		h(params)
	}()
}
