package events

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

var ErrSinkClosed = errors.New("event sink closed")

// HeaderProvider injects handshake headers (e.g. a gateway token).
type HeaderProvider func() map[string]string

// WebSocket pushes updates as JSON frames to a gateway. The connection is
// dialled lazily and re-dialled once per publish after a write failure.
type WebSocket struct {
	url     string
	headers HeaderProvider
	logger  *zap.Logger

	dialTimeout  time.Duration
	writeTimeout time.Duration

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

func NewWebSocket(url string, headers HeaderProvider, logger *zap.Logger) *WebSocket {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocket{
		url:          url,
		headers:      headers,
		logger:       logger,
		dialTimeout:  5 * time.Second,
		writeTimeout: 3 * time.Second,
	}
}

func (ws *WebSocket) Publish(ctx context.Context, u StateUpdate) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.closed {
		return ErrSinkClosed
	}

	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		if ws.conn == nil {
			if err := ws.dial(ctx); err != nil {
				lastErr = err
				continue
			}
		}
		wctx, cancel := context.WithTimeout(ctx, ws.writeTimeout)
		err := wsjson.Write(wctx, ws.conn, u)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		ws.logger.Warn("events_ws_write_error", zap.String("match_id", u.MatchID), zap.Int("attempt", attempt), zap.Error(err))
		ws.closeConn(websocket.StatusGoingAway, "reconnect")
	}
	return lastErr
}

func (ws *WebSocket) dial(ctx context.Context) error {
	dctx, cancel := context.WithTimeout(ctx, ws.dialTimeout)
	defer cancel()
	conn, _, err := websocket.Dial(dctx, ws.url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      ws.buildHeaders(),
	})
	if err != nil {
		return err
	}
	ws.conn = conn
	ws.logger.Info("events_ws_connected", zap.String("url", ws.url))
	return nil
}

func (ws *WebSocket) Close() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.closed = true
	return ws.closeConn(websocket.StatusNormalClosure, "close")
}

func (ws *WebSocket) closeConn(code websocket.StatusCode, reason string) error {
	if ws.conn == nil {
		return nil
	}
	defer func() { ws.conn = nil }()
	return ws.conn.Close(code, reason)
}

func (ws *WebSocket) buildHeaders() http.Header {
	hdr := http.Header{}
	if ws.headers == nil {
		return hdr
	}
	for k, v := range ws.headers() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}
