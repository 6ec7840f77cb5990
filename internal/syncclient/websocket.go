package syncclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 10 * time.Second
	controlTimeout   = time.Second
	maxFrameSize     = 8 << 20
)

// WebsocketDialer dials the catalog push endpoint with gorilla/websocket.
type WebsocketDialer struct {
	dialer      *websocket.Dialer
	header      http.Header
	readTimeout time.Duration
}

// NewWebsocketDialer creates a dialer. A positive readTimeout closes connections that receive
// neither frames nor pings for that long.
func NewWebsocketDialer(readTimeout time.Duration, header http.Header) *WebsocketDialer {
	return &WebsocketDialer{
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
		header:      header,
		readTimeout: readTimeout,
	}
}

func (d *WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, resp, err := d.dialer.DialContext(ctx, url, d.header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	conn.SetReadLimit(maxFrameSize)

	wc := &wsConn{conn: conn, readTimeout: d.readTimeout}
	if d.readTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(d.readTimeout))
		conn.SetPingHandler(func(appData string) error {
			_ = conn.SetReadDeadline(time.Now().Add(d.readTimeout))
			err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(controlTimeout))
			if err == websocket.ErrCloseSent {
				return nil
			}
			return err
		})
	}
	return wc, nil
}

type wsConn struct {
	conn        *websocket.Conn
	readTimeout time.Duration
}

// ReadMessage returns the next text frame. Binary frames are skipped.
// A done ctx closes the underlying connection to unblock the read.
func (c *wsConn) ReadMessage(ctx context.Context) ([]byte, error) {
	stop := context.AfterFunc(ctx, func() { _ = c.conn.Close() })
	defer stop()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}
		if c.readTimeout > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		}
		if messageType != websocket.TextMessage {
			continue
		}
		return data, nil
	}
}

// Close sends a close frame when possible and releases the connection.
func (c *wsConn) Close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(controlTimeout))
	return c.conn.Close()
}
