package ws

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	// ErrSendQueueFull is returned by Send when the peer is not draining its queue fast enough.
	ErrSendQueueFull = errors.New("send queue full")
	// ErrConnectionClosed is returned by Send after Close.
	ErrConnectionClosed = errors.New("connection closed")
)

// maxClientFrame bounds what a storefront may send; the channel is server-to-client only.
const maxClientFrame = 512

// connection is one storefront push connection. Frames queue in send and are written by writePump,
// the only writer of the socket.
type connection struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once

	writeTimeout time.Duration
	pingInterval time.Duration
	logger       *slog.Logger
}

func newConnection(id string, conn *websocket.Conn, queue int, writeTimeout, pingInterval time.Duration, logger *slog.Logger) *connection {
	return &connection{
		id:           id,
		conn:         conn,
		send:         make(chan []byte, queue),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		logger:       logger.With("conn_id", id),
	}
}

func (c *connection) ID() string {
	return c.id
}

// Send queues frame without blocking.
func (c *connection) Send(frame []byte) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return ErrConnectionClosed
	default:
		return ErrSendQueueFull
	}
}

// Close stops the write pump, which says goodbye to the peer and closes the socket. Safe to call more than once.
func (c *connection) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

// writePump writes queued frames and keepalive pings until the connection is closed or a write fails.
func (c *connection) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug("Write failed", "error", err)
				_ = c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("Ping failed", "error", err)
				_ = c.Close()
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(c.writeTimeout))
			return
		}
	}
}

// readPump discards client frames and returns once the peer is gone or stops answering pings.
func (c *connection) readPump() {
	defer func() { _ = c.Close() }()

	pongWait := 2 * c.pingInterval
	c.conn.SetReadLimit(maxClientFrame)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("Push connection closed unexpectedly", "error", err)
			}
			return
		}
	}
}
