package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gogotex/collabedit/internal/collab"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Client is one websocket connection attached to the router.
type Client struct {
	id     string
	conn   *websocket.Conn
	router *collab.Router
	log    *zap.Logger

	maxMessageBytes int64

	mu     sync.Mutex
	send   chan collab.Outbound
	closed bool
}

func newClient(conn *websocket.Conn, router *collab.Router, log *zap.Logger, opts Options) *Client {
	id := uuid.NewString()
	return &Client{
		id:              id,
		conn:            conn,
		router:          router,
		log:             log.With(zap.String("conn", id)),
		maxMessageBytes: opts.MaxMessageBytes,
		send:            make(chan collab.Outbound, opts.SendBuffer),
	}
}

func (c *Client) ID() string { return c.id }

// Send enqueues o without blocking. It returns false when the buffer is full or the
// client already shut down.
func (c *Client) Send(o collab.Outbound) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- o:
		return true
	default:
		return false
	}
}

func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadPump reads frames until the connection drops and hands them to a separate
// handler goroutine, so pongs are still read while an event is being handled. Once the
// reader stops, the handler drains what was read and disconnects the client from its room.
func (c *Client) ReadPump(ctx context.Context) {
	frames := make(chan []byte, cap(c.send))
	handled := make(chan struct{})
	go func() {
		defer close(handled)
		c.handle(ctx, frames)
	}()
	defer func() {
		close(frames)
		c.conn.Close()
		<-handled
	}()

	c.conn.SetReadLimit(c.maxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		frames <- message
	}
}

// handle passes frames to the router in arrival order.
func (c *Client) handle(ctx context.Context, frames <-chan []byte) {
	defer func() {
		c.router.Disconnect(ctx, c.id)
		c.shutdown()
	}()
	for message := range frames {
		c.router.HandleRaw(ctx, c.id, message)
	}
}

// WritePump drains the send buffer to the connection and keeps it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			data, err := json.Marshal(message)
			if err != nil {
				c.log.Error("failed to marshal outbound event", zap.String("event", message.Event), zap.Error(err))
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Debug("websocket write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
