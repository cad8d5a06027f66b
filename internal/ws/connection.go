package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

var (
	ErrClosed       = errors.New("connection closed")
	ErrSlowConsumer = errors.New("send buffer full")
)

type Settings struct {
	PingInterval   time.Duration
	WriteDeadline  time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

func (s *Settings) setDefaults() {
	if s.PingInterval <= 0 {
		s.PingInterval = 25 * time.Second
	}
	if s.WriteDeadline <= 0 {
		s.WriteDeadline = 10 * time.Second
	}
	if s.MaxMessageSize <= 0 {
		s.MaxMessageSize = 4096
	}
	if s.SendBuffer <= 0 {
		s.SendBuffer = 32
	}
}

// Connection is a live notification channel over a websocket. Writes are
// queued on a bounded buffer drained by the write pump; a full buffer drops
// the message.
type Connection struct {
	id        string
	ws        *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	settings  Settings
}

func NewConnection(conn *websocket.Conn, settings Settings) *Connection {
	settings.setDefaults()
	return &Connection{
		id:       uuid.NewString(),
		ws:       conn,
		send:     make(chan []byte, settings.SendBuffer),
		done:     make(chan struct{}),
		settings: settings,
	}
}

func (c *Connection) ID() string            { return c.id }
func (c *Connection) Done() <-chan struct{} { return c.done }

func (c *Connection) Write(msg []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- msg:
		return nil
	case <-c.done:
		return ErrClosed
	default:
		return ErrSlowConsumer
	}
}

// Close marks the channel done; the pumps exit and the socket is closed.
func (c *Connection) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Run drives the connection until either pump stops. It blocks, as the
// websocket handler must not return while the socket is in use.
func (c *Connection) Run() {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump()
	}()
	c.readPump()
	<-writerDone
	_ = c.ws.Close()
}

func (c *Connection) readTimeout() time.Duration {
	return 2 * c.settings.PingInterval
}

// readPump only services control frames; clients have nothing to send.
func (c *Connection) readPump() {
	defer c.Close()
	c.ws.SetReadLimit(c.settings.MaxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.readTimeout()))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.readTimeout()))
	})
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
		select {
		case <-c.done:
			return
		default:
		}
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.settings.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			// unblock the reader
			_ = c.ws.SetReadDeadline(time.Now())
			return
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.settings.WriteDeadline))
			w, err := c.ws.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			if _, err := w.Write(msg); err != nil {
				_ = w.Close()
				return
			}
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.settings.WriteDeadline)); err != nil {
				return
			}
		}
	}
}
