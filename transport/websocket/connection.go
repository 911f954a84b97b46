package websocket

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = time.Minute
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	outboxSize     = 64
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSlowConsumer     = errors.New("connection outbox is full")
)

// connection adapts a websocket to session.Conn. Frames are written by writePump only.
type connection struct {
	socket *websocket.Conn
	outbox chan []byte
	closed chan struct{}
	once   sync.Once
}

func newConnection(socket *websocket.Conn) *connection {
	socket.SetReadLimit(maxMessageSize)
	_ = socket.SetReadDeadline(time.Now().Add(pongWait))
	socket.SetPongHandler(func(string) error {
		return socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	return &connection{
		socket: socket,
		outbox: make(chan []byte, outboxSize),
		closed: make(chan struct{}),
	}
}

// Send - queues a frame, never blocks.
func (that *connection) Send(data []byte) error {
	select {
	case <-that.closed:
		return ErrConnectionClosed
	default:
	}

	select {
	case that.outbox <- data:
		return nil
	default:
		return ErrSlowConsumer
	}
}

// Close - the queued frames are flushed before the socket goes down.
func (that *connection) Close() error {
	that.once.Do(func() {
		close(that.closed)
	})

	return nil
}

func (that *connection) read() ([]byte, error) {
	_, data, err := that.socket.ReadMessage()
	return data, err
}

func (that *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = that.socket.Close()
	}()

	for {
		select {
		case data := <-that.outbox:
			if err := that.write(websocket.TextMessage, data); err != nil {
				_ = that.Close()
				return
			}
		case <-ticker.C:
			if err := that.write(websocket.PingMessage, nil); err != nil {
				_ = that.Close()
				return
			}
		case <-that.closed:
			that.flush()
			_ = that.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (that *connection) flush() {
	for {
		select {
		case data := <-that.outbox:
			if err := that.write(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (that *connection) write(messageType int, data []byte) error {
	if err := that.socket.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return that.socket.WriteMessage(messageType, data)
}
