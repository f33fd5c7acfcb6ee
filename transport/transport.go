// Package transport frames the wire protocol over a websocket connection:
// each message is a u64 big-endian length prefix followed by a JSON tagged
// envelope, written as one websocket binary frame. The length prefix is
// redundant with the websocket frame's own length, kept so the format
// stays meaningful if the transport is ever swapped for a raw stream.
//
// Grounded on the teacher's network/broadcast.go (ClientConnection, the
// buffered writer goroutine, non-blocking send-with-drop) and
// network/protocol.go (the websocket read loop, Message{E,D} envelope),
// generalized from its ad hoc per-event structs to an explicit
// length-prefixed, tag-dispatched envelope.
package transport

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Envelope is the tagged message shape every frame carries, matching the
// teacher's Message{E,D} with names adapted to this protocol's vocabulary.
type Envelope struct {
	Tag  string          `json:"tag"`
	Data json.RawMessage `json:"data"`
}

// Encode marshals v as data and wraps it with tag into an Envelope.
func Encode(tag string, v interface{}) (Envelope, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Envelope{}, fmt.Errorf("encoding %s payload: %w", tag, err)
	}
	return Envelope{Tag: tag, Data: data}, nil
}

// Decode unmarshals e's data into v.
func Decode(e Envelope, v interface{}) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decoding %s payload: %w", e.Tag, err)
	}
	return nil
}

// Upgrader is the shared websocket upgrader; kept as a package var the way
// the teacher's main.go configures a single upgrader for every connection.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// writeTimeout bounds how long a single frame write may block before the
// connection is considered dead.
const writeTimeout = 10 * time.Second

// sendBufferSize is the per-connection outbound queue depth; once full,
// further sends are dropped rather than blocking the broadcaster, matching
// the teacher's ClientConnection.SendChan discipline.
const sendBufferSize = 64

// Conn wraps one upgraded websocket connection with a dedicated writer
// goroutine so a slow client can never block whoever is broadcasting to
// it.
type Conn struct {
	ws       *websocket.Conn
	sendCh   chan []byte
	closeMu  sync.Mutex
	closed   bool
	closedCh chan struct{}
}

// NewConn wraps ws and starts its writer goroutine.
func NewConn(ws *websocket.Conn) *Conn {
	c := &Conn{
		ws:       ws,
		sendCh:   make(chan []byte, sendBufferSize),
		closedCh: make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

func frame(e Envelope) ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshalling envelope: %w", err)
	}
	out := make([]byte, 8+len(body))
	binary.BigEndian.PutUint64(out[:8], uint64(len(body)))
	copy(out[8:], body)
	return out, nil
}

// Send queues e for delivery, dropping it silently if the connection's
// outbound buffer is full (a stalled client must never stall the sender).
func (c *Conn) Send(e Envelope) error {
	frameBytes, err := frame(e)
	if err != nil {
		return err
	}
	select {
	case c.sendCh <- frameBytes:
	default:
	}
	return nil
}

func (c *Conn) writeLoop() {
	for b := range c.sendCh {
		if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			break
		}
		if err := c.ws.WriteMessage(websocket.BinaryMessage, b); err != nil {
			break
		}
	}
}

// Recv blocks for the next frame from the client, parsing its length
// prefix and JSON envelope. Read errors from the websocket are returned
// unchanged (a *websocket.CloseError on a clean close).
func (c *Conn) Recv() (Envelope, error) {
	_, raw, err := c.ws.ReadMessage()
	if err != nil {
		return Envelope{}, err
	}
	if len(raw) < 8 {
		return Envelope{}, fmt.Errorf("frame shorter than length prefix: %d bytes", len(raw))
	}
	length := binary.BigEndian.Uint64(raw[:8])
	body := raw[8:]
	if uint64(len(body)) != length {
		return Envelope{}, fmt.Errorf("frame length mismatch: prefix=%d body=%d", length, len(body))
	}
	var e Envelope
	if err := json.Unmarshal(body, &e); err != nil {
		return Envelope{}, fmt.Errorf("unmarshalling envelope: %w", err)
	}
	return e, nil
}

// Done returns a channel closed once the connection has been shut down,
// so callers can wait for cleanup without polling.
func (c *Conn) Done() <-chan struct{} {
	return c.closedCh
}

// Close shuts the connection down: stops the writer goroutine and closes
// the underlying websocket. Safe to call more than once.
func (c *Conn) Close() error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.sendCh)
	close(c.closedCh)
	return c.ws.Close()
}
