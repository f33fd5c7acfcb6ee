package session

import (
	"github.com/est31/mimas-go/transport"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// recvBufferSize bounds how many not-yet-processed frames a connection may
// queue before its reader goroutine blocks. It has the same depth as the
// transport package's sendBufferSize, but where that buffer drops frames
// when full, this one makes the reader wait.
const recvBufferSize = 64

// conn pairs a transport.Conn with a dedicated reader goroutine that feeds
// a buffered channel, so the single-threaded server main loop can drain it
// with a non-blocking try_recv instead of calling Recv directly (which
// would block the loop on socket I/O). Grounded on the concurrency model's
// "network transport worker(s) ... the server polls a non-blocking
// try_recv".
type conn struct {
	id      uuid.UUID
	tc      *transport.Conn
	recvCh  chan transport.Envelope
	closeCh chan struct{}
}

func newConn(tc *transport.Conn) *conn {
	c := &conn{
		id:      uuid.New(),
		tc:      tc,
		recvCh:  make(chan transport.Envelope, recvBufferSize),
		closeCh: make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *conn) readLoop() {
	defer close(c.closeCh)
	for {
		e, err := c.tc.Recv()
		if err != nil {
			logrus.WithField("conn", c.id).WithError(err).Debug("connection closed")
			return
		}
		c.recvCh <- e
	}
}

// tryRecv returns the next queued envelope without blocking, mirroring the
// reference's try_recv.
func (c *conn) tryRecv() (transport.Envelope, bool) {
	select {
	case e := <-c.recvCh:
		return e, true
	default:
		return transport.Envelope{}, false
	}
}

// dead reports whether the reader goroutine has observed the connection
// close.
func (c *conn) dead() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}

func (c *conn) send(tag string, payload interface{}) error {
	e, err := transport.Encode(tag, payload)
	if err != nil {
		return err
	}
	return c.tc.Send(e)
}

func (c *conn) close() {
	_ = c.tc.Close()
}
