package tcp

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type ITCPConnection interface {
	Id() string
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	Address() string
	IsLive() bool
	SetReadDeadline(t time.Time) error
	OnClose(func(*TCPConnection))
	String() string
}

// TCPConnection is a net.Conn with an id for logging and an idempotent
// Close that notifies a single close callback.
type TCPConnection struct {
	id        string
	conn      net.Conn
	closed    atomic.Bool
	closeOnce sync.Once
	cbLock    sync.Mutex
	onCloseCb func(*TCPConnection)
}

func NewTCPConnection(conn net.Conn) *TCPConnection {
	return &TCPConnection{
		id:   uuid.NewString(),
		conn: conn,
	}
}

func (c *TCPConnection) Id() string {
	return c.id
}

func (c *TCPConnection) Read(p []byte) (int, error) {
	return c.conn.Read(p)
}

func (c *TCPConnection) Write(p []byte) (int, error) {
	return c.conn.Write(p)
}

func (c *TCPConnection) Close() (err error) {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		err = c.conn.Close()
		c.cbLock.Lock()
		cb := c.onCloseCb
		c.cbLock.Unlock()
		if cb != nil {
			cb(c)
		}
	})
	return
}

func (c *TCPConnection) OnClose(cb func(*TCPConnection)) {
	c.cbLock.Lock()
	defer c.cbLock.Unlock()
	c.onCloseCb = cb
}

func (c *TCPConnection) Address() string {
	return c.conn.RemoteAddr().String()
}

func (c *TCPConnection) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

func (c *TCPConnection) IsLive() bool {
	return !c.closed.Load()
}

func (c *TCPConnection) String() string {
	return fmt.Sprintf("conn[%s@%s]", c.id[:8], c.Address())
}
