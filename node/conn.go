package node

import "github.com/google/uuid"

// Conn is one live client connection tracked by the pool. The fd doubles
// as its identity; the session id only exists to correlate log lines
// across the connection's lifetime.
type Conn struct {
	fd       int
	ip       string
	session  string
	outbound *List[*Message]
}

func newConn(fd int, ip string) *Conn {
	return &Conn{
		fd:       fd,
		ip:       ip,
		session:  uuid.NewString(),
		outbound: NewList[*Message](),
	}
}

// Fd returns the file descriptor of the connection.
func (c *Conn) Fd() int {
	return c.fd
}

// Ip returns the ip of the connection.
func (c *Conn) Ip() string {
	return c.ip
}

func (c *Conn) Session() string {
	return c.session
}

// Pending returns the number of queued outbound messages.
func (c *Conn) Pending() int {
	return c.outbound.Len()
}

// enqueue appends msg to the outbound queue. Send order is insertion
// order.
func (c *Conn) enqueue(msg *Message) {
	c.outbound.AddNodeTail(msg)
}
