//go:build linux
// +build linux

package node

import (
	"github.com/OmriNaor/chatServer/metrics"
)

// Distributor fans one sender's payload out to every other connection.
type Distributor struct {
	pool *Pool
}

func NewDistributor(pool *Pool) *Distributor {
	return &Distributor{pool: pool}
}

// Broadcast appends an independent copy of payload to every connection
// except the sender and marks each recipient write-interested. Each
// recipient owns its copy and releases it independently; no payload
// bytes are shared across queues. Iteration order over recipients is
// unspecified, but within one queue message order equals broadcast-call
// order.
func (d *Distributor) Broadcast(senderFd int, payload []byte) {
	for fd, conn := range d.pool.conns {
		if fd == senderFd {
			continue
		}
		conn.enqueue(NewMessage(payload))
		d.pool.MarkWritable(fd)
		metrics.MessagesQueued.Inc()
	}
}
