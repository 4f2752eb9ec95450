//go:build linux
// +build linux

package node

import (
	"fmt"

	"github.com/OmriNaor/chatServer/log"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Pool owns every live connection plus the select interest sets. It is
// exclusively owned by the dispatcher goroutine; nothing here locks.
type Pool struct {
	conns map[int]*Conn

	// interest sets handed to select each cycle
	readSet  unix.FdSet
	writeSet unix.FdSet

	// snapshots select fills in with the ready subset
	readyRead  unix.FdSet
	readyWrite unix.FdSet

	maxFd  int // high watermark, -1 until Track
	nready int // ready-descriptor budget for the current cycle
	count  int
}

func NewPool() *Pool {
	return &Pool{
		conns: make(map[int]*Conn),
		maxFd: -1,
	}
}

// Track adds a non-connection descriptor (the listener, the wakeup pipe)
// to the read-interest set and raises the high watermark if needed.
func (p *Pool) Track(fd int) {
	p.readSet.Set(fd)
	if fd > p.maxFd {
		p.maxFd = fd
	}
}

// Add registers a freshly accepted fd as a connection with read
// interest. On failure the caller still owns fd and must close it to
// avoid a descriptor leak.
func (p *Pool) Add(fd int, ip string) (*Conn, error) {
	if fd < 0 || fd >= unix.FD_SETSIZE {
		return nil, fmt.Errorf("fd %d outside select range [0, %d)", fd, unix.FD_SETSIZE)
	}
	if _, ok := p.conns[fd]; ok {
		return nil, fmt.Errorf("fd %d already tracked", fd)
	}

	conn := newConn(fd, ip)
	p.conns[fd] = conn
	p.readSet.Set(fd)
	p.count++
	return conn, nil
}

// Remove releases every queued message, clears both interest bits,
// closes the descriptor and forgets the connection. Safe to call while
// ranging over the pool.
func (p *Pool) Remove(fd int) error {
	conn, ok := p.conns[fd]
	if !ok {
		return ErrNotFound
	}

	conn.outbound.Empty()
	delete(p.conns, fd)
	p.readSet.Clear(fd)
	p.writeSet.Clear(fd)
	if err := unix.Close(fd); err != nil {
		log.Logger.Warn("close connection fd", zap.Int("fd", fd), zap.Error(err))
	}
	p.count--
	return nil
}

// RecomputeMaxFd rescans every tracked connection and resets the high
// watermark to max(floor, connection fds). Removal can lower the
// watermark, so it is never maintained incrementally. floor covers the
// descriptors registered through Track.
func (p *Pool) RecomputeMaxFd(floor int) {
	maxFd := floor
	for fd := range p.conns {
		if fd > maxFd {
			maxFd = fd
		}
	}
	p.maxFd = maxFd
}

// MarkWritable flags fd for the next writability check. Idempotent.
func (p *Pool) MarkWritable(fd int) {
	p.writeSet.Set(fd)
}

// ClearWritable drops fd from the writability check. Idempotent.
func (p *Pool) ClearWritable(fd int) {
	p.writeSet.Clear(fd)
}

// Writable reports whether fd currently has write interest.
func (p *Pool) Writable(fd int) bool {
	return p.writeSet.IsSet(fd)
}

// Get returns the connection for fd.
func (p *Pool) Get(fd int) (*Conn, bool) {
	conn, ok := p.conns[fd]
	return conn, ok
}

// Count returns the number of live connections.
func (p *Pool) Count() int {
	return p.count
}

// MaxFd returns the high watermark.
func (p *Pool) MaxFd() int {
	return p.maxFd
}
