//go:build linux
// +build linux

package node

import (
	"context"
	"net"
	"os"

	"github.com/OmriNaor/chatServer/log"
	"github.com/OmriNaor/chatServer/metrics"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Poll drives the select loop. One goroutine owns it end to end: every
// mutation of the pool and of any outbound queue happens between two
// Select calls, so nothing here locks. The only suspension point is the
// blocking Select itself; every tracked descriptor is non-blocking.
type Poll struct {
	ctx  context.Context
	pool *Pool
	dist *Distributor

	lnFd  int
	wakeR int // self-pipe read end, lives in the read-interest set
	wakeW int
	floor int // max(lnFd, wakeR); lower bound for the high watermark

	transform Transform
	readBuf   []byte

	// syscall seams, swapped in tests
	acceptFd func(fd int) (int, unix.Sockaddr, error)
	readFd   func(fd int, p []byte) (int, error)
	writeFd  func(fd int, p []byte) (int, error)
}

func NewPoll(ctx context.Context, lnFd int, transform Transform, readBufferSize int) (*Poll, error) {
	var pipeFds [2]int
	if err := unix.Pipe(pipeFds[:]); err != nil {
		return nil, os.NewSyscallError("pipe", err)
	}
	for _, fd := range pipeFds {
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(pipeFds[0])
			unix.Close(pipeFds[1])
			return nil, os.NewSyscallError("set nonblock", err)
		}
	}

	pool := NewPool()
	pool.Track(lnFd)
	pool.Track(pipeFds[0])

	p := &Poll{
		ctx:       ctx,
		pool:      pool,
		dist:      NewDistributor(pool),
		lnFd:      lnFd,
		wakeR:     pipeFds[0],
		wakeW:     pipeFds[1],
		transform: transform,
		readBuf:   make([]byte, readBufferSize),
		acceptFd:  unix.Accept,
		readFd:    unix.Read,
		writeFd:   unix.Write,
	}
	p.floor = lnFd
	if p.wakeR > p.floor {
		p.floor = p.wakeR
	}
	return p, nil
}

// Wake forces a blocked Select to return so the loop can observe a
// cancelled context at the top of the next cycle.
func (p *Poll) Wake() {
	_, _ = unix.Write(p.wakeW, []byte{0})
}

// Run blocks until ctx is cancelled. The stop request is honored only
// between cycles, never mid-dispatch.
func (p *Poll) Run() error {
	defer p.closeAll()

	for {
		select {
		case <-p.ctx.Done():
			log.Logger.Info("stop requested, exiting event loop")
			return nil
		default:
		}

		// Snapshot the interest sets; select mutates its arguments.
		p.pool.readyRead = p.pool.readSet
		p.pool.readyWrite = p.pool.writeSet

		// Level-triggered, no timeout: a connection with unread data or
		// pending writes keeps being reported until drained.
		n, err := unix.Select(p.pool.maxFd+1, &p.pool.readyRead, &p.pool.readyWrite, nil, nil)
		if err != nil {
			// EINTR under signal delivery and friends: re-poll.
			log.Logger.Warn("select", zap.Error(err))
			continue
		}
		p.pool.nready = n

		p.dispatch()
	}
}

// dispatch services every ready descriptor in ascending fd order. The
// nready budget short-circuits the scan once all ready descriptors have
// been handled; it is an optimization and never skips a ready fd.
func (p *Poll) dispatch() {
	for fd := 0; fd <= p.pool.maxFd && p.pool.nready > 0; fd++ {
		if p.pool.readyRead.IsSet(fd) {
			switch fd {
			case p.wakeR:
				p.drainWakePipe()
			case p.lnFd:
				p.acceptOne()
			default:
				p.readFrom(fd)
			}
			p.pool.nready--
		}

		// A descriptor handled for read in this cycle still gets its
		// drain if it is also write-ready.
		if p.pool.readyWrite.IsSet(fd) {
			p.drainTo(fd)
			p.pool.nready--
		}
	}
}

// acceptOne accepts exactly one pending connection. Readiness is level
// triggered, so a backlog of N pending connections yields N ready
// events; there is nothing to drain here.
func (p *Poll) acceptOne() {
	connFd, sa, err := p.acceptFd(p.lnFd)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return
		}
		log.Logger.Error("accept", zap.Error(err))
		return
	}

	if err := unix.SetNonblock(connFd, true); err != nil {
		log.Logger.Error("set nonblock", zap.Int("fd", connFd), zap.Error(err))
		unix.Close(connFd)
		return
	}

	conn, err := p.pool.Add(connFd, ipOf(sa))
	if err != nil {
		// The pool never saw the fd; close it here or it leaks.
		log.Logger.Error("register connection", zap.Int("fd", connFd), zap.Error(err))
		unix.Close(connFd)
		return
	}

	p.pool.RecomputeMaxFd(p.floor)
	metrics.ConnectionsAccepted.Inc()
	metrics.ActiveConnections.Inc()

	log.Logger.Info("new connection",
		zap.Int("fd", connFd),
		zap.String("ip", conn.Ip()),
		zap.String("session", conn.Session()))
}

// readFrom performs a single bounded read. Whatever one read returns is
// one broadcast unit; payloads are never reassembled across reads.
func (p *Poll) readFrom(fd int) {
	n, err := p.readFd(fd, p.readBuf)

	switch {
	case err != nil:
		if err == unix.EAGAIN || err == unix.EINTR {
			return
		}
		// Hard read error. Leaving the connection tracked would make
		// select report it readable forever, so it is reaped like an
		// orderly close.
		log.Logger.Warn("read error, removing connection", zap.Int("fd", fd), zap.Error(err))
		p.removeConn(fd)

	case n == 0:
		log.Logger.Info("connection closed by peer", zap.Int("fd", fd))
		p.removeConn(fd)

	default:
		metrics.BytesIn.Add(float64(n))
		payload := p.readBuf[:n]
		p.transform(payload)
		p.dist.Broadcast(fd, payload)
	}
}

// drainTo writes fd's queue head-to-tail. A short or failed write is a
// hard error for that connection: the failed message and everything
// behind it stay queued and write-interest stays set, so the condition
// persists until the read path reaps the connection.
func (p *Poll) drainTo(fd int) {
	conn, ok := p.pool.Get(fd)
	if !ok {
		// Removed earlier in this same cycle.
		return
	}

	for conn.outbound.Head != nil {
		msg := conn.outbound.Head.Value
		n, err := p.writeFd(fd, msg.Payload())
		if err != nil || n < msg.Size() {
			log.Logger.Warn("write to client failed",
				zap.Int("fd", fd),
				zap.Int("written", n),
				zap.Error(err))
			return
		}
		metrics.BytesOut.Add(float64(n))
		conn.outbound.PopHead()
	}

	p.pool.ClearWritable(fd)
}

func (p *Poll) removeConn(fd int) {
	if err := p.pool.Remove(fd); err != nil {
		log.Logger.Warn("remove connection", zap.Int("fd", fd), zap.Error(err))
		return
	}
	p.pool.RecomputeMaxFd(p.floor)
	metrics.ConnectionsRemoved.Inc()
	metrics.ActiveConnections.Dec()
	log.Logger.Info("removed connection", zap.Int("fd", fd), zap.Int("live", p.pool.Count()))
}

func (p *Poll) drainWakePipe() {
	var buf [64]byte
	for {
		if _, err := unix.Read(p.wakeR, buf[:]); err != nil {
			return
		}
	}
}

// closeAll tears everything down: every connection's queue is released
// (unsent messages discarded) and every descriptor is closed, the
// listener and the wake pipe included.
func (p *Poll) closeAll() {
	var errs MultiError

	for fd := range p.pool.conns {
		log.Logger.Info("removing connection", zap.Int("fd", fd))
		if err := p.pool.Remove(fd); err != nil {
			errs = append(errs, err)
		}
	}
	metrics.ActiveConnections.Set(0)

	if err := CloseFd(p.lnFd); err != nil {
		errs = append(errs, err)
	}
	unix.Close(p.wakeR)
	unix.Close(p.wakeW)

	if len(errs) > 0 {
		log.Logger.Warn("teardown", zap.Error(errs))
	}
}

func ipOf(sa unix.Sockaddr) string {
	switch addr := sa.(type) {
	case *unix.SockaddrInet4:
		return net.IPv4(addr.Addr[0], addr.Addr[1], addr.Addr[2], addr.Addr[3]).String()
	case *unix.SockaddrInet6:
		return net.IP(addr.Addr[:]).String()
	default:
		return ""
	}
}
