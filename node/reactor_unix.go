//go:build linux
// +build linux

package node

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/OmriNaor/chatServer/log"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Reactor binds a TCP listener to the select loop.
type Reactor struct {
	ctx    context.Context
	ln     net.Listener
	lnFile *os.File // keeps the dup'd listener fd alive for the loop
	poll   *Poll
}

func NewReactor(ctx context.Context, ln net.Listener, transform Transform, readBufferSize int) (*Reactor, error) {
	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		return nil, fmt.Errorf("listener must be TCP, got %T", ln)
	}

	// File dups the descriptor; the loop owns the dup, the caller keeps
	// the original listener.
	f, err := tcpLn.File()
	if err != nil {
		log.Logger.Error("get listener fd", zap.Error(err))
		return nil, err
	}

	lnFd := int(f.Fd())
	if err := unix.SetNonblock(lnFd, true); err != nil {
		f.Close()
		return nil, err
	}

	if transform == nil {
		transform = UpperASCII
	}

	poll, err := NewPoll(ctx, lnFd, transform, readBufferSize)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Reactor{ctx: ctx, ln: ln, lnFile: f, poll: poll}, nil
}

// Run blocks until ctx is cancelled, then tears the loop down.
func (r *Reactor) Run() error {
	stopped := make(chan struct{})
	defer close(stopped)

	go func() {
		select {
		case <-r.ctx.Done():
			r.poll.Wake()
		case <-stopped:
		}
	}()

	err := r.poll.Run()
	log.Logger.Info("reactor closed")
	return err
}

// Pool exposes the registry for inspection.
func (r *Reactor) Pool() *Pool {
	return r.poll.pool
}
