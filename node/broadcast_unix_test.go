//go:build linux
// +build linux

package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addTestConn(t *testing.T, pool *Pool) *Conn {
	t.Helper()
	fd, _ := testSocketpair(t)
	conn, err := pool.Add(fd, "")
	require.NoError(t, err)
	t.Cleanup(func() { pool.Remove(fd) })
	return conn
}

func TestBroadcastSkipsSender(t *testing.T) {
	pool := NewPool()
	dist := NewDistributor(pool)

	sender := addTestConn(t, pool)
	a := addTestConn(t, pool)
	b := addTestConn(t, pool)
	c := addTestConn(t, pool)

	dist.Broadcast(sender.Fd(), []byte("HI"))

	assert.Equal(t, 0, sender.Pending())
	assert.False(t, pool.Writable(sender.Fd()))

	for _, recipient := range []*Conn{a, b, c} {
		require.Equal(t, 1, recipient.Pending())
		assert.Equal(t, []byte("HI"), recipient.outbound.Head.Value.Payload())
		assert.True(t, pool.Writable(recipient.Fd()))
	}
}

func TestBroadcastCopiesAreIndependent(t *testing.T) {
	pool := NewPool()
	dist := NewDistributor(pool)

	sender := addTestConn(t, pool)
	a := addTestConn(t, pool)
	b := addTestConn(t, pool)

	payload := []byte("HI")
	dist.Broadcast(sender.Fd(), payload)

	// The dispatch loop reuses its read buffer; mutating the source
	// after broadcast must not leak into any queue.
	payload[0] = 'X'
	assert.Equal(t, []byte("HI"), a.outbound.Head.Value.Payload())
	assert.Equal(t, []byte("HI"), b.outbound.Head.Value.Payload())

	// Copies are not aliased across recipients either.
	a.outbound.Head.Value.Payload()[0] = 'Y'
	assert.Equal(t, []byte("HI"), b.outbound.Head.Value.Payload())
}

func TestBroadcastPreservesArrivalOrder(t *testing.T) {
	pool := NewPool()
	dist := NewDistributor(pool)

	sender := addTestConn(t, pool)
	recipient := addTestConn(t, pool)

	dist.Broadcast(sender.Fd(), []byte("FIRST"))
	dist.Broadcast(sender.Fd(), []byte("SECOND"))
	dist.Broadcast(sender.Fd(), []byte("THIRD"))

	require.Equal(t, 3, recipient.Pending())
	var got [][]byte
	for node := recipient.outbound.Head; node != nil; node = node.Next {
		got = append(got, node.Value.Payload())
	}
	assert.Equal(t, [][]byte{[]byte("FIRST"), []byte("SECOND"), []byte("THIRD")}, got)
}

func TestBroadcastWithSingleConnectionIsNoop(t *testing.T) {
	pool := NewPool()
	dist := NewDistributor(pool)

	sender := addTestConn(t, pool)
	dist.Broadcast(sender.Fd(), []byte("HI"))

	assert.Equal(t, 0, sender.Pending())
	assert.False(t, pool.Writable(sender.Fd()))
}
