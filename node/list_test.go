package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewList(t *testing.T) {
	list := NewList[int]()
	assert.Nil(t, list.Head)
	assert.Nil(t, list.Tail)
	assert.Equal(t, 0, list.Len())
}

func TestAddNodeTail(t *testing.T) {
	list := NewList[int]()
	list.AddNodeTail(5)
	assert.Equal(t, 5, list.Head.Value)
	assert.Equal(t, 5, list.Tail.Value)
	assert.Equal(t, 1, list.Len())

	list.AddNodeTail(10)
	assert.Equal(t, 5, list.Head.Value)
	assert.Equal(t, 10, list.Tail.Value)
	assert.Equal(t, 2, list.Len())
}

func TestPopHead(t *testing.T) {
	list := NewList[int]()
	list.AddNodeTail(5)
	list.AddNodeTail(10)

	v, ok := list.PopHead()
	assert.True(t, ok)
	assert.Equal(t, 5, v)
	assert.Equal(t, 1, list.Len())
	assert.Equal(t, 10, list.Head.Value)
	assert.Equal(t, 10, list.Tail.Value)

	v, ok = list.PopHead()
	assert.True(t, ok)
	assert.Equal(t, 10, v)
	assert.Nil(t, list.Head)
	assert.Nil(t, list.Tail)

	_, ok = list.PopHead()
	assert.False(t, ok)
}

func TestEmpty(t *testing.T) {
	list := NewList[int]()
	list.AddNodeTail(5)
	list.AddNodeTail(10)
	list.Empty()
	assert.Nil(t, list.Head)
	assert.Nil(t, list.Tail)
	assert.Equal(t, 0, list.Len())
}
