package node

type ListNode[T any] struct {
	Prev  *ListNode[T]
	Next  *ListNode[T]
	Value T
}

type List[T any] struct {
	Head   *ListNode[T]
	Tail   *ListNode[T]
	Length int
}

func NewList[T any]() *List[T] {
	return &List[T]{}
}

func (l *List[T]) Len() int {
	return l.Length
}

// AddNodeTail appends value at the tail in O(1).
func (l *List[T]) AddNodeTail(value T) {
	node := &ListNode[T]{Value: value}
	if l.Tail == nil {
		l.Head, l.Tail = node, node
	} else {
		node.Prev, l.Tail.Next, l.Tail = l.Tail, node, node
	}
	l.Length++
}

// PopHead unlinks the head node and returns its value.
func (l *List[T]) PopHead() (value T, ok bool) {
	if l.Head == nil {
		return value, false
	}
	node := l.Head
	l.Head = node.Next
	if l.Head != nil {
		l.Head.Prev = nil
	} else {
		l.Tail = nil
	}
	node.Next = nil
	l.Length--
	return node.Value, true
}

// Empty the list
func (l *List[T]) Empty() {
	current := l.Head
	for current != nil {
		next := current.Next
		current.Prev, current.Next = nil, nil
		current = next
	}
	l.Head, l.Tail = nil, nil
	l.Length = 0
}
