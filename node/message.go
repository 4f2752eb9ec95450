package node

// Message is one queued broadcast payload. The payload is an owned copy,
// immutable once created. A Message is linked into at most one
// connection's outbound queue; popping it off releases it for good, it
// is never reused or moved to another queue.
type Message struct {
	payload []byte
}

// NewMessage copies buf so the caller's buffer can be reused freely.
func NewMessage(buf []byte) *Message {
	payload := make([]byte, len(buf))
	copy(payload, buf)
	return &Message{payload: payload}
}

func (m *Message) Payload() []byte {
	return m.payload
}

func (m *Message) Size() int {
	return len(m.payload)
}
