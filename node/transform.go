package node

// Transform mutates an inbound payload in place before it is broadcast.
// It runs over exactly the bytes one read returned, nothing more.
type Transform func(p []byte)

// UpperASCII upper-cases ASCII letters in place and passes every other
// byte through unchanged.
func UpperASCII(p []byte) {
	for i, b := range p {
		if 'a' <= b && b <= 'z' {
			p[i] = b - ('a' - 'A')
		}
	}
}

// Identity leaves the payload untouched.
func Identity(p []byte) {}
