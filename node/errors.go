package node

import (
	"errors"
	"strings"
)

// ErrNotFound is returned by Pool.Remove for an fd the pool does not
// track.
var ErrNotFound = errors.New("connection not found")

type MultiError []error

func (m MultiError) Error() string {
	var b strings.Builder
	b.WriteString("multiple errors:")
	for _, err := range m {
		b.WriteString("\n- " + err.Error())
	}
	return b.String()
}
