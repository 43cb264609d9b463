package testfixtures

import (
	"strconv"
	"sync/atomic"
)

// IDGenerator yields "<prefix>-1", "<prefix>-2", ... so tests can predict ids.
type IDGenerator struct {
	prefix string
	n      atomic.Uint64
}

// NewIDGenerator constructs a generator; an empty prefix becomes "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

func (g *IDGenerator) Next() string {
	return g.prefix + "-" + strconv.FormatUint(g.n.Add(1), 10)
}

// NextFunc exposes Next for constructors taking func() string.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}
