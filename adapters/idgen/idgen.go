// Package idgen provides ports.IDGenerator implementations.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/artpar/newsdemo/ports"
	"github.com/google/uuid"
)

// UUID generates random v4 UUIDs, optionally prefixed (e.g. "usr_").
type UUID struct {
	Prefix string
}

// New returns Prefix followed by a fresh UUID.
func (g UUID) New() string {
	return g.Prefix + uuid.NewString()
}

// Sequential generates prefix1, prefix2, ... for deterministic tests.
type Sequential struct {
	prefix string
	n      atomic.Uint64
}

// NewSequential creates a sequential ID generator.
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// New returns the next ID.
func (s *Sequential) New() string {
	return s.prefix + strconv.FormatUint(s.n.Add(1), 10)
}

var (
	_ ports.IDGenerator = UUID{}
	_ ports.IDGenerator = (*Sequential)(nil)
)
