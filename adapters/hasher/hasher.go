// Package hasher provides password hashing for stored accounts.
package hasher

import (
	"github.com/artpar/newsdemo/ports"
	"golang.org/x/crypto/bcrypt"
)

// Bcrypt hashes passwords with bcrypt.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a bcrypt hasher. Out-of-range costs fall back to bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Cost returns the effective bcrypt cost.
func (h *Bcrypt) Cost() int {
	return h.cost
}

// Hash returns the bcrypt hash of password.
func (h *Bcrypt) Hash(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), h.cost)
}

// Compare reports whether password matches hash.
func (h *Bcrypt) Compare(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// Plain stores passwords unhashed. Only for tests.
type Plain struct{}

func (Plain) Hash(password string) ([]byte, error) { return []byte(password), nil }

func (Plain) Compare(hash []byte, password string) bool { return string(hash) == password }

var (
	_ ports.Hasher = (*Bcrypt)(nil)
	_ ports.Hasher = Plain{}
)
