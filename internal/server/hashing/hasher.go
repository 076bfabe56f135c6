// Package hashing wraps bcrypt password hashing behind a bounded worker
// gate. Hashing is deliberately expensive CPU work; the semaphore keeps a
// burst of registrations or logins from starving the request-accept path.
package hashing

import (
	"context"

	"github.com/ChutneyCheeseball/blabber/internal/common"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

type Hasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewHasher returns a Hasher with the given bcrypt cost, allowing at most
// maxWorkers concurrent hash/compare operations. Out-of-range costs fall
// back to bcrypt.DefaultCost; maxWorkers below 1 becomes 1.
func NewHasher(cost int, maxWorkers int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Hasher{
		cost: cost,
		sem:  semaphore.NewWeighted(int64(maxWorkers)),
	}
}

// Hash computes a salted bcrypt hash of password. The salt is embedded in
// the returned hash, so no separate salt column is needed.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare verifies password against an existing hash. A mismatch yields
// common.ErrInvalidCredentials; bcrypt's comparison is constant-time.
func (h *Hasher) Compare(ctx context.Context, hash, password string) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer h.sem.Release(1)

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return common.ErrInvalidCredentials
	}
	return nil
}
