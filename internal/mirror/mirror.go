// Package mirror keeps a client-side cache of a coin balance so UIs can
// gate buttons and show counts without a round trip. The cache is never
// authoritative: the server decides every deduction, and the mirror is
// overwritten with the server's answer whenever one arrives.
package mirror

import (
	"sync"
	"time"
)

// Balance is a thread-safe cached view of the server-side coin balance.
type Balance struct {
	mu      sync.Mutex
	coins   int
	resetAt time.Time
	// synced reports whether the mirror has ever seen a server value.
	synced bool
}

// New returns an unsynced mirror. Coins report 0 until the first Reconcile.
func New() *Balance {
	return &Balance{}
}

// Coins returns the cached balance.
func (b *Balance) Coins() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.coins
}

// ResetAt returns the cached reset boundary. Zero until the first Reconcile.
func (b *Balance) ResetAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.resetAt
}

// Synced reports whether the mirror holds a server-confirmed value.
func (b *Balance) Synced() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.synced
}

// HasEnough reports whether the cached balance covers a cost. Advisory
// only: the server may still refuse the deduction.
func (b *Balance) HasEnough(cost int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.synced && b.coins >= cost
}

// OptimisticDebit lowers the cached balance immediately for responsive
// feedback, flooring at zero. The next Reconcile replaces the guess.
func (b *Balance) OptimisticDebit(cost int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.coins -= cost
	if b.coins < 0 {
		b.coins = 0
	}
	return b.coins
}

// Reconcile overwrites the cache with a server-confirmed balance. Overwrite,
// not merge: any optimistic guesses since the last sync are discarded.
func (b *Balance) Reconcile(coins int, resetAt time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.coins = coins
	b.resetAt = resetAt
	b.synced = true
}
