package service

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// ─── Ticket generation ──────────────────────────────────────

const ticketAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// TicketGenerator produces report ticket numbers of the form
//
//	TRC-<6 trailing digits of epoch millis>-<3 random base-36 chars>
//
// Nothing is persisted between invocations and collisions are not detected;
// the window for a clash (same millisecond suffix, same 3-char draw) is
// accepted for this use case.
type TicketGenerator struct {
	mu  sync.Mutex
	now func() time.Time
	rng *rand.Rand
}

// NewTicketGenerator creates a generator on the wall clock and a seeded
// randomness source.
func NewTicketGenerator() *TicketGenerator {
	return &TicketGenerator{
		now: time.Now,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next produces one ticket number. Each invocation is independent.
func (g *TicketGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	millis := g.now().UnixMilli()
	suffix := make([]byte, 3)
	for i := range suffix {
		suffix[i] = ticketAlphabet[g.rng.Intn(len(ticketAlphabet))]
	}

	return fmt.Sprintf("TRC-%06d-%s", millis%1_000_000, suffix)
}
