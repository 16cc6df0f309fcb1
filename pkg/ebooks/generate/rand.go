package generate

import (
	"math/rand/v2"
	"sync"
)

// Rand is the randomness the generator draws from.
type Rand interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

type globalRand struct{}

func (globalRand) IntN(n int) int                     { return rand.IntN(n) }
func (globalRand) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// Default returns the process-wide source. It is safe for concurrent use.
func Default() Rand { return globalRand{} }

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeeded returns a deterministic source, safe for concurrent use.
func NewSeeded(seed uint64) Rand {
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

func (l *lockedRand) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Shuffle(n, swap)
}
