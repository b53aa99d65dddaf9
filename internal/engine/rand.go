package engine

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
)

// Rand is the randomness an engine draws from. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// NewRand returns a deterministic generator for a seed.
func NewRand(seed int64) *rand.Rand {
	// Non-cryptographic PRNG is intentional for reproducible runs.
	// #nosec G404
	return rand.New(rand.NewPCG(seedWord(seed, "a"), seedWord(seed, "b")))
}

func seedWord(seed int64, salt string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(fmt.Sprintf("%d:%s", seed, salt)))
	return h.Sum64()
}
