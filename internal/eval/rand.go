package eval

import (
	"encoding/binary"
	"math/rand/v2"

	"golang.org/x/crypto/blake2b"
)

// Source is the ambient randomness every Bet draw and weighted-bet
// draw pulls from. §5: "implementations must ensure that concurrent
// use from independent threads yields independent draws" — callers
// get their own Source per goroutine rather than sharing one.
type Source struct {
	rng *rand.Rand
}

// NewSource builds a nondeterministic source.
func NewSource() *Source {
	return &Source{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededSource derives a reproducible 128-bit PCG seed from an
// arbitrary string by hashing it with BLAKE2b-256 and splitting the
// digest into two uint64 halves. The same seed string always yields
// the same sequence of bet draws in the evaluator. Generated JS is not
// seeded from it: its preamble draws from Math.random.
func NewSeededSource(seed string) *Source {
	sum := blake2b.Sum256([]byte(seed))
	hi := binary.BigEndian.Uint64(sum[0:8])
	lo := binary.BigEndian.Uint64(sum[8:16])
	return &Source{rng: rand.New(rand.NewPCG(hi, lo))}
}

// DerivedSeed returns the first 64 bits of the same BLAKE2b-256 digest
// as a single integer. The code generator does not use it: `betlang
// codegen` has no seed flag and generated JS draws from Math.random.
func DerivedSeed(seed string) uint64 {
	sum := blake2b.Sum256([]byte(seed))
	return binary.BigEndian.Uint64(sum[0:8])
}

// Uint32n draws uniformly from [0, n).
func (s *Source) Uint32n(n uint32) uint32 { return s.rng.Uint32N(n) }

// Float64 draws uniformly from [0, 1).
func (s *Source) Float64() float64 { return s.rng.Float64() }

// Index3 draws a uniform index in {0, 1, 2}, the primitive behind
// every unweighted ternary Bet.
func (s *Source) Index3() int { return int(s.Uint32n(3)) }

// WeightedIndex3 implements §4.3's weighted-bet draw: strict `<`
// comparisons against the running cumulative weight, so the last
// alternative is the overflow bucket for rounding error; a
// non-positive total collapses to "always the last alternative".
func (s *Source) WeightedIndex3(w0, w1, w2 float64) int {
	total := w0 + w1 + w2
	if total <= 0 {
		return 2
	}
	r := s.Float64() * total
	cum := w0
	if r < cum {
		return 0
	}
	cum += w1
	if r < cum {
		return 1
	}
	return 2
}
