// Package entropy provides the random sources used for population and
// schedule generation. Every consumer takes a Source so tests can inject a
// deterministic one.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// Source yields uniform integers in [0, n). Implementations panic when n <= 0,
// as math/rand does.
type Source interface {
	Intn(n int) int
}

// NewSeeded returns a reproducible source. A zero seed is replaced with one
// drawn from crypto/rand.
func NewSeeded(seed int64) *mrand.Rand {
	if seed == 0 {
		seed = CryptoSeed()
	}
	return mrand.New(mrand.NewSource(seed))
}

// IntRange returns a uniform integer in the inclusive range [lo, hi].
func IntRange(src Source, lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + src.Intn(hi-lo+1)
}

// Pick returns a uniform index into a collection of length n.
func Pick(src Source, n int) int {
	return src.Intn(n)
}

// CryptoSeed returns a non-negative seed from crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen but fall back to a fixed seed.
		return 1
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if seed == 0 {
		seed = 1
	}
	return seed
}

// Fixed is a Source that replays a scripted sequence of values, each clamped
// into [0, n). Once exhausted it keeps returning Fallback clamped the same way.
// A negative value or Fallback selects n-1.
type Fixed struct {
	Values   []int
	Fallback int
	pos      int
}

// Intn implements Source.
func (f *Fixed) Intn(n int) int {
	if n <= 0 {
		panic("entropy: invalid argument to Intn")
	}
	v := f.Fallback
	if f.pos < len(f.Values) {
		v = f.Values[f.pos]
		f.pos++
	}
	if v < 0 || v >= n {
		return n - 1
	}
	return v
}
