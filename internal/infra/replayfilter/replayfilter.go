// Package replayfilter provides a probabilistic prefilter for already-credited
// transaction signatures. It answers "was this signature credited before?" with:
//   - Yes → probably (false positive rate ≤ configured FPR)
//   - No  → definitely not (zero false negatives)
//
// A "no" lets a fresh submission skip the duplicate lookup; a "yes" is only a
// hint and must be confirmed against the store, so a false positive can never
// reject a legitimate transaction. Replays are caught before the ledger RPC
// round-trip instead of after it.
package replayfilter

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sync"
)

// Config sizes the filter.
type Config struct {
	ExpectedSignatures int     // Expected number of credited signatures
	FPRate             float64 // Desired false positive rate (e.g. 0.001 = 0.1%)
}

// DefaultConfig returns defaults for 100k signatures at 0.1% FP rate (~180 KB).
func DefaultConfig() Config {
	return Config{
		ExpectedSignatures: 100_000,
		FPRate:             0.001,
	}
}

// Filter is a Bloom filter over credited transaction signatures.
type Filter struct {
	mu      sync.RWMutex
	bits    []uint64 // bit array stored as uint64 words
	numBits uint
	numHash uint
	count   int
}

// New creates a filter sized to achieve the target FP rate.
// Optimal sizing formulas:
//
//	m = -(n * ln(p)) / (ln(2)^2)   — total bits
//	k = (m/n) * ln(2)              — hash functions
func New(cfg Config) *Filter {
	if cfg.ExpectedSignatures <= 0 {
		cfg.ExpectedSignatures = DefaultConfig().ExpectedSignatures
	}
	if cfg.FPRate <= 0 || cfg.FPRate >= 1 {
		cfg.FPRate = DefaultConfig().FPRate
	}

	n := float64(cfg.ExpectedSignatures)
	p := cfg.FPRate

	m := uint(math.Ceil(-(n * math.Log(p)) / (math.Log(2) * math.Log(2))))
	k := uint(math.Ceil(float64(m) / n * math.Log(2)))

	if m == 0 {
		m = 64
	}
	if k == 0 {
		k = 1
	}

	return &Filter{
		bits:    make([]uint64, (m+63)/64),
		numBits: m,
		numHash: k,
	}
}

// Add marks a signature as credited.
func (f *Filter) Add(signature string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	h1, h2 := baseHashes(signature)
	for i := uint(0); i < f.numHash; i++ {
		pos := f.nthHash(h1, h2, i)
		f.bits[pos/64] |= 1 << (pos % 64)
	}
	f.count++
}

// MaybeSeen reports whether the signature might have been credited.
// False means definitely not; true must be confirmed against the store.
func (f *Filter) MaybeSeen(signature string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	h1, h2 := baseHashes(signature)
	for i := uint(0); i < f.numHash; i++ {
		pos := f.nthHash(h1, h2, i)
		if f.bits[pos/64]&(1<<(pos%64)) == 0 {
			return false
		}
	}
	return true
}

// Warm adds a batch of signatures, typically the store's recent replay set at
// process start.
func (f *Filter) Warm(signatures []string) {
	for _, sig := range signatures {
		f.Add(sig)
	}
}

// Count returns the number of signatures added.
func (f *Filter) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.count
}

// baseHashes computes two independent 32-bit hashes using SHA-256.
// Double hashing (Kirsch-Mitzenmacher) derives k positions from 2 base
// hashes: h_i(x) = h1(x) + i*h2(x).
func baseHashes(signature string) (uint32, uint32) {
	sum := sha256.Sum256([]byte(signature))
	return binary.BigEndian.Uint32(sum[0:4]), binary.BigEndian.Uint32(sum[4:8])
}

func (f *Filter) nthHash(h1, h2 uint32, i uint) uint {
	return uint((uint64(h1) + uint64(i)*uint64(h2)) % uint64(f.numBits))
}
