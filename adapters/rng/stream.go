// Package rng provides seed-derived random streams so that every permutation
// iteration consumes random values that depend only on (name, seed, index),
// never on scheduling order.
package rng

import (
	"hash/fnv"
	"math/rand"
)

// StreamAdapter implements ports.RNGPort with splitmix64 seed derivation
type StreamAdapter struct{}

// NewStreamAdapter creates the default RNG adapter
func NewStreamAdapter() *StreamAdapter {
	return &StreamAdapter{}
}

// Stream returns the generator for one named iteration of a run
func (a *StreamAdapter) Stream(name string, baseSeed int64, index int) *rand.Rand {
	return rand.New(rand.NewSource(a.DeriveSeed(name, baseSeed, index)))
}

// DeriveSeed mixes (name, baseSeed, index) into one well-spread 63-bit seed.
// Sequential indices must not produce correlated generator states, hence the
// splitmix64 finalizer rather than plain addition.
func (a *StreamAdapter) DeriveSeed(name string, baseSeed int64, index int) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	x := h.Sum64() ^ uint64(baseSeed)
	x += uint64(index+1) * 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return int64(x >> 1) // keep seeds non-negative
}
