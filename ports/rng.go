package ports

import (
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic operations.
//
// Every stream is a pure function of (name, baseSeed, index), never of process
// state or call order, so permutation iterations scheduled on any number of
// workers consume the same random values as a sequential run.
type RNGPort interface {
	// Stream returns the generator for one named iteration of a run
	Stream(name string, baseSeed int64, index int) *rand.Rand

	// DeriveSeed returns the raw derived seed for (name, baseSeed, index),
	// for callers that hand seeds onward instead of generators
	DeriveSeed(name string, baseSeed int64, index int) int64
}
