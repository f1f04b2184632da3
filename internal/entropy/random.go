// Package entropy seeds the simulation's deterministic rand sources.
// A fixed seed reproduces a world; seed 0 draws one from crypto/rand.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
)

// Seed returns the configured seed, or a crypto-random one when cfg is 0.
func Seed(cfg int64) int64 {
	if cfg != 0 {
		return cfg
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing is effectively unreachable; fall back to a
		// fixed seed rather than crash.
		return 1
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if seed == 0 {
		seed = 1
	}
	return seed
}
