package car

import (
	"encoding/binary"
	"math/bits"
)

// chacha8Bytes reproduces the deterministic byte generator spec.md's S3,
// S4 and S6 fixtures are built from: an 8-round ChaCha stream keyed from
// a PCG32 expansion of seed, zero nonce, an ascending 32-bit block counter — the
// construction rand_chacha's ChaCha8Rng::seed_from_u64 uses to turn a u64
// seed into a full 256-bit key before generating keystream. This file
// exists purely to reproduce that external fixture bit-for-bit; it is not
// a general-purpose RNG and has no role outside the test suite.
func chacha8Bytes(seed uint64, n int) []byte {
	key := pcg32Seed(seed)
	var nonce [12]byte
	out := make([]byte, 0, n+64)
	var counter uint32
	for len(out) < n {
		block := chacha8Block(key, nonce, counter)
		out = append(out, block[:]...)
		counter++
	}
	return out[:n]
}

// pcg32Seed expands a u64 seed into a 32-byte ChaCha key, 4 bytes per
// PCG32 step, matching rand_core::SeedableRng::seed_from_u64's default
// provided implementation.
func pcg32Seed(seed uint64) [32]byte {
	var out [32]byte
	state := seed
	for i := 0; i < 8; i++ {
		state = state*6364136223846793005 + 11634580027462260723
		xorshifted := uint32(((state >> 18) ^ state) >> 27)
		rot := int(state >> 59)
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], bits.RotateLeft32(xorshifted, -rot))
	}
	return out
}

const (
	chachaConst0 = 0x61707865
	chachaConst1 = 0x3320646e
	chachaConst2 = 0x79622d32
	chachaConst3 = 0x6b206574
)

func chacha8Block(key [32]byte, nonce [12]byte, counter uint32) [64]byte {
	var state [16]uint32
	state[0], state[1], state[2], state[3] = chachaConst0, chachaConst1, chachaConst2, chachaConst3
	for i := 0; i < 8; i++ {
		state[4+i] = binary.LittleEndian.Uint32(key[i*4 : i*4+4])
	}
	state[12] = counter
	state[13] = binary.LittleEndian.Uint32(nonce[0:4])
	state[14] = binary.LittleEndian.Uint32(nonce[4:8])
	state[15] = binary.LittleEndian.Uint32(nonce[8:12])

	working := state
	for i := 0; i < 4; i++ { // 4 double-rounds == 8 rounds
		chachaQuarterRound(&working, 0, 4, 8, 12)
		chachaQuarterRound(&working, 1, 5, 9, 13)
		chachaQuarterRound(&working, 2, 6, 10, 14)
		chachaQuarterRound(&working, 3, 7, 11, 15)
		chachaQuarterRound(&working, 0, 5, 10, 15)
		chachaQuarterRound(&working, 1, 6, 11, 12)
		chachaQuarterRound(&working, 2, 7, 8, 13)
		chachaQuarterRound(&working, 3, 4, 9, 14)
	}

	var out [64]byte
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], working[i]+state[i])
	}
	return out
}

func chachaQuarterRound(s *[16]uint32, a, b, c, d int) {
	s[a] += s[b]
	s[d] ^= s[a]
	s[d] = bits.RotateLeft32(s[d], 16)
	s[c] += s[d]
	s[b] ^= s[c]
	s[b] = bits.RotateLeft32(s[b], 12)
	s[a] += s[b]
	s[d] ^= s[a]
	s[d] = bits.RotateLeft32(s[d], 8)
	s[c] += s[d]
	s[b] ^= s[c]
	s[b] = bits.RotateLeft32(s[b], 7)
}
