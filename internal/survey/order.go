package survey

import (
	"crypto/sha1"
	"encoding/binary"
	"math/rand"
)

// RandomizeOrder produces a permutation of [0, n) derived entirely from the
// seed string. The same seed always yields the same order, so a participant
// identifier fully determines that participant's trial sequence. This trades
// true randomization for reproducibility.
func RandomizeOrder(n int, seed string) []int {
	order := make([]int, n)
	for idx := range order {
		order[idx] = idx
	}

	rng := rand.New(rand.NewSource(orderSeed(seed)))
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

func orderSeed(seed string) int64 {
	sum := sha1.Sum([]byte(seed))
	return int64(binary.BigEndian.Uint64(sum[:8]))
}
