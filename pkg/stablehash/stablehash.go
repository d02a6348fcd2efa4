// Package stablehash maps grid coordinates onto a finite, growing content
// pool with minimal churn.
//
// The mapping has two stages. Mix spreads a coordinate pair and a session
// seed into a well-distributed 64-bit key; keying directly on the compact
// coordinate encoding would cluster keys near the origin and bias bucket
// selection. JumpHash then selects a bucket with the jump-consistent-hash
// algorithm (Lamping & Veach), whose defining property is that growing the
// bucket count from N to N+1 moves only ~1/(N+1) of all keys. That property
// is what keeps already-visible tiles stable when more backend pages are
// discovered mid-session.
package stablehash

// Distinct large odd multipliers for the two axes. Odd so multiplication is
// a bijection mod 2^64; distinct so (a,b) and (b,a) diverge.
const (
	mixColMul = 0x9e3779b97f4a7c15 // 2^64 / golden ratio
	mixRowMul = 0xc2b2ae3d27d4eb4f
	mixFinal  = 0xff51afd7ed558ccd
)

// Mix combines a coordinate pair and a seed into a well-distributed 64-bit
// key. It is pure: the same inputs always produce the same key.
func Mix(col, row int64, seed uint64) uint64 {
	h := seed
	h ^= uint64(col) * mixColMul
	h = (h << 31) | (h >> 33)
	h ^= uint64(row) * mixRowMul
	h *= mixFinal
	h ^= h >> 33
	return h
}

// JumpHash maps key to a bucket in [0, buckets) using jump consistent
// hashing. For a fixed bucket count the result is stable; when the count
// grows from N to N+1 only ~1/(N+1) of keys change bucket.
//
// Returns -1 when buckets <= 0: callers probe speculatively before any
// content is known, so an empty pool is reported as a sentinel rather than
// an error.
func JumpHash(key uint64, buckets int) int {
	if buckets <= 0 {
		return -1
	}

	var b, j int64 = -1, 0
	for j < int64(buckets) {
		b = j
		key = key*2862933555777941757 + 1
		j = int64(float64(b+1) * (float64(int64(1)<<31) / float64((key>>33)+1)))
	}
	return int(b)
}

// MapToIndex is the composed mapping used by tile population: mix the
// coordinate with the seed, then jump-hash onto the pool.
func MapToIndex(col, row int64, seed uint64, poolSize int) int {
	return JumpHash(Mix(col, row, seed), poolSize)
}
