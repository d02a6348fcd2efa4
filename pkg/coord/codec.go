package coord

import "math"

// MaxMagnitude is the largest absolute coordinate value for which Encode is
// guaranteed not to overflow uint64. At the boundary both zigzagged halves
// reach 2^31, the Cantor anti-diagonal reaches 2^32, and the pair value
// tops out just above 2^63.
const MaxMagnitude = int64(1) << 30

// ZigZag maps a signed integer onto the non-negative integers:
// n≥0 → 2n, n<0 → -2n-1. The mapping is bijective.
func ZigZag(n int64) uint64 {
	return uint64((n << 1) ^ (n >> 63))
}

// UnZigZag inverts ZigZag.
func UnZigZag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// Pair combines two non-negative integers into one via the Cantor
// triangular pairing function: (a+b)(a+b+1)/2 + b.
func Pair(a, b uint64) uint64 {
	return triangular(a+b) + b
}

// triangular computes s(s+1)/2, dividing the even factor first so the
// intermediate product cannot wrap for any s reachable within MaxMagnitude.
func triangular(s uint64) uint64 {
	if s%2 == 0 {
		return s / 2 * (s + 1)
	}
	return (s + 1) / 2 * s
}

// Unpair inverts Pair. The anti-diagonal index is recovered with an integer
// square root, then corrected for float drift near diagonal boundaries.
func Unpair(z uint64) (a, b uint64) {
	s := uint64(math.Sqrt(float64(2)*float64(z)+0.25) - 0.5)
	for s > 0 && triangular(s) > z {
		s--
	}
	for triangular(s+1) <= z {
		s++
	}
	b = z - triangular(s)
	a = s - b
	return a, b
}

// Encode maps a signed grid coordinate to a single non-negative index.
// Encode is deterministic and pure; for inputs within ±MaxMagnitude it is
// bijective with Decode.
func Encode(col, row int64) uint64 {
	return Pair(ZigZag(col), ZigZag(row))
}

// Decode inverts Encode.
func Decode(index uint64) (col, row int64) {
	a, b := Unpair(index)
	return UnZigZag(a), UnZigZag(b)
}

// InRange reports whether Encode(col, row) is safe from overflow.
func InRange(col, row int64) bool {
	return col >= -MaxMagnitude && col <= MaxMagnitude &&
		row >= -MaxMagnitude && row <= MaxMagnitude
}

// ChunkOf returns the chunk coordinate owning (col, row) for the given chunk
// size, using floor division so negative coordinates group correctly
// (e.g. col -1 with size 16 belongs to chunk -1, not chunk 0).
func ChunkOf(col, row int64, size int) (chunkCol, chunkRow int64) {
	return floorDiv(col, int64(size)), floorDiv(row, int64(size))
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
