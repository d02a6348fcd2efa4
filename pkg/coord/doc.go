// Package coord encodes signed two-dimensional grid coordinates as single
// non-negative integers.
//
// The encoding composes two classic bijections:
//
//  1. Zigzag: signed → unsigned, interleaving positive and negative values
//     (0→0, -1→1, 1→2, -2→3, ...), so coordinates near the origin stay small.
//  2. Cantor (triangular) pairing: ℕ×ℕ → ℕ, walking anti-diagonals of the
//     quarter plane.
//
// Both directions are implemented, so Encode and Decode form a full bijection
// between (col, row) pairs and uint64 indices. Encoding is pure arithmetic
// with no allocation; it is used for chunk identity and backend page folding.
//
// # Overflow
//
// Pairing squares its inputs, so Encode overflows uint64 once
// zigzag(col)+zigzag(row) exceeds about 2^32. That corresponds to pan
// distances beyond ±2^31 cells from the origin, far past any realistic
// session; callers that cannot rule such values out should guard with
// InRange.
package coord
