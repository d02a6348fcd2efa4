package stablehash_test

import (
	"fmt"

	"github.com/matzehuels/driftwall/pkg/stablehash"
)

func ExampleMapToIndex() {
	// The same tile under the same seed always lands on the same pool
	// entry, and the entry is always within the pool.
	seed := uint64(42)
	a := stablehash.MapToIndex(3, -7, seed, 100)
	b := stablehash.MapToIndex(3, -7, seed, 100)

	fmt.Println("deterministic:", a == b)
	fmt.Println("in range:", a >= 0 && a < 100)
	// Output:
	// deterministic: true
	// in range: true
}

func ExampleJumpHash() {
	// An empty pool yields the sentinel rather than an error.
	fmt.Println(stablehash.JumpHash(12345, 0))
	// Output: -1
}

func ExampleJumpHash_growth() {
	// Growing the pool by one bucket relocates only about 1/(N+1) of all
	// keys; the rest keep their assignment.
	moved := 0
	for i := 0; i < 1000; i++ {
		key := stablehash.Mix(int64(i), int64(-i), 1)
		if stablehash.JumpHash(key, 101) != stablehash.JumpHash(key, 100) {
			moved++
		}
	}

	fmt.Println("moved fewer than 50 of 1000 keys:", moved < 50)
	// Output: moved fewer than 50 of 1000 keys: true
}
