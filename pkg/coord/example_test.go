package coord_test

import (
	"fmt"

	"github.com/matzehuels/driftwall/pkg/coord"
)

func ExampleEncode() {
	// A signed grid coordinate folds into one non-negative index and back.
	index := coord.Encode(2, -1)
	col, row := coord.Decode(index)

	fmt.Println("index:", index)
	fmt.Println("decoded:", col, row)
	// Output:
	// index: 16
	// decoded: 2 -1
}

func ExampleZigZag() {
	// Signed values interleave onto the non-negative integers.
	fmt.Println(coord.ZigZag(0), coord.ZigZag(-1), coord.ZigZag(1), coord.ZigZag(-2))
	// Output: 0 1 2 3
}

func ExampleChunkOf() {
	// Floor division groups negative coordinates into negative chunks.
	fmt.Println(coord.ChunkOf(15, 15, 16))
	fmt.Println(coord.ChunkOf(-1, 17, 16))
	// Output:
	// 0 0
	// -1 1
}
