package member

import (
	"fmt"
	"sort"
)

// NextCode returns the lowest unused code at or above CodeFloor, zero-padded
// to four digits. The allocator fills gaps left by past allocations instead
// of taking max+1, so freed codes are reclaimed. Callers must run it inside
// the same transaction as the member insert, with the code range locked,
// or two concurrent allocations can pick the same value.
func NextCode(existing []int) string {
	taken := make([]int, 0, len(existing))
	for _, code := range existing {
		if code >= CodeFloor {
			taken = append(taken, code)
		}
	}
	sort.Ints(taken)

	next := CodeFloor
	for _, code := range taken {
		if code > next {
			break
		}
		if code == next {
			next++
		}
	}
	return fmt.Sprintf("%04d", next)
}
