package survey

import "testing"

func TestRandomizeOrderDeterministic(t *testing.T) {
	first := RandomizeOrder(16, "ABC12345")
	second := RandomizeOrder(16, "ABC12345")

	if len(first) != 16 || len(second) != 16 {
		t.Fatalf("order lengths = %d, %d, want 16", len(first), len(second))
	}
	for idx := range first {
		if first[idx] != second[idx] {
			t.Fatalf("orders diverge at %d: %v vs %v", idx, first, second)
		}
	}
}

func TestRandomizeOrderIsBijection(t *testing.T) {
	for _, n := range []int{1, 3, 8, 30} {
		order := RandomizeOrder(n, "seed")
		if len(order) != n {
			t.Fatalf("n=%d: order length = %d", n, len(order))
		}
		seen := make(map[int]bool, n)
		for _, idx := range order {
			if idx < 0 || idx >= n {
				t.Fatalf("n=%d: index %d out of range", n, idx)
			}
			if seen[idx] {
				t.Fatalf("n=%d: index %d appears twice in %v", n, idx, order)
			}
			seen[idx] = true
		}
	}
}

func TestRandomizeOrderDistinctSeedsDiverge(t *testing.T) {
	pairs := [][2]string{
		{"ABC12345", "XYZ99999"},
		{"participant-1", "participant-2"},
		{"a", "b"},
	}
	for _, pair := range pairs {
		first := RandomizeOrder(32, pair[0])
		second := RandomizeOrder(32, pair[1])

		same := true
		for idx := range first {
			if first[idx] != second[idx] {
				same = false
				break
			}
		}
		if same {
			t.Fatalf("seeds %q and %q produced identical orders", pair[0], pair[1])
		}
	}
}
