//
// topology_test.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

package waksman

import "testing"

func TestNumColumnsReferenceValues(t *testing.T) {
	want := map[int]int{1: 0, 2: 1, 3: 3, 4: 3, 5: 5, 6: 5, 7: 5, 8: 5, 9: 7}
	for n, c := range want {
		if got := NumColumns(n); got != c {
			t.Errorf("NumColumns(%d) = %d, want %d", n, got, c)
		}
	}
}

func TestTopologyShape(t *testing.T) {
	for n := 1; n <= 40; n++ {
		top := GenerateTopology(n)
		cols := NumColumns(n)
		if len(top) != cols {
			t.Fatalf("n=%d: got %d columns, want %d", n, len(top), cols)
		}
		for c, col := range top {
			if len(col) != n {
				t.Fatalf("n=%d col=%d: got %d rows, want %d", n, c, len(col), n)
			}
		}
	}
}

// TestTopologyCoverage checks that, for every column, every row of the
// next column receives exactly one packet: no collisions, no gaps.
func TestTopologyCoverage(t *testing.T) {
	for n := 2; n <= 40; n++ {
		top := GenerateTopology(n)
		for c, col := range top {
			seen := make([]int, n)
			row := 0
			for row < n {
				sw := col[row]
				if sw.IsPassthrough() {
					seen[sw.DStraight]++
					row++
					continue
				}
				seen[sw.DStraight]++
				seen[sw.DCross]++
				row += 2
			}
			for dst, count := range seen {
				if count != 1 {
					t.Fatalf("n=%d col=%d: destination row %d received %d packets, want 1", n, c, dst, count)
				}
			}
		}
	}
}

func TestTopologySinglePacketHasNoColumns(t *testing.T) {
	top := GenerateTopology(1)
	if len(top) != 0 {
		t.Fatalf("N=1 should have zero columns, got %d", len(top))
	}
}
