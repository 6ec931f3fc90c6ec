//
// topology.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

package waksman

// Switch describes the wiring of one topology position (c, r): the
// two physical rows in the next column that receive the packets
// currently sitting at rows r and r+1 of this column, once a switch
// (or plain pass-through) has been applied. When DStraight == DCross
// the position is a pass-through, not a switch port; only one packet
// flows through it and both fields carry the same destination.
type Switch struct {
	DStraight int
	DCross    int
}

// IsPassthrough reports whether this position is a wire, not a
// 2x2 switch port.
func (s Switch) IsPassthrough() bool {
	return s.DStraight == s.DCross
}

// Topology is the AS-Waksman wiring for a network of some size N:
// Topology[c][r] gives the destinations of row r in column c. It has
// NumColumns(N) columns, each with exactly N rows.
type Topology [][]Switch

// NumColumns returns the number of switch columns an AS-Waksman
// network of n packets requires: 0 for n<=1, otherwise
// 2*ceil(log2(n))-1.
func NumColumns(n int) int {
	if n <= 1 {
		return 0
	}
	return 2*ceilLog2(n) - 1
}

// ceilLog2 returns the smallest k such that 2^k >= n, for n >= 1.
func ceilLog2(n int) int {
	k := 0
	for (1 << uint(k)) < n {
		k++
	}
	return k
}

// GenerateTopology builds the AS-Waksman topology for n packets. The
// result depends only on n, never on any permutation.
func GenerateTopology(n int) Topology {
	cols := NumColumns(n)
	t := make(Topology, cols)
	for c := range t {
		t[c] = make([]Switch, n)
	}
	if n <= 1 {
		return t
	}

	rows := identityRows(n)
	buildSubnetwork(t, rows, rows, 0, cols)
	return t
}

func identityRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

// buildSubnetwork wires the columns [colOffset, colOffset+colCount)
// so that, for every local index i in [0, len(rowsIn)), the value
// present at physical row rowsIn[i] when column colOffset begins
// ends up at physical row rowsOut[i] once column
// colOffset+colCount-1 has finished — realising, along the way, an
// AS-Waksman network on the len(rowsIn) local packets.
//
// rowsIn must be contiguous ascending (rowsIn[i] == rowsIn[0]+i);
// every recursive call below preserves this invariant for its
// children. rowsOut carries no such constraint: it is supplied by
// the caller and only ever used as a destination.
func buildSubnetwork(t Topology, rowsIn, rowsOut []int, colOffset, colCount int) {
	n := len(rowsIn)
	if n == 0 {
		return
	}
	if n == 1 {
		chainPassthrough(t, rowsIn[0], rowsOut[0], colOffset, colCount)
		return
	}

	minCols := NumColumns(n)
	if colCount == minCols {
		buildReal(t, rowsIn, rowsOut, colOffset, minCols)
		return
	}
	// Spare columns: the real network delivers its outputs back onto
	// this subnetwork's own rows, and each one then rides pass-through
	// wires that jump to rowsOut only in the last spare column, so no
	// intermediate hop lands on a row a sibling subnetwork still uses.
	buildReal(t, rowsIn, rowsIn, colOffset, minCols)
	for i, r := range rowsIn {
		chainPassthrough(t, r, rowsOut[i], colOffset+minCols, colCount-minCols)
	}
}

// chainPassthrough wires colCount consecutive pass-through columns
// starting at colOffset that carry a value from physical row `from`
// to physical row `to`, all intermediate hops staying at `from` until
// the final column makes the jump. With colCount == 0, from and to
// are assumed equal (nothing to bridge).
func chainPassthrough(t Topology, from, to, colOffset, colCount int) {
	cur := from
	for c := colOffset; c < colOffset+colCount; c++ {
		next := cur
		if c == colOffset+colCount-1 {
			next = to
		}
		t[c][cur] = Switch{DStraight: next, DCross: next}
		cur = next
	}
}

// buildReal wires exactly NumColumns(len(rowsIn)) columns starting at
// colOffset implementing the actual recursive AS-Waksman
// decomposition, with no padding. Called only with len(rowsIn) >= 2.
func buildReal(t Topology, rowsIn, rowsOut []int, colOffset, minCols int) {
	n := len(rowsIn)

	if n == 2 {
		r0, r1 := rowsIn[0], rowsIn[1]
		t[colOffset][r0] = Switch{DStraight: rowsOut[0], DCross: rowsOut[1]}
		t[colOffset][r1] = Switch{DStraight: rowsOut[1], DCross: rowsOut[0]}
		return
	}

	upperSize := n / 2
	lowerSize := n - upperSize
	base := rowsIn[0]
	leftCol := colOffset
	rightCol := colOffset + minCols - 1
	midColOffset := colOffset + 1
	midColCount := minCols - 2

	upperRowsIn := make([]int, upperSize)
	lowerRowsIn := make([]int, lowerSize)
	for k := 0; k < upperSize; k++ {
		upperRowsIn[k] = base + k
	}
	for k := 0; k < lowerSize; k++ {
		lowerRowsIn[k] = base + upperSize + k
	}

	// Left column: canonical switch at local row 2k feeds upper's
	// local row k and lower's local row k.
	for k := 0; k < upperSize; k++ {
		top := rowsIn[2*k]
		bot := rowsIn[2*k+1]
		t[leftCol][top] = Switch{DStraight: upperRowsIn[k], DCross: lowerRowsIn[k]}
		t[leftCol][bot] = Switch{DStraight: lowerRowsIn[k], DCross: upperRowsIn[k]}
	}
	if n%2 == 1 {
		// Odd leftover row passes straight through to the lower
		// sub-network's extra local row.
		last := rowsIn[n-1]
		t[leftCol][last] = Switch{DStraight: lowerRowsIn[lowerSize-1], DCross: lowerRowsIn[lowerSize-1]}
	}

	// Interleave the two sub-networks' outputs so that, just before
	// the right column, lower-k and upper-k land on adjacent physical
	// rows (base+2k, base+2k+1) and can be recombined as a switch.
	upperRowsOut := make([]int, upperSize)
	lowerRowsOut := make([]int, lowerSize)
	for k := 0; k < upperSize; k++ {
		upperRowsOut[k] = base + 2*k + 1
	}
	for k := 0; k < lowerSize; k++ {
		lowerRowsOut[k] = base + 2*k
	}

	buildSubnetwork(t, upperRowsIn, upperRowsOut, midColOffset, midColCount)
	buildSubnetwork(t, lowerRowsIn, lowerRowsOut, midColOffset, midColCount)

	// Right column: mirror of the left column, recombining adjacent
	// pairs (base+2k, base+2k+1) into the caller's requested output
	// rows.
	pairs := lowerSize
	if upperSize < pairs {
		pairs = upperSize
	}
	for k := 0; k < pairs; k++ {
		top := base + 2*k
		bot := base + 2*k + 1
		t[rightCol][top] = Switch{DStraight: rowsOut[2*k], DCross: rowsOut[2*k+1]}
		t[rightCol][bot] = Switch{DStraight: rowsOut[2*k+1], DCross: rowsOut[2*k]}
	}
	if lowerSize > upperSize {
		// n odd: lower's extra local row has no partner and passes
		// straight through to the final unpaired output row.
		last := base + 2*(lowerSize-1)
		t[rightCol][last] = Switch{DStraight: rowsOut[n-1], DCross: rowsOut[n-1]}
	}
}
