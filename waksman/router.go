//
// router.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

package waksman

import "fmt"

// Routing gives, for each column and each canonical switch row, the
// switch's mode: false for straight, true for cross. Only canonical
// positions carry an entry.
type Routing []map[int]bool

// setting looks up a routing bit, defaulting to false (straight) for
// absent entries, per the absent-means-straight fallback convention
// (see the design notes on the routing representation's open
// question). Route itself always populates every canonical entry; this
// fallback exists only for callers handed a sparse or empty Routing.
func (r Routing) setting(c, row int) bool {
	if c < 0 || c >= len(r) || r[c] == nil {
		return false
	}
	v, ok := r[c][row]
	if !ok {
		return false
	}
	return v
}

// Route computes the AS-Waksman routing that realises perm: applying
// the network described by GenerateTopology(perm.N()) under the
// returned Routing sends packet i to row perm.At(i) for every i.
//
// Route is deterministic: ties are broken by fixing the first vertex
// of each connected component of the routing solver's constraint
// graph to "straight" and visiting switches in ascending index order.
func Route(perm *Permutation) Routing {
	n := perm.N()
	cols := NumColumns(n)
	routing := make(Routing, cols)
	for c := range routing {
		routing[c] = make(map[int]bool)
	}
	if n <= 1 {
		return routing
	}
	rows := identityRows(n)
	routeSubnetwork(routing, perm, rows, 0)
	return routing
}

// routeSubnetwork mirrors buildSubnetwork's column/row bookkeeping
// exactly so that the canonical positions it writes into routing line
// up with the ones GenerateTopology assigned for the same n and
// colOffset. perm is the local permutation for this subnetwork's own
// n packets (local indices 0..n-1); rowsIn gives the contiguous
// physical rows currently holding them.
func routeSubnetwork(routing Routing, perm *Permutation, rowsIn []int, colOffset int) {
	n := perm.N()
	if n <= 1 {
		return
	}
	if n == 2 {
		leftCol := colOffset
		canonical := rowsIn[0]
		routing[leftCol][canonical] = perm.At(0) != 0
		return
	}

	upperSize := n / 2
	lowerSize := n - upperSize
	minCols := NumColumns(n)
	leftCol := colOffset
	rightCol := colOffset + minCols - 1
	midColOffset := colOffset + 1
	base := rowsIn[0]

	leftColor := make([]bool, upperSize)
	rightColor := make([]bool, upperSize)
	leftPinned := make([]bool, upperSize)
	rightPinned := make([]bool, upperSize)

	// leftoverOutputIndex/leftoverInputIndex identify the unpaired
	// odd row on each side, when n is odd; -1 marks "does not exist".
	leftoverOutputIndex := -1
	leftoverInputIndex := -1
	if n%2 == 1 {
		leftoverOutputIndex = n - 1
		leftoverInputIndex = n - 1
	}

	type edge struct {
		leftNode, rightNode         int
		parityIn, parityOut         int
	}
	var edges []edge
	adjLeft := make([][]int, upperSize)  // edge indices touching left node k
	adjRight := make([][]int, upperSize) // edge indices touching right node k

	addEdge := func(k, kOut, pIn, pOut int) {
		idx := len(edges)
		edges = append(edges, edge{k, kOut, pIn, pOut})
		adjLeft[k] = append(adjLeft[k], idx)
		adjRight[kOut] = append(adjRight[kOut], idx)
	}

	// Build constraints from every regular left switch's two packets.
	for k := 0; k < upperSize; k++ {
		for parityIn := 0; parityIn < 2; parityIn++ {
			i := 2*k + parityIn
			o := perm.At(i)
			if o == leftoverOutputIndex {
				// Forced: this packet must land on the lower half.
				want := false // isUpperInput must equal false
				leftColor[k] = colorForInput(want, parityIn)
				leftPinned[k] = true
				continue
			}
			kOut := o / 2
			pOut := o % 2
			addEdge(k, kOut, parityIn, pOut)
		}
	}
	// The unpaired leftover input, if any, forces the right switch
	// that would otherwise receive its destination.
	if leftoverInputIndex >= 0 {
		o := perm.At(leftoverInputIndex)
		if o != leftoverOutputIndex {
			kOut := o / 2
			pOut := o % 2
			rightColor[kOut] = colorForOutput(false, pOut)
			rightPinned[kOut] = true
		}
	}

	// 2-colour the constraint graph: BFS from each unvisited node in
	// ascending index, pinned nodes seed their component with their
	// forced value, free components start at false (straight).
	leftVisited := make([]bool, upperSize)
	rightVisited := make([]bool, upperSize)

	type queued struct {
		isLeft bool
		idx    int
	}

	visitComponent := func(start queued, startPinned bool, startColor bool) {
		queue := []queued{start}
		if start.isLeft {
			leftColor[start.idx] = startColor
			leftVisited[start.idx] = true
		} else {
			rightColor[start.idx] = startColor
			rightVisited[start.idx] = true
		}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			if cur.isLeft {
				for _, ei := range adjLeft[cur.idx] {
					e := edges[ei]
					if rightVisited[e.rightNode] {
						continue
					}
					want := isUpperInput(leftColor[e.leftNode], e.parityIn)
					rightColor[e.rightNode] = colorForOutput(want, e.parityOut)
					rightVisited[e.rightNode] = true
					queue = append(queue, queued{false, e.rightNode})
				}
			} else {
				for _, ei := range adjRight[cur.idx] {
					e := edges[ei]
					if leftVisited[e.leftNode] {
						continue
					}
					want := isUpperOutput(rightColor[e.rightNode], e.parityOut)
					leftColor[e.leftNode] = colorForInput(want, e.parityIn)
					leftVisited[e.leftNode] = true
					queue = append(queue, queued{true, e.leftNode})
				}
			}
		}
		_ = startPinned
	}

	// Pinned nodes start their components first, so a traversal begun
	// from a free node never overwrites a forced colour.
	for k := 0; k < upperSize; k++ {
		if leftPinned[k] && !leftVisited[k] {
			visitComponent(queued{true, k}, true, leftColor[k])
		}
	}
	for k := 0; k < upperSize; k++ {
		if rightPinned[k] && !rightVisited[k] {
			visitComponent(queued{false, k}, true, rightColor[k])
		}
	}
	for k := 0; k < upperSize; k++ {
		if !leftVisited[k] {
			if leftPinned[k] {
				visitComponent(queued{true, k}, true, leftColor[k])
			} else {
				visitComponent(queued{true, k}, false, false)
			}
		}
	}
	for k := 0; k < upperSize; k++ {
		if !rightVisited[k] {
			if rightPinned[k] {
				visitComponent(queued{false, k}, true, rightColor[k])
			} else {
				visitComponent(queued{false, k}, false, false)
			}
		}
	}

	// Record the routing bits for this level's canonical positions.
	for k := 0; k < upperSize; k++ {
		routing[leftCol][rowsIn[2*k]] = leftColor[k]
	}
	for k := 0; k < upperSize; k++ {
		routing[rightCol][base+2*k] = rightColor[k]
	}

	// Derive the induced sub-permutations for the recursive calls.
	upperImage := make([]int, upperSize)
	lowerImage := make([]int, lowerSize)
	for k := 0; k < upperSize; k++ {
		for parityIn := 0; parityIn < 2; parityIn++ {
			i := 2*k + parityIn
			o := perm.At(i)
			toUpper := isUpperInput(leftColor[k], parityIn)
			var localOut int
			if o == leftoverOutputIndex {
				localOut = lowerSize - 1
			} else {
				localOut = o / 2
			}
			if toUpper {
				upperImage[k] = localOut
			} else {
				lowerImage[k] = localOut
			}
		}
	}
	if leftoverInputIndex >= 0 {
		o := perm.At(leftoverInputIndex)
		if o == leftoverOutputIndex {
			lowerImage[lowerSize-1] = lowerSize - 1
		} else {
			lowerImage[lowerSize-1] = o / 2
		}
	}

	upperPerm, err := NewPermutation(upperImage)
	if err != nil {
		panic(fmt.Sprintf("waksman: internal routing solver produced an invalid upper sub-permutation: %v", err))
	}
	lowerPerm, err := NewPermutation(lowerImage)
	if err != nil {
		panic(fmt.Sprintf("waksman: internal routing solver produced an invalid lower sub-permutation: %v", err))
	}

	upperRowsIn := make([]int, upperSize)
	lowerRowsIn := make([]int, lowerSize)
	for k := 0; k < upperSize; k++ {
		upperRowsIn[k] = base + k
	}
	for k := 0; k < lowerSize; k++ {
		lowerRowsIn[k] = base + upperSize + k
	}

	routeSubnetwork(routing, upperPerm, upperRowsIn, midColOffset)
	routeSubnetwork(routing, lowerPerm, lowerRowsIn, midColOffset)
}

// isUpperInput reports whether the packet at parity (0 or 1) of a
// left switch set to leftColor (false=straight, true=cross) is routed
// into the upper sub-network.
func isUpperInput(leftColor bool, parity int) bool {
	if parity == 0 {
		return !leftColor
	}
	return leftColor
}

// isUpperOutput reports whether output parity (0 or 1) of a right
// switch set to rightColor is fed from the upper sub-network.
func isUpperOutput(rightColor bool, parity int) bool {
	if parity == 0 {
		return rightColor
	}
	return !rightColor
}

// colorForInput solves isUpperInput(color, parity) == want for color.
func colorForInput(want bool, parity int) bool {
	if parity == 0 {
		return !want
	}
	return want
}

// colorForOutput solves isUpperOutput(color, parity) == want for color.
func colorForOutput(want bool, parity int) bool {
	if parity == 0 {
		return want
	}
	return !want
}
