//
// permute.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

// Package permute implements the oblivious permutation driver: it
// executes an AS-Waksman network column by column against a supplied
// conditional-swap gadget, without ever branching on the values being
// routed.
package permute

import (
	"fmt"

	"github.com/picogramimpl/picogram/pgerr"
	"github.com/picogramimpl/picogram/waksman"
)

// CondSwap obliviously swaps *a and *b in place iff isCross is true.
// Implementations must be value-oblivious: their execution trace may
// depend on len of the values but never on isCross or their contents.
type CondSwap[T any] func(isCross bool, a, b *T) error

// Permute applies the AS-Waksman network described by topology to
// input, using routing to set each canonical switch and condSwap to
// execute it. If routing is waksman.Route(perm), the result's entry
// at perm.At(i) equals input[i]. A nil or sparse routing is still
// applied in full over every switch of the topology, so the number
// and order of condSwap calls never depend on the routing's content.
//
// The routing map may leave some canonical positions unpopulated;
// absent entries are treated as straight, matching the waksman
// package's Routing convention.
func Permute[T any](
	input []T,
	topology waksman.Topology,
	routing waksman.Routing,
	condSwap CondSwap[T],
) ([]T, error) {
	n := len(input)
	if len(topology) > 0 && len(topology[0]) != n {
		return nil, fmt.Errorf("%w: topology built for a different packet count", pgerr.ErrConfig)
	}

	current := make([]T, n)
	copy(current, input)
	next := make([]T, n)

	for c, col := range topology {
		row := 0
		for row < n {
			sw := col[row]
			if sw.IsPassthrough() {
				next[sw.DStraight] = current[row]
				row++
				continue
			}

			top, bot := row, row+1
			isCross := routingBit(routing, c, top)
			if err := condSwap(isCross, &current[top], &current[bot]); err != nil {
				return nil, fmt.Errorf("%w: column %d row %d: %v", pgerr.ErrProtocol, c, row, err)
			}

			next[sw.DStraight] = current[top]
			next[sw.DCross] = current[bot]
			row += 2
		}
		current, next = next, current
	}

	return current, nil
}

// PermuteIndices is the convenience entry point matching the source
// template's waksman_permute_vector: given a target permutation as an
// index list (permutationIndices[i] is where input[i] should end up)
// it builds the topology and routing itself, validates the routing
// with a self-check, and executes the network. An empty
// permutationIndices runs the network under an all-straight routing;
// for more than two packets that is a fixed rearrangement, not the
// identity.
func PermuteIndices[T any](input []T, permutationIndices []int, condSwap CondSwap[T]) ([]T, error) {
	n := len(input)
	if len(permutationIndices) != 0 && len(permutationIndices) != n {
		return nil, fmt.Errorf("%w: permutation length %d does not match input length %d",
			pgerr.ErrConfig, len(permutationIndices), n)
	}

	topology := waksman.GenerateTopology(n)

	var routing waksman.Routing
	if len(permutationIndices) != 0 {
		perm, err := waksman.NewPermutation(permutationIndices)
		if err != nil {
			return nil, err
		}
		routing = waksman.Route(perm)
		if !waksman.ValidRouting(perm, routing, topology) {
			return nil, fmt.Errorf("%w: solver produced a routing that does not realise the permutation",
				pgerr.ErrRoutingInvalid)
		}
	}

	return Permute(input, topology, routing, condSwap)
}

func routingBit(routing waksman.Routing, col, row int) bool {
	if routing == nil {
		return false
	}
	if col < 0 || col >= len(routing) || routing[col] == nil {
		return false
	}
	v, ok := routing[col][row]
	if !ok {
		return false
	}
	return v
}
