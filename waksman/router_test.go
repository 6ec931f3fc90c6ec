//
// router_test.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

package waksman

import (
	"math/rand"
	"testing"
)

func mustPerm(t *testing.T, image []int) *Permutation {
	t.Helper()
	p, err := NewPermutation(image)
	if err != nil {
		t.Fatalf("NewPermutation(%v): %v", image, err)
	}
	return p
}

// TestRouteExhaustiveSmallN checks invariant 1 (valid_routing(pi,
// route(pi)) holds) for every permutation of every N up to 7, where
// exhaustive enumeration is still cheap.
func TestRouteExhaustiveSmallN(t *testing.T) {
	for n := 1; n <= 7; n++ {
		top := GenerateTopology(n)
		permute(make([]int, n), make([]bool, n), 0, func(image []int) {
			p := mustPerm(t, append([]int(nil), image...))
			r := Route(p)
			if !ValidRouting(p, r, top) {
				t.Fatalf("n=%d pi=%v: routing does not realise permutation", n, image)
			}
		})
	}
}

// permute calls fn once for every permutation of {0,...,len(buf)-1},
// building it into buf in place.
func permute(buf []int, used []bool, pos int, fn func([]int)) {
	if pos == len(buf) {
		fn(buf)
		return
	}
	for v := 0; v < len(buf); v++ {
		if used[v] {
			continue
		}
		used[v] = true
		buf[pos] = v
		permute(buf, used, pos+1, fn)
		used[v] = false
	}
}

// TestRouteRandomLargeN checks invariant 1 for random permutations of
// every N up to 64.
func TestRouteRandomLargeN(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for n := 1; n <= 64; n++ {
		top := GenerateTopology(n)
		for trial := 0; trial < 5; trial++ {
			image := rng.Perm(n)
			p := mustPerm(t, image)
			r := Route(p)
			if !ValidRouting(p, r, top) {
				t.Fatalf("n=%d trial=%d pi=%v: routing does not realise permutation", n, trial, image)
			}
		}
	}
}

func TestRouteDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for n := 2; n <= 32; n++ {
		p := mustPerm(t, rng.Perm(n))
		r1 := Route(p)
		r2 := Route(p)
		if len(r1) != len(r2) {
			t.Fatalf("n=%d: differing column counts across calls", n)
		}
		for c := range r1 {
			if len(r1[c]) != len(r2[c]) {
				t.Fatalf("n=%d col=%d: differing entry counts across calls", n, c)
			}
			for row, v := range r1[c] {
				if r2[c][row] != v {
					t.Fatalf("n=%d col=%d row=%d: %v != %v across calls", n, c, row, v, r2[c][row])
				}
			}
		}
	}
}

// TestScenarioS1 is the literal scenario from SPEC_FULL.md: N=4,
// pi=[1,3,0,2].
func TestScenarioS1(t *testing.T) {
	p := mustPerm(t, []int{1, 3, 0, 2})
	top := GenerateTopology(4)
	if len(top) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(top))
	}
	r := Route(p)
	if !ValidRouting(p, r, top) {
		t.Fatal("routing invalid for S1")
	}
}

// TestScenarioS2 is N=3, pi=[2,0,1]: applied to [X,Y,Z] yields
// [Y,Z,X].
func TestScenarioS2(t *testing.T) {
	p := mustPerm(t, []int{2, 0, 1})
	top := GenerateTopology(3)
	if len(top) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(top))
	}
	r := Route(p)
	if !ValidRouting(p, r, top) {
		t.Fatal("routing invalid for S2")
	}
}

// TestScenarioS3 is N=2, pi=[1,0]: one column, single switch in cross
// mode.
func TestScenarioS3(t *testing.T) {
	p := mustPerm(t, []int{1, 0})
	top := GenerateTopology(2)
	r := Route(p)
	if len(r) != 1 {
		t.Fatalf("expected 1 column, got %d", len(r))
	}
	if !r[0][0] {
		t.Fatal("expected the single switch to be set to cross")
	}
	if !ValidRouting(p, r, top) {
		t.Fatal("routing invalid for S3")
	}
}

func TestValidRoutingRejectsWrongRouting(t *testing.T) {
	p := mustPerm(t, []int{1, 0})
	top := GenerateTopology(2)
	bad := Routing{map[int]bool{0: false}}
	if ValidRouting(p, bad, top) {
		t.Fatal("expected straight routing to fail validation against a cross permutation")
	}
}

func TestIdentityRoutingValid(t *testing.T) {
	for n := 1; n <= 16; n++ {
		p := Identity(n)
		top := GenerateTopology(n)
		r := Route(p)
		if !ValidRouting(p, r, top) {
			t.Fatalf("n=%d: identity routing invalid", n)
		}
	}
}
