//
// permutation.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

// Package waksman implements the AS-Waksman permutation network:
// topology generation, the routing solver, and a plaintext routing
// validator. See permute.Permute for the driver that executes the
// network against a chosen conditional-swap gadget.
package waksman

import (
	"fmt"

	"github.com/picogramimpl/picogram/pgerr"
)

// Permutation is a validated bijection on {0,...,N-1}.
type Permutation struct {
	n     int
	image []int // image[i] = pi(i)
	preim []int // preim[j] = pi^-1(j)
}

// NewPermutation validates the caller-supplied index list and
// constructs a Permutation from it. image must have length N and
// contain every value in {0,...,N-1} exactly once; otherwise it fails
// with pgerr.ErrPermutationInvalid.
func NewPermutation(image []int) (*Permutation, error) {
	n := len(image)
	preim := make([]int, n)
	seen := make([]bool, n)

	for i, v := range image {
		if v < 0 || v >= n {
			return nil, fmt.Errorf("%w: index %d out of range at position %d",
				pgerr.ErrPermutationInvalid, v, i)
		}
		if seen[v] {
			return nil, fmt.Errorf("%w: index %d appears more than once",
				pgerr.ErrPermutationInvalid, v)
		}
		seen[v] = true
		preim[v] = i
	}

	img := make([]int, n)
	copy(img, image)
	return &Permutation{n: n, image: img, preim: preim}, nil
}

// Identity returns the identity permutation on {0,...,n-1}.
func Identity(n int) *Permutation {
	image := make([]int, n)
	for i := range image {
		image[i] = i
	}
	p, _ := NewPermutation(image)
	return p
}

// N returns the size of the permutation's domain.
func (p *Permutation) N() int {
	return p.n
}

// At returns pi(i).
func (p *Permutation) At(i int) int {
	return p.image[i]
}

// Inverse returns pi^-1(j).
func (p *Permutation) Inverse(j int) int {
	return p.preim[j]
}

// Image returns a copy of the permutation's image array.
func (p *Permutation) Image() []int {
	c := make([]int, len(p.image))
	copy(c, p.image)
	return c
}

// Equal reports whether two permutations have the same image.
func (p *Permutation) Equal(o *Permutation) bool {
	if p.n != o.n {
		return false
	}
	for i := range p.image {
		if p.image[i] != o.image[i] {
			return false
		}
	}
	return true
}
