//
// oram.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

// Package oram implements the supplemented Oblivious RAM built on the
// AS-Waksman permutation network: a full-reshuffle store that, on
// every access, obliviously routes the target slot to a fixed
// rendezvous position and everything else to a freshly sampled random
// position, so that the physical slot holding any given logical
// address changes on every call, no two accesses can be correlated
// through the network's execution trace, and both parties can locate
// the result without either tracking the other's mapping.
package oram

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20"

	"github.com/picogramimpl/picogram/label"
	"github.com/picogramimpl/picogram/permute"
	"github.com/picogramimpl/picogram/pgerr"
	"github.com/picogramimpl/picogram/waksman"
)

// rendezvous is the fixed, publicly-known physical slot that every
// access routes its target to, once the reshuffle for that access
// completes. Both parties read and, for a write, overwrite this slot
// after the reshuffle; neither needs to know where the target sat
// beforehand.
const rendezvous = 0

// Store is a full-reshuffle ORAM of 2^addrWidth slots, each a Word of
// wordWidth Bits. The logical-to-physical mapping is bookkeeping only
// the Garbler side ever populates or consults: it is what lets the
// Garbler pick, for its own permutation, which physical slot must be
// routed to the rendezvous position for a given logical address. The
// Evaluator's Store carries the same shape but leaves the mapping at
// the identity and never consults it past the initial
// Oblivious-Transfer seeding step, since it locates every access's
// result at the rendezvous position instead.
type Store struct {
	n                 int
	memory            []label.Word
	logicalToPhysical []int
	condSwap          permute.CondSwap[label.Word]
	prg               *chacha20PRG
	isGarbler         bool
}

// NewStore constructs an ORAM of 2^addrWidth slots, each wordWidth
// Bits of lambda bytes wide, initialised to freshly sampled Words
// (matching the Garbler's convention of never storing predictable
// content before the first write). condSwap is the conditional-swap
// gadget the full reshuffle drives on every access: swap.Plaintext for
// tests, or a swap.GarblerSwap/swap.EvaluatorSwap pair for the online
// two-party protocol.
func NewStore(addrWidth, wordWidth, lambda int, isGarbler bool, condSwap permute.CondSwap[label.Word]) (*Store, error) {
	if addrWidth < 0 || addrWidth > 30 {
		return nil, fmt.Errorf("%w: addrWidth out of range: %d", pgerr.ErrConfig, addrWidth)
	}
	n := 1 << uint(addrWidth)

	prg, err := newChacha20PRG()
	if err != nil {
		return nil, err
	}

	memory := make([]label.Word, n)
	for i := range memory {
		w, err := label.NewRandomWordFrom(prg, wordWidth, lambda)
		if err != nil {
			return nil, err
		}
		memory[i] = w
	}

	mapping := make([]int, n)
	for i := range mapping {
		mapping[i] = i
	}

	return &Store{
		n:                 n,
		memory:            memory,
		logicalToPhysical: mapping,
		condSwap:          condSwap,
		prg:               prg,
		isGarbler:         isGarbler,
	}, nil
}

// N returns the number of logical slots.
func (s *Store) N() int {
	return s.n
}

// SetSlot overwrites the current content of logical address addr
// directly, bypassing the reshuffle. It exists for the harness's
// Oblivious-Transfer-based initial seeding step, which must install a
// specific Word before the first Access ever touches that address.
func (s *Store) SetSlot(addr int, data label.Word) {
	phys := s.logicalToPhysical[addr]
	s.memory[phys] = data.Clone()
}

// PeekSlot returns the current content of logical address addr
// without reshuffling. The Garbler side uses it to read out the
// zero-labels for a slot so a caller holding Delta can decode an
// Evaluator's Access result for the same address.
func (s *Store) PeekSlot(addr int) (label.Word, error) {
	if addr < 0 || addr >= s.n {
		return nil, fmt.Errorf("%w: address %d out of range for %d slots", pgerr.ErrConfig, addr, s.n)
	}
	phys := s.logicalToPhysical[addr]
	return s.memory[phys].Clone(), nil
}

// Access performs one read-or-write operation: it returns the Word
// that resided at addr before this call (spec §4.6), reshuffling the
// entire backing array through the AS-Waksman network under a
// permutation that brings addr's current slot to the rendezvous
// position, then reads (and, for a write, overwrites) the result
// there. Only the Garbler knows which physical slot addr names; the
// Evaluator locates the very same result without ever learning it,
// because its half of the network executes an identical sequence of
// switch decisions (see swap.EvaluatorSwap) and therefore its own
// memory arrives at the rendezvous slot in lockstep with the
// Garbler's.
func (s *Store) Access(addr int, isWrite bool, newData label.Word) (label.Word, error) {
	if addr < 0 || addr >= s.n {
		return nil, fmt.Errorf("%w: address %d out of range for %d slots", pgerr.ErrConfig, addr, s.n)
	}

	// Only the Garbler ever computes a real permutation: it is the one
	// party that tracks logicalToPhysical and so is the only one that
	// knows which physical slot must be routed to the rendezvous
	// position for this addr. The Evaluator runs the very same
	// AS-Waksman topology (a function of s.n alone, never secret)
	// under no local permutation of its own; its swap gadget recovers
	// the Garbler's per-switch decision from the masked control byte
	// it receives, so the two sides still execute an identical number
	// of switches, in an identical order, with identical outcomes.
	var perm *waksman.Permutation
	var permImage []int
	if s.isGarbler {
		var err error
		perm, err = s.samplePermutation(s.logicalToPhysical[addr])
		if err != nil {
			return nil, err
		}
		permImage = perm.Image()
	}

	shuffled, err := permute.PermuteIndices(s.memory, permImage, s.condSwap)
	if err != nil {
		return nil, err
	}
	s.memory = shuffled

	if s.isGarbler {
		for a, p := range s.logicalToPhysical {
			s.logicalToPhysical[a] = perm.At(p)
		}
	}

	oldData := s.memory[rendezvous].Clone()
	if isWrite {
		s.memory[rendezvous] = newData.Clone()
	}

	return oldData, nil
}

// samplePermutation draws a permutation of the store's n slots that
// sends target to the fixed rendezvous position and everything else
// to a uniformly random position among the rest, using the Garbler's
// local PRG.
func (s *Store) samplePermutation(target int) (*waksman.Permutation, error) {
	values := make([]int, 0, s.n-1)
	for v := 0; v < s.n; v++ {
		if v != rendezvous {
			values = append(values, v)
		}
	}
	for i := len(values) - 1; i > 0; i-- {
		j, err := s.prg.uint63n(int64(i + 1))
		if err != nil {
			return nil, err
		}
		values[i], values[j] = values[j], values[i]
	}

	image := make([]int, s.n)
	vi := 0
	for p := 0; p < s.n; p++ {
		if p == target {
			image[p] = rendezvous
			continue
		}
		image[p] = values[vi]
		vi++
	}
	return waksman.NewPermutation(image)
}

// chacha20PRG is a fast, seeded pseudo-random source used to sample
// the reshuffle permutations and the fresh initial memory content.
// Seeding it once from crypto/rand and then drawing many values from
// the stream cipher avoids a syscall per random word, which the
// full-reshuffle design needs every single access.
type chacha20PRG struct {
	cipher *chacha20.Cipher
}

func newChacha20PRG() (*chacha20PRG, error) {
	var key [chacha20.KeySize]byte
	var nonce [chacha20.NonceSize]byte
	if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", pgerr.ErrConfig, err)
	}
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", pgerr.ErrConfig, err)
	}
	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pgerr.ErrConfig, err)
	}
	return &chacha20PRG{cipher: c}, nil
}

// Read implements io.Reader by emitting keystream bytes, so
// chacha20PRG can be passed directly to label.NewRandomWordFrom.
func (p *chacha20PRG) Read(buf []byte) (int, error) {
	for i := range buf {
		buf[i] = 0
	}
	p.cipher.XORKeyStream(buf, buf)
	return len(buf), nil
}

// uint63n returns a uniform random value in [0, n) for n > 0. The
// modest modulo bias this introduces for n that doesn't divide 2^63
// is immaterial for shuffling an ORAM's slots and is not a security
// property the store relies on.
func (p *chacha20PRG) uint63n(n int64) (int64, error) {
	var buf [8]byte
	if _, err := p.Read(buf[:]); err != nil {
		return 0, err
	}
	u := uint64(buf[0])<<56 | uint64(buf[1])<<48 | uint64(buf[2])<<40 | uint64(buf[3])<<32 |
		uint64(buf[4])<<24 | uint64(buf[5])<<16 | uint64(buf[6])<<8 | uint64(buf[7])
	u &^= 1 << 63
	return int64(u % uint64(n)), nil
}
