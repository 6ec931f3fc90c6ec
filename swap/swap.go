//
// swap.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

// Package swap implements conditional-swap gadgets: the abstract
// permute.CondSwap capability the AS-Waksman driver consumes. Plaintext
// is a bare reference gadget for single-party tests;
// GarblerSwap and EvaluatorSwap are the two-party online gadget. The
// Garbler already knows the plaintext control bit for every switch (it
// derived the routing from its own permutation) and applies it
// directly to its own held pair; it then tells the Evaluator which
// decision to apply to its own pair by sending a single control byte
// masked under a key shared by both parties, so a network eavesdropper
// without that key sees one fixed-size, indistinguishable-from-random
// message per switch regardless of the control bit. The Evaluator, who
// does hold the key, recovers the bit and swaps its own two Words
// directly — it never receives, and never needs, the Garbler's actual
// values.
package swap

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"

	"github.com/picogramimpl/picogram/channel"
	"github.com/picogramimpl/picogram/label"
	"github.com/picogramimpl/picogram/pgerr"
)

// Plaintext swaps a and b directly with no masking or obliviousness
// guarantee. It is the reference gadget for single-party tests such as
// the oram package's, never for the online two-party path; the routing
// self-check (waksman.ValidRouting) simulates switches on its own.
func Plaintext[T any](isCross bool, a, b *T) error {
	if isCross {
		*a, *b = *b, *a
	}
	return nil
}

// KeySize is the AES-256 key width shared by both parties for masking
// the swap gadget's control byte.
const KeySize = 32

// GarblerSwap is the Garbler-side conditional-swap gadget for the
// online protocol.
type GarblerSwap struct {
	Ch      channel.Channel
	Key     [KeySize]byte
	counter uint64
}

// CondSwap implements permute.CondSwap[label.Word]. It swaps the
// Garbler's own pair in place, then sends the Evaluator a masked
// control byte carrying isCross so the Evaluator can apply the same
// decision to its own pair.
func (g *GarblerSwap) CondSwap(isCross bool, a, b *label.Word) error {
	if isCross {
		*a, *b = *b, *a
	}

	ctr := g.counter
	g.counter++

	masked, err := maskFlag(isCross, g.Key, ctr)
	if err != nil {
		return err
	}
	if err := g.Ch.Send([]byte{masked}); err != nil {
		return fmt.Errorf("%w: %v", pgerr.ErrChannel, err)
	}
	return g.Ch.Flush()
}

// EvaluatorSwap is the Evaluator-side conditional-swap gadget.
type EvaluatorSwap struct {
	Ch      channel.Channel
	Key     [KeySize]byte
	counter uint64
}

// NewEvaluatorSwap constructs an EvaluatorSwap sharing key with the
// peer's GarblerSwap.
func NewEvaluatorSwap(ch channel.Channel, key [KeySize]byte) *EvaluatorSwap {
	return &EvaluatorSwap{Ch: ch, Key: key}
}

// CondSwap implements permute.CondSwap[label.Word]. The isCross
// argument is the Evaluator's own locally-derived routing bit, always
// false since the Evaluator never computes a real permutation (see
// oram.Store); the actual decision is the one recovered from the
// Garbler's masked control byte, applied here to the Evaluator's own
// held pair.
func (e *EvaluatorSwap) CondSwap(_ bool, a, b *label.Word) error {
	ctr := e.counter
	e.counter++

	raw, err := e.Ch.Recv()
	if err != nil {
		return fmt.Errorf("%w: %v", pgerr.ErrChannel, err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("%w: malformed swap control byte", pgerr.ErrProtocol)
	}

	isCross, err := unmaskFlag(raw[0], e.Key, ctr)
	if err != nil {
		return err
	}
	if isCross {
		*a, *b = *b, *a
	}
	return nil
}

// maskFlag and unmaskFlag XOR a single control bit against an AES-CTR
// keystream byte keyed by key and addressed by ctr, so the byte that
// crosses the channel is indistinguishable from random to anyone
// without key and carries exactly one byte regardless of the flag's
// value.
func maskFlag(flag bool, key [KeySize]byte, ctr uint64) (byte, error) {
	stream, err := ctrKeystream(key, ctr, 1)
	if err != nil {
		return 0, err
	}
	var b byte
	if flag {
		b = 1
	}
	return b ^ stream[0], nil
}

func unmaskFlag(masked byte, key [KeySize]byte, ctr uint64) (bool, error) {
	stream, err := ctrKeystream(key, ctr, 1)
	if err != nil {
		return false, err
	}
	return (masked^stream[0])&1 == 1, nil
}

// ctrKeystream derives n bytes of AES-CTR keystream under key, using a
// nonce built from ctr. Distinct ctr values never repeat within a
// single switch execution, which is all CTR mode needs to stay secure
// under a fixed key.
func ctrKeystream(key [KeySize]byte, ctr uint64, n int) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pgerr.ErrConfig, err)
	}
	iv := make([]byte, aes.BlockSize)
	binary.BigEndian.PutUint64(iv[aes.BlockSize-8:], ctr)
	stream := cipher.NewCTR(block, iv)
	out := make([]byte, n)
	stream.XORKeyStream(out, out)
	return out, nil
}
