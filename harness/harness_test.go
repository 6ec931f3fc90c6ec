//
// harness_test.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

package harness

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/picogramimpl/picogram/channel"
	"github.com/picogramimpl/picogram/label"
	"github.com/picogramimpl/picogram/pgerr"
)

func testKey() (key [32]byte) {
	for i := range key {
		key[i] = byte(i*11 + 3)
	}
	return key
}

// runPair drives a Garbler and an Evaluator's Initialize concurrently
// over an in-memory channel pair and returns both, ready for Access.
// seedValues is forwarded to Evaluator.Initialize verbatim: nil skips
// the OT-seeding step, a slice of exactly N() entries seeds every
// slot's starting content.
func runPair(t *testing.T, cfg Config, seedValues []uint64) (*Garbler, *Evaluator, func()) {
	t.Helper()
	label.ResetDelta()

	gCh, eCh := channel.NewMemPair()
	key := testKey()

	g, err := NewGarbler(cfg, gCh, key)
	if err != nil {
		t.Fatalf("NewGarbler: %v", err)
	}
	e, err := NewEvaluator(cfg, eCh, key)
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	var gErr, eErr error
	go func() {
		defer wg.Done()
		gErr = g.Initialize(seedValues != nil)
	}()
	go func() {
		defer wg.Done()
		eErr = e.Initialize(seedValues)
	}()
	wg.Wait()

	if gErr != nil {
		t.Fatalf("garbler initialize: %v", gErr)
	}
	if eErr != nil {
		t.Fatalf("evaluator initialize: %v", eErr)
	}

	cleanup := func() {
		gCh.Close()
		eCh.Close()
		label.ResetDelta()
	}
	return g, e, cleanup
}

func doAccess(t *testing.T, g *Garbler, e *Evaluator, addr int, isWrite bool, newData label.Word) (gOld, eOld label.Word) {
	t.Helper()
	return doAccessPair(t, g, e, addr, isWrite, newData, newData)
}

// doAccessPair drives one access with independent write payloads for
// each side: the Garbler side of a write is always a fresh zero-label
// vector for the slot's wires, never the stale content already sitting
// there, so that a later access still decodes against the right wire
// pair; the Evaluator side is the corresponding encoding of its real
// value under those same zero-labels and Delta.
func doAccessPair(t *testing.T, g *Garbler, e *Evaluator, addr int, isWrite bool, gNewData, eNewData label.Word) (gOld, eOld label.Word) {
	t.Helper()
	var wg sync.WaitGroup
	wg.Add(2)
	var gErr, eErr error
	go func() {
		defer wg.Done()
		gOld, gErr = g.Access(addr, isWrite, gNewData)
	}()
	go func() {
		defer wg.Done()
		eOld, eErr = e.Access(addr, isWrite, eNewData)
	}()
	wg.Wait()
	if gErr != nil {
		t.Fatalf("garbler access: %v", gErr)
	}
	if eErr != nil {
		t.Fatalf("evaluator access: %v", eErr)
	}
	return gOld, eOld
}

// TestConfigHandshakeMismatchFails checks that the two-party
// handshake rejects a peer running with a different configuration.
func TestConfigHandshakeMismatchFails(t *testing.T) {
	label.ResetDelta()
	defer label.ResetDelta()

	gCh, eCh := channel.NewMemPair()
	defer gCh.Close()
	defer eCh.Close()
	key := testKey()

	gCfg := Config{AddrWidth: 3, WordWidth: 8, NumAccesses: 4}
	eCfg := Config{AddrWidth: 3, WordWidth: 8, NumAccesses: 5}

	g, err := NewGarbler(gCfg, gCh, key)
	if err != nil {
		t.Fatal(err)
	}
	e, err := NewEvaluator(eCfg, eCh, key)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	var gErr, eErr error
	go func() {
		defer wg.Done()
		gErr = g.Initialize(false)
	}()
	go func() {
		defer wg.Done()
		eErr = e.Initialize(nil)
	}()
	wg.Wait()

	if gErr != nil {
		t.Fatalf("garbler side of a config mismatch should still just send: %v", gErr)
	}
	if eErr == nil {
		t.Fatal("expected protocol error on config mismatch")
	}
}

// TestScenarioS4SequentialAccessesRoundTrip runs a sequence of
// interleaved reads and writes and checks, at every step including
// the very first, that the Evaluator's returned labels decode (against
// the Garbler's Delta and zero-labels for the same address) to the
// plaintext value the test expects from a reference in-memory array
// (spec S4, spec §8 property 7). The starting memory is OT-seeded to
// all zeros for every slot during Initialize so that a read before any
// write to a given address already has a shared basis to decode
// against, rather than only slots a prior write has established.
func TestScenarioS4SequentialAccessesRoundTrip(t *testing.T) {
	const addrWidth = 4
	const wordWidth = 6
	cfg := Config{AddrWidth: addrWidth, WordWidth: wordWidth, NumAccesses: 40}

	n := 1 << addrWidth
	seedValues := make([]uint64, n)

	g, e, cleanup := runPair(t, cfg, seedValues)
	defer cleanup()

	delta, err := label.Delta()
	if err != nil {
		t.Fatal(err)
	}

	reference := make([]uint64, n)

	rng := rand.New(rand.NewSource(20260806))

	for i := 0; i < 256; i++ {
		addr := rng.Intn(n)
		isWrite := rng.Intn(2) == 0

		var gNewData, eNewData label.Word
		var newValue uint64
		if isWrite {
			// A write installs a fresh zero-label basis for the slot's
			// wires on the Garbler side, and the Evaluator's matching
			// encoding of the real value under that basis; reusing the
			// slot's stale content as the basis would make every value
			// after the first write decode to zero.
			freshZero, err := label.NewRandomWord(wordWidth, label.LambdaBytes)
			if err != nil {
				t.Fatal(err)
			}
			newValue = rng.Uint64() & ((1 << uint(wordWidth)) - 1)
			gNewData = freshZero
			eNewData = label.EncodeWord(freshZero, delta, newValue)
		}

		gOld, eOld := doAccessPair(t, g, e, addr, isWrite, gNewData, eNewData)

		wires := make([]label.Wire, wordWidth)
		for j, l0 := range gOld {
			wires[j] = label.NewWire(l0, delta)
		}
		decoded, err := label.DecodeWord(wires, eOld)
		if err != nil {
			t.Fatalf("access %d (addr=%d): decode failed: %v", i, addr, err)
		}
		if decoded != reference[addr] {
			t.Fatalf("access %d (addr=%d): got %d, want %d", i, addr, decoded, reference[addr])
		}

		if isWrite {
			reference[addr] = newValue
		}
	}
}

// TestScenarioS5LoopbackTCP repeats a small write-then-read access
// sequence over a real loopback TCP channel pair instead of the
// in-memory one, decoding every result exactly as S4 does (spec §8
// property 7): the starting memory is OT-seeded to all zeros so even
// the very first access has a shared basis.
func TestScenarioS5LoopbackTCP(t *testing.T) {
	const addr = ":18453"

	listenErrCh := make(chan error, 1)
	var gCh channel.Channel
	go func() {
		ch, err := channel.ListenTCP(addr)
		gCh = ch
		listenErrCh <- err
	}()

	eCh, err := dialWithRetry(addr)
	if err != nil {
		t.Fatal(err)
	}
	if err := <-listenErrCh; err != nil {
		t.Fatal(err)
	}
	defer gCh.Close()
	defer eCh.Close()

	label.ResetDelta()
	defer label.ResetDelta()

	key := testKey()
	cfg := Config{AddrWidth: 3, WordWidth: 6, NumAccesses: 64}

	g, err := NewGarbler(cfg, gCh, key)
	if err != nil {
		t.Fatal(err)
	}
	e, err := NewEvaluator(cfg, eCh, key)
	if err != nil {
		t.Fatal(err)
	}

	const wordWidth = 6
	const n = 8
	seedValues := make([]uint64, n)

	var wg sync.WaitGroup
	wg.Add(2)
	var gErr, eErr error
	go func() {
		defer wg.Done()
		gErr = g.Initialize(true)
	}()
	go func() {
		defer wg.Done()
		eErr = e.Initialize(seedValues)
	}()
	wg.Wait()
	if gErr != nil {
		t.Fatal(gErr)
	}
	if eErr != nil {
		t.Fatal(eErr)
	}

	delta, err := label.Delta()
	if err != nil {
		t.Fatal(err)
	}

	reference := make([]uint64, n)

	for i := 0; i < 64; i++ {
		addr := i % n
		isWrite := i%2 == 0

		var gNewData, eNewData label.Word
		var newValue uint64
		if isWrite {
			freshZero, err := label.NewRandomWord(wordWidth, label.LambdaBytes)
			if err != nil {
				t.Fatal(err)
			}
			newValue = uint64(i) & ((1 << uint(wordWidth)) - 1)
			gNewData = freshZero
			eNewData = label.EncodeWord(freshZero, delta, newValue)
		}

		gOld, eOld := doAccessPair(t, g, e, addr, isWrite, gNewData, eNewData)

		wires := make([]label.Wire, wordWidth)
		for j, l0 := range gOld {
			wires[j] = label.NewWire(l0, delta)
		}
		decoded, err := label.DecodeWord(wires, eOld)
		if err != nil {
			t.Fatalf("access %d (addr=%d): decode failed: %v", i, addr, err)
		}
		if decoded != reference[addr] {
			t.Fatalf("access %d (addr=%d): got %d, want %d", i, addr, decoded, reference[addr])
		}

		if isWrite {
			reference[addr] = newValue
		}
	}
}

func dialWithRetry(addr string) (channel.Channel, error) {
	var lastErr error
	for i := 0; i < 50; i++ {
		ch, err := channel.DialTCP(addr)
		if err == nil {
			return ch, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// TestScenarioS6SetDeltaTwiceFails checks that a Garbler process
// cannot re-initialize twice within one lifetime: Delta's contract is
// install-once (spec S6).
func TestScenarioS6SetDeltaTwiceFails(t *testing.T) {
	label.ResetDelta()
	defer label.ResetDelta()

	gCh, eCh := channel.NewMemPair()
	defer gCh.Close()
	defer eCh.Close()
	key := testKey()

	cfg := Config{AddrWidth: 2, WordWidth: 4, NumAccesses: 1}
	g, err := NewGarbler(cfg, gCh, key)
	if err != nil {
		t.Fatal(err)
	}
	e, err := NewEvaluator(cfg, eCh, key)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = g.Initialize(false)
	}()
	go func() {
		defer wg.Done()
		_ = e.Initialize(nil)
	}()
	wg.Wait()

	if _, err := label.NewDelta(label.LambdaBytes); err == nil {
		t.Fatal("expected error installing delta a second time")
	} else if !errors.Is(err, pgerr.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

// TestOTSeededSlotDecodesToEvaluatorChoice checks the supplemented
// OT-based initial-load feature end to end: the Evaluator picks a
// private seed value for one slot of the starting memory during
// Initialize, and after any later access to that address its returned
// labels decode back to exactly that value, without the Garbler ever
// learning it during setup.
func TestOTSeededSlotDecodesToEvaluatorChoice(t *testing.T) {
	const addrWidth = 3
	const wordWidth = 5
	cfg := Config{AddrWidth: addrWidth, WordWidth: wordWidth, NumAccesses: 1}

	const seedSlot = 2
	const seedValue = uint64(0b10110)

	seedValues := make([]uint64, 1<<addrWidth)
	seedValues[seedSlot] = seedValue

	g, e, cleanup := runPair(t, cfg, seedValues)
	defer cleanup()

	delta, err := label.Delta()
	if err != nil {
		t.Fatal(err)
	}

	zeroLabels, err := g.ZeroLabels(seedSlot)
	if err != nil {
		t.Fatal(err)
	}

	_, eOld := doAccess(t, g, e, seedSlot, false, nil)

	wires := make([]label.Wire, wordWidth)
	for i, l0 := range zeroLabels {
		wires[i] = label.NewWire(l0, delta)
	}
	decoded, err := label.DecodeWord(wires, eOld)
	if err != nil {
		t.Fatal(err)
	}
	if decoded != seedValue {
		t.Fatalf("got %b, want %b", decoded, seedValue)
	}
}
