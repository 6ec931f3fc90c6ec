//
// harness.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

// Package harness implements the two-party protocol entry points: a
// Garbler and an Evaluator, symmetric in shape, that each construct an
// ORAM side, exchange setup material over a channel, and then serve a
// sequence of read-or-write accesses (spec §4.6).
package harness

import (
	"fmt"

	"github.com/markkurossi/mpc/ot"
	"github.com/markkurossi/text/superscript"

	"github.com/picogramimpl/picogram/channel"
	"github.com/picogramimpl/picogram/label"
	"github.com/picogramimpl/picogram/oram"
	"github.com/picogramimpl/picogram/pgerr"
	"github.com/picogramimpl/picogram/swap"
)

// Config parametrises both roles of the two-party protocol.
type Config struct {
	// AddrWidth is the number of bits in an address; the store holds
	// 2^AddrWidth words.
	AddrWidth int

	// WordWidth is the number of bits in a word.
	WordWidth int

	// NumAccesses bounds how many Access calls the harness expects to
	// serve; it is exchanged during Initialize purely as a protocol
	// sanity check, not enforced by Access itself.
	NumAccesses int

	// Lambda is the label width in bytes; 0 defaults to
	// label.LambdaBytes.
	Lambda int

	// Verbose enables Debugf-style trace logging on the Garbler and
	// Evaluator this Config constructs. It is local bookkeeping, never
	// part of the wire handshake sendConfig/receiveConfig exchange.
	Verbose bool
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.AddrWidth < 0 || c.AddrWidth > 30 {
		return fmt.Errorf("%w: addr width out of range: %d", pgerr.ErrConfig, c.AddrWidth)
	}
	if c.WordWidth <= 0 || c.WordWidth > 4096 {
		return fmt.Errorf("%w: word width out of range: %d", pgerr.ErrConfig, c.WordWidth)
	}
	if c.NumAccesses < 0 {
		return fmt.Errorf("%w: negative access count", pgerr.ErrConfig)
	}
	return nil
}

func (c Config) lambda() int {
	if c.Lambda <= 0 {
		return label.LambdaBytes
	}
	return c.Lambda
}

// sendConfig and receiveConfig exchange the configuration handshake
// that both sides run at the start of Initialize; a mismatch is a
// protocol error, not silently tolerated (spec §4.6, "any deviation is
// a protocol error").
func sendConfig(ch channel.Channel, cfg Config) error {
	buf := make([]byte, 3*4)
	putUint32(buf[0:], uint32(cfg.AddrWidth))
	putUint32(buf[4:], uint32(cfg.WordWidth))
	putUint32(buf[8:], uint32(cfg.NumAccesses))
	if err := ch.Send(buf); err != nil {
		return fmt.Errorf("%w: %v", pgerr.ErrChannel, err)
	}
	return ch.Flush()
}

func receiveConfig(ch channel.Channel, want Config) error {
	buf, err := ch.Recv()
	if err != nil {
		return fmt.Errorf("%w: %v", pgerr.ErrChannel, err)
	}
	if len(buf) != 12 {
		return fmt.Errorf("%w: malformed config handshake", pgerr.ErrProtocol)
	}
	addrWidth := getUint32(buf[0:])
	wordWidth := getUint32(buf[4:])
	numAccesses := getUint32(buf[8:])
	if int(addrWidth) != want.AddrWidth || int(wordWidth) != want.WordWidth || int(numAccesses) != want.NumAccesses {
		return fmt.Errorf("%w: config handshake mismatch", pgerr.ErrProtocol)
	}
	return nil
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func getUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// Garbler is the Garbler side of the two-party protocol: it holds the
// process-wide Delta and, for every store slot, the wire zero-labels
// that let a caller decode any Word an Evaluator hands back.
type Garbler struct {
	cfg   Config
	ch    channel.Channel
	swap  *swap.GarblerSwap
	store *oram.Store
	delta label.Bit
}

// NewGarbler validates cfg and constructs the Garbler side, but does
// not yet talk to the peer; call Initialize for that.
func NewGarbler(cfg Config, ch channel.Channel, key [swap.KeySize]byte) (*Garbler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &Garbler{
		cfg:  cfg,
		ch:   ch,
		swap: &swap.GarblerSwap{Ch: ch, Key: key},
	}
	store, err := oram.NewStore(cfg.AddrWidth, cfg.WordWidth, cfg.lambda(), true, g.swap.CondSwap)
	if err != nil {
		return nil, err
	}
	g.store = store
	return g, nil
}

// Debugf prints a debugging message if Verbose is enabled for this
// party.
func (g *Garbler) Debugf(format string, a ...interface{}) {
	if !g.cfg.Verbose {
		return
	}
	fmt.Printf(format, a...)
}

// IDString returns the party ID as string.
func (g *Garbler) IDString() string {
	return superscript.Itoa(0)
}

// Initialize installs the process-wide Delta, exchanges the
// configuration handshake, and, if seedInitialMemory is true, lets the
// Evaluator obliviously supply the plaintext starting content for
// every slot via Oblivious Transfer, so that the very first access to
// any address already has a shared zero-label/encoded-label basis to
// decode against (spec §8 property 7). Pass false to skip the OT step
// entirely and leave every slot's basis to be established by its
// first write instead.
func (g *Garbler) Initialize(seedInitialMemory bool) error {
	delta, err := label.NewDelta(g.cfg.lambda())
	if err != nil {
		return err
	}
	g.delta = delta

	if err := sendConfig(g.ch, g.cfg); err != nil {
		return err
	}
	g.Debugf("Party%s: config sent, seed=%v\n", g.IDString(), seedInitialMemory)

	if !seedInitialMemory {
		return nil
	}

	n := g.store.N()
	wordWidth := g.cfg.WordWidth
	wires := make([]ot.Wire, n*wordWidth)
	for addr := 0; addr < n; addr++ {
		l0s, err := g.store.PeekSlot(addr)
		if err != nil {
			return err
		}
		for i, l0 := range l0s {
			w := label.NewWire(l0, delta)
			wires[addr*wordWidth+i] = ot.Wire{L0: bitToOTLabel(w.L0), L1: bitToOTLabel(w.L1)}
		}
	}

	sender := ot.NewCO()
	conn := channel.NewConn(g.ch)
	if err := sender.InitSender(conn); err != nil {
		return fmt.Errorf("%w: OT sender init: %v", pgerr.ErrChannel, err)
	}
	if err := sender.Send(wires); err != nil {
		return fmt.Errorf("%w: OT send: %v", pgerr.ErrChannel, err)
	}
	g.Debugf("Party%s: seeded %d slots via OT\n", g.IDString(), n)
	return nil
}

// N returns the number of logical slots the store holds.
func (g *Garbler) N() int {
	return g.store.N()
}

// ZeroLabels returns the current zero-labels for every wire of the
// word currently stored at addr, so a caller holding Delta can decode
// whatever label.Word the Evaluator's Access for the same addr
// returns.
func (g *Garbler) ZeroLabels(addr int) (label.Word, error) {
	return g.store.PeekSlot(addr)
}

// Access performs one read-or-write operation and returns the
// zero-labels for the word that resided at addr before this call.
// For a write, newData is stored as the slot's new zero-labels, so it
// must be a freshly sampled word, never one read back from the store.
func (g *Garbler) Access(addr int, isWrite bool, newData label.Word) (label.Word, error) {
	g.Debugf("Party%s: access addr=%d write=%v\n", g.IDString(), addr, isWrite)
	return g.store.Access(addr, isWrite, newData)
}

// Evaluator is the Evaluator side of the two-party protocol. It never
// installs Delta and, since the reshuffle's rendezvous position is
// public, it locates every access's result without ever tracking a
// logical-to-physical mapping of its own; its Access returns whatever
// encoded labels the online swap gadget's data movement produces.
type Evaluator struct {
	cfg   Config
	ch    channel.Channel
	swap  *swap.EvaluatorSwap
	store *oram.Store
}

// NewEvaluator validates cfg and constructs the Evaluator side.
func NewEvaluator(cfg Config, ch channel.Channel, key [swap.KeySize]byte) (*Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Evaluator{
		cfg:  cfg,
		ch:   ch,
		swap: swap.NewEvaluatorSwap(ch, key),
	}
	store, err := oram.NewStore(cfg.AddrWidth, cfg.WordWidth, cfg.lambda(), false, e.swap.CondSwap)
	if err != nil {
		return nil, err
	}
	e.store = store
	return e, nil
}

// Debugf prints a debugging message if Verbose is enabled for this
// party.
func (e *Evaluator) Debugf(format string, a ...interface{}) {
	if !e.cfg.Verbose {
		return
	}
	fmt.Printf(format, a...)
}

// IDString returns the party ID as string.
func (e *Evaluator) IDString() string {
	return superscript.Itoa(1)
}

// Initialize confirms the configuration handshake and, if seedValues is
// non-nil, uses Oblivious Transfer to load the Evaluator's own chosen
// plaintext value into every slot of the starting memory without
// revealing any of them to the Garbler. seedValues must have exactly
// N() entries when non-nil; bit i (LSB first) of seedValues[addr]
// selects L0 or L1 for wire i of that slot's word. Passing nil skips
// the OT step entirely and leaves every slot's basis to be established
// by its first write instead.
func (e *Evaluator) Initialize(seedValues []uint64) error {
	if err := receiveConfig(e.ch, e.cfg); err != nil {
		return err
	}
	e.Debugf("Party%s: config received, seed=%v\n", e.IDString(), seedValues != nil)

	if seedValues == nil {
		return nil
	}
	n := e.store.N()
	if len(seedValues) != n {
		return fmt.Errorf("%w: got %d seed values, want %d", pgerr.ErrConfig, len(seedValues), n)
	}

	wordWidth := e.cfg.WordWidth
	flags := make([]bool, n*wordWidth)
	for addr, v := range seedValues {
		for i := 0; i < wordWidth; i++ {
			flags[addr*wordWidth+i] = (v>>uint(i))&1 == 1
		}
	}
	result := make([]ot.Label, n*wordWidth)

	receiver := ot.NewCO()
	conn := channel.NewConn(e.ch)
	if err := receiver.InitReceiver(conn); err != nil {
		return fmt.Errorf("%w: OT receiver init: %v", pgerr.ErrChannel, err)
	}
	if err := receiver.Receive(flags, result); err != nil {
		return fmt.Errorf("%w: OT receive: %v", pgerr.ErrChannel, err)
	}

	for addr := 0; addr < n; addr++ {
		word := make(label.Word, wordWidth)
		for i := 0; i < wordWidth; i++ {
			word[i] = otLabelToBit(result[addr*wordWidth+i], e.cfg.lambda())
		}
		e.store.SetSlot(addr, word)
	}
	e.Debugf("Party%s: seeded %d slots via OT\n", e.IDString(), n)
	return nil
}

// Access performs one read-or-write operation and returns the encoded
// labels for the word that resided at addr before this call.
func (e *Evaluator) Access(addr int, isWrite bool, newData label.Word) (label.Word, error) {
	e.Debugf("Party%s: access addr=%d write=%v\n", e.IDString(), addr, isWrite)
	return e.store.Access(addr, isWrite, newData)
}

// N returns the number of logical slots the store holds.
func (e *Evaluator) N() int {
	return e.store.N()
}

// bitToOTLabel and otLabelToBit convert between a label.Bit (an
// arbitrary-width byte slice) and the fixed 16-byte ot.Label the
// Chou-Orlandi implementation moves over the wire; label.LambdaBytes
// is chosen to match this width exactly (see label.LambdaBytes' doc
// comment) so the conversion never truncates real key material.
func bitToOTLabel(b label.Bit) ot.Label {
	var data ot.LabelData
	copy(data[:], b)
	var l ot.Label
	l.SetData(&data)
	return l
}

func otLabelToBit(l ot.Label, lambda int) label.Bit {
	var data ot.LabelData
	l.GetData(&data)
	b := make(label.Bit, lambda)
	copy(b, data[:])
	return b
}
