//
// conn.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

package channel

import (
	"encoding/binary"

	"github.com/markkurossi/mpc/ot"
)

var _ ot.IO = &Conn{}

// Conn adapts a Channel to the ot.IO interface so that any Channel
// can be handed directly to ot.NewCO for the initial-memory-load
// Oblivious Transfer that runs during harness initialisation.
type Conn struct {
	ch Channel
}

// NewConn wraps ch as an ot.IO-compatible connection.
func NewConn(ch Channel) *Conn {
	return &Conn{ch: ch}
}

// SendData sends binary data.
func (c *Conn) SendData(val []byte) error {
	return c.ch.Send(val)
}

// SendUint32 sends an uint32 value.
func (c *Conn) SendUint32(val int) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(val))
	return c.ch.Send(buf[:])
}

// Flush flushes any pending data in the connection.
func (c *Conn) Flush() error {
	return c.ch.Flush()
}

// ReceiveData receives binary data.
func (c *Conn) ReceiveData() ([]byte, error) {
	return c.ch.Recv()
}

// ReceiveUint32 receives an uint32 value.
func (c *Conn) ReceiveUint32() (int, error) {
	buf, err := c.ch.Recv()
	if err != nil {
		return 0, err
	}
	return int(binary.BigEndian.Uint32(buf)), nil
}
