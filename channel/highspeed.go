//
// highspeed.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

package channel

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

var _ Channel = &highSpeedChannel{}

// highSpeedChannel implements Channel over two dedicated TCP
// connections, one per direction, avoiding the head-of-line
// contention a single socket has when both parties are pushing large
// batches of switch messages at once. This mirrors the two-port dial
// pattern of a dual-socket network transport: one party dials
// (addr, port) for its outbound leg and listens on port+1 for its
// inbound leg, the other does the reverse.
type highSpeedChannel struct {
	send net.Conn
	recv net.Conn
	w    *bufio.Writer
	r    *bufio.Reader
}

// DialHighSpeedTCP is the dialing side of the dual-socket handshake
// (the Evaluator, in apps/picogram): it dials port for sending and
// listens on port+1 for the peer's reciprocal dial.
func DialHighSpeedTCP(host string, port int) (Channel, error) {
	sendAddr := fmt.Sprintf("%s:%d", host, port)
	sendConn, err := net.Dial("tcp", sendAddr)
	if err != nil {
		return nil, fmt.Errorf("channel: dial %s: %w", sendAddr, err)
	}

	recvAddr := fmt.Sprintf(":%d", port+1)
	ln, err := net.Listen("tcp", recvAddr)
	if err != nil {
		sendConn.Close()
		return nil, fmt.Errorf("channel: listen %s: %w", recvAddr, err)
	}
	defer ln.Close()
	recvConn, err := ln.Accept()
	if err != nil {
		sendConn.Close()
		return nil, fmt.Errorf("channel: accept on %s: %w", recvAddr, err)
	}

	return newHighSpeedChannel(sendConn, recvConn), nil
}

// ListenHighSpeedTCP is the listening side (the Garbler, in
// apps/picogram): it listens on port for the peer's dial (becoming its
// recv leg) and dials port+1 for its send leg.
func ListenHighSpeedTCP(host string, port int) (Channel, error) {
	recvAddr := fmt.Sprintf(":%d", port)
	ln, err := net.Listen("tcp", recvAddr)
	if err != nil {
		return nil, fmt.Errorf("channel: listen %s: %w", recvAddr, err)
	}
	recvConn, err := ln.Accept()
	ln.Close()
	if err != nil {
		return nil, fmt.Errorf("channel: accept on %s: %w", recvAddr, err)
	}

	sendAddr := fmt.Sprintf("%s:%d", host, port+1)
	sendConn, err := net.Dial("tcp", sendAddr)
	if err != nil {
		recvConn.Close()
		return nil, fmt.Errorf("channel: dial %s: %w", sendAddr, err)
	}

	return newHighSpeedChannel(sendConn, recvConn), nil
}

func newHighSpeedChannel(send, recv net.Conn) *highSpeedChannel {
	return &highSpeedChannel{
		send: send,
		recv: recv,
		w:    bufio.NewWriter(send),
		r:    bufio.NewReader(recv),
	}
}

func (c *highSpeedChannel) Send(data []byte) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(data)))
	if _, err := c.w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := c.w.Write(data)
	return err
}

func (c *highSpeedChannel) Recv() ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(c.r, hdr[:]); err != nil {
		return nil, fmt.Errorf("channel: read length prefix: %w", err)
	}
	n := binary.BigEndian.Uint32(hdr[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.r, buf); err != nil {
		return nil, fmt.Errorf("channel: read payload: %w", err)
	}
	return buf, nil
}

func (c *highSpeedChannel) Flush() error {
	return c.w.Flush()
}

func (c *highSpeedChannel) Close() error {
	serr := c.send.Close()
	rerr := c.recv.Close()
	if serr != nil {
		return serr
	}
	return rerr
}

func (c *highSpeedChannel) Kind() Kind {
	return HighSpeedNetIO
}
