//
// main.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"log"
	"math/big"
	"sync"

	"github.com/picogramimpl/picogram"
	"github.com/picogramimpl/picogram/channel"
	"github.com/picogramimpl/picogram/harness"
	"github.com/picogramimpl/picogram/swap"
)

func main() {
	garbler := flag.Bool("g", false, "Garbler / Evaluator mode; ignored for -net=mem")
	net := flag.String("net", "mem", "Channel kind: mem (both roles, one process), net, or highspeed")
	addr := flag.String("addr", "localhost:9876", "Peer address for net/highspeed channels")
	addrWidth := flag.Int("addr-width", 8, "Address width in bits; the store holds 2^addr-width words")
	wordWidth := flag.Int("word-width", 32, "Word width in bits")
	n := flag.Int("n", 64, "Number of accesses to run")
	seedSlot := flag.Int("seed-slot", -1, "Slot the Evaluator seeds via Oblivious Transfer, or -1 to skip")
	seedValue := flag.Uint64("seed-value", 0, "Evaluator's private seed value for -seed-slot")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	kind, err := channel.ParseKind(*net)
	if err != nil {
		log.Fatal(err)
	}

	cfg := harness.Config{
		AddrWidth:   *addrWidth,
		WordWidth:   *wordWidth,
		NumAccesses: *n,
		Verbose:     *verbose,
	}

	if kind == channel.MemIO {
		if err := runStandalone(cfg, *seedSlot, *seedValue, *n); err != nil {
			log.Fatal(err)
		}
		return
	}

	ch, err := dial(kind, *addr, *garbler)
	if err != nil {
		log.Fatal(err)
	}
	defer ch.Close()

	counting := channel.NewCountingChannel(ch)

	key, err := sharedKey(*garbler, counting)
	if err != nil {
		log.Fatal(err)
	}

	timing := picogram.NewTiming()

	if *garbler {
		if err := runGarbler(cfg, counting, key, *seedSlot, *n, timing); err != nil {
			log.Fatal(err)
		}
	} else {
		if err := runEvaluator(cfg, counting, key, *seedSlot, *seedValue, *n, timing); err != nil {
			log.Fatal(err)
		}
	}

	timing.Print(counting.Stats)
}

// runStandalone drives both roles from a single process over an
// in-memory channel pair, the way the package's own tests exercise
// the full stack; it is the easiest way to see a session run without
// coordinating two terminals.
func runStandalone(cfg harness.Config, seedSlot int, seedValue uint64, n int) error {
	gCh, eCh := channel.NewMemPair()
	defer gCh.Close()
	defer eCh.Close()

	gCounting := channel.NewCountingChannel(gCh)
	eCounting := channel.NewCountingChannel(eCh)

	var key [swap.KeySize]byte
	if _, err := rand.Read(key[:]); err != nil {
		return err
	}

	gTiming := picogram.NewTiming()
	eTiming := picogram.NewTiming()

	var wg sync.WaitGroup
	wg.Add(2)
	var gErr, eErr error
	go func() {
		defer wg.Done()
		gErr = runGarbler(cfg, gCounting, key, seedSlot, n, gTiming)
	}()
	go func() {
		defer wg.Done()
		eErr = runEvaluator(cfg, eCounting, key, seedSlot, seedValue, n, eTiming)
	}()
	wg.Wait()

	if gErr != nil {
		return fmt.Errorf("garbler: %w", gErr)
	}
	if eErr != nil {
		return fmt.Errorf("evaluator: %w", eErr)
	}

	fmt.Println("Garbler:")
	gTiming.Print(gCounting.Stats)
	fmt.Println("Evaluator:")
	eTiming.Print(eCounting.Stats)
	return nil
}

func dial(kind channel.Kind, addr string, isGarbler bool) (channel.Channel, error) {
	switch kind {
	case channel.NetIO:
		if isGarbler {
			return channel.ListenTCP(addr)
		}
		return channel.DialTCP(addr)
	case channel.HighSpeedNetIO:
		host, port, err := splitHostPort(addr)
		if err != nil {
			return nil, err
		}
		if isGarbler {
			return channel.ListenHighSpeedTCP(host, port)
		}
		return channel.DialHighSpeedTCP(host, port)
	default:
		return nil, fmt.Errorf("unsupported channel kind %v", kind)
	}
}

// sharedKey exchanges the AES key both swap gadgets need for masking
// switch messages: the Garbler samples it and sends it in the clear
// over the (already established) channel. This is adequate for the
// illustrative online swap gadget in this repository, which is not
// hardened against a network adversary; see swap package doc comment.
func sharedKey(isGarbler bool, ch channel.Channel) ([swap.KeySize]byte, error) {
	var key [swap.KeySize]byte
	if isGarbler {
		if _, err := rand.Read(key[:]); err != nil {
			return key, err
		}
		if err := ch.Send(key[:]); err != nil {
			return key, err
		}
		return key, ch.Flush()
	}
	data, err := ch.Recv()
	if err != nil {
		return key, err
	}
	copy(key[:], data)
	return key, nil
}

func runGarbler(cfg harness.Config, ch channel.Channel, key [swap.KeySize]byte, seedSlot, n int, timing *picogram.Timing) error {
	g, err := harness.NewGarbler(cfg, ch, key)
	if err != nil {
		return err
	}
	if err := g.Initialize(seedSlot >= 0); err != nil {
		return err
	}
	timing.Sample("initialize")

	for i := 0; i < n; i++ {
		addr, err := randInt(g.N())
		if err != nil {
			return err
		}
		if _, err := g.Access(addr, false, nil); err != nil {
			return err
		}
	}
	timing.Sample("access")
	return nil
}

func runEvaluator(cfg harness.Config, ch channel.Channel, key [swap.KeySize]byte, seedSlot int, seedValue uint64, n int, timing *picogram.Timing) error {
	e, err := harness.NewEvaluator(cfg, ch, key)
	if err != nil {
		return err
	}
	if seedSlot >= 0 && seedSlot >= e.N() {
		return fmt.Errorf("seed-slot %d out of range for %d slots", seedSlot, e.N())
	}
	var seedValues []uint64
	if seedSlot >= 0 {
		seedValues = make([]uint64, e.N())
		seedValues[seedSlot] = seedValue
	}
	if err := e.Initialize(seedValues); err != nil {
		return err
	}
	timing.Sample("initialize")

	for i := 0; i < n; i++ {
		addr, err := randInt(e.N())
		if err != nil {
			return err
		}
		if _, err := e.Access(addr, false, nil); err != nil {
			return err
		}
	}
	timing.Sample("access")
	return nil
}

func randInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

func splitHostPort(addr string) (string, int, error) {
	var host string
	var port int
	_, err := fmt.Sscanf(addr, "%[^:]:%d", &host, &port)
	if err != nil {
		return "", 0, fmt.Errorf("invalid address %q, want host:port: %w", addr, err)
	}
	return host, port, nil
}
