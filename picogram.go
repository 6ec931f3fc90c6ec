//
// picogram.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

// Package picogram is the root of a module whose subpackages implement
// the AS-Waksman permutation network, the online swap gadget, the
// full-reshuffle Oblivious RAM and the two-party harness. This package
// itself provides only the profiling report the command-line tool
// prints after a session.
package picogram

import (
	"fmt"
	"os"
	"time"

	"github.com/markkurossi/tabulate"

	"github.com/picogramimpl/picogram/channel"
)

// FileSize renders a byte count in human-readable units.
type FileSize uint64

func (s FileSize) String() string {
	switch {
	case s > 1000*1000*1000*1000:
		return fmt.Sprintf("%d TB", s/(1000*1000*1000*1000))
	case s > 1000*1000*1000:
		return fmt.Sprintf("%d GB", s/(1000*1000*1000))
	case s > 1000*1000:
		return fmt.Sprintf("%d MB", s/(1000*1000))
	case s > 1000:
		return fmt.Sprintf("%d kB", s/1000)
	default:
		return fmt.Sprintf("%d B", s)
	}
}

// Timing records phase durations and renders a profiling report once
// a run completes.
type Timing struct {
	Start   time.Time
	Samples []*Sample
}

// NewTiming starts a new Timing at the current time.
func NewTiming() *Timing {
	return &Timing{Start: time.Now()}
}

// Sample records a phase running from the end of the previous sample
// (or Start, for the first one) to now.
func (t *Timing) Sample(label string) *Sample {
	start := t.Start
	if len(t.Samples) > 0 {
		start = t.Samples[len(t.Samples)-1].End
	}
	sample := &Sample{Label: label, Start: start, End: time.Now()}
	t.Samples = append(t.Samples, sample)
	return sample
}

// Sample is one row of the profiling report.
type Sample struct {
	Label string
	Start time.Time
	End   time.Time
}

// Print renders the profiling report, including the byte counters
// from stats, to standard output.
func (t *Timing) Print(stats *channel.IOStats) {
	if len(t.Samples) == 0 {
		return
	}

	sent := stats.Sent.Load()
	recvd := stats.Recvd.Load()
	flushed := stats.Flushed.Load()

	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Op").SetAlign(tabulate.ML)
	tab.Header("Time").SetAlign(tabulate.MR)
	tab.Header("%").SetAlign(tabulate.MR)
	tab.Header("Xfer").SetAlign(tabulate.MR)

	total := t.Samples[len(t.Samples)-1].End.Sub(t.Start)
	for _, sample := range t.Samples {
		row := tab.Row()
		row.Column(sample.Label)
		duration := sample.End.Sub(sample.Start)
		row.Column(duration.String())
		row.Column(fmt.Sprintf("%.2f%%", float64(duration)/float64(total)*100))
		row.Column("")
	}

	row := tab.Row()
	row.Column("Total").SetFormat(tabulate.FmtBold)
	row.Column(total.String()).SetFormat(tabulate.FmtBold)
	row.Column("").SetFormat(tabulate.FmtBold)
	row.Column(FileSize(sent + recvd).String()).SetFormat(tabulate.FmtBold)

	row = tab.Row()
	row.Column("├╴Sent").SetFormat(tabulate.FmtItalic)
	row.Column("")
	if sent+recvd > 0 {
		row.Column(fmt.Sprintf("%.2f%%", float64(sent)/float64(sent+recvd)*100)).
			SetFormat(tabulate.FmtItalic)
	} else {
		row.Column("")
	}
	row.Column(FileSize(sent).String()).SetFormat(tabulate.FmtItalic)

	row = tab.Row()
	row.Column("├╴Rcvd").SetFormat(tabulate.FmtItalic)
	row.Column("")
	if sent+recvd > 0 {
		row.Column(fmt.Sprintf("%.2f%%", float64(recvd)/float64(sent+recvd)*100)).
			SetFormat(tabulate.FmtItalic)
	} else {
		row.Column("")
	}
	row.Column(FileSize(recvd).String()).SetFormat(tabulate.FmtItalic)

	row = tab.Row()
	row.Column("╰╴Flcd").SetFormat(tabulate.FmtItalic)
	row.Column("")
	row.Column("")
	row.Column(fmt.Sprintf("%v", flushed)).SetFormat(tabulate.FmtItalic)

	tab.Print(os.Stdout)
}
