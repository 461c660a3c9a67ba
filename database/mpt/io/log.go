// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package io

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/costa-wang/substrate-digest/common"
	"github.com/costa-wang/substrate-digest/database/mpt"
)

// Log is a logger for long running trie operations like imports and
// verifications. Each message is prefixed by the time elapsed since the
// creation of the log.
type Log struct {
	start  time.Time
	logger *log.Logger
}

func NewLog() *Log {
	return &Log{start: time.Now(), logger: log.Default()}
}

func NewLogTo(out io.Writer) *Log {
	return &Log{start: time.Now(), logger: log.New(out, "", 0)}
}

func (l *Log) Print(msg string) {
	t := uint64(time.Since(l.start).Seconds())
	l.logger.Printf("[t=%4d:%02d] - %s\n", t/60, t%60, msg)
}

func (l *Log) Printf(format string, v ...any) {
	l.Print(fmt.Sprintf(format, v...))
}

// ImportProgress tracks the construction of a trie from a stream of pairs.
// Every window pairs it logs the number of pairs consumed, the number of
// nodes written to the store, and the pair rate since the previous report.
type ImportProgress struct {
	log    *Log
	window int
	last   time.Time

	pairs    int
	nodes    int
	reported int
}

// NewImportProgress creates a tracker reporting every window pairs.
func (l *Log) NewImportProgress(window int) *ImportProgress {
	return &ImportProgress{log: l, window: window, last: time.Now()}
}

// AddPair records a pair passed to the trie builder.
func (p *ImportProgress) AddPair() {
	p.pairs++
	if p.pairs-p.reported < p.window {
		return
	}
	now := time.Now()
	rate := float64(p.pairs-p.reported) / now.Sub(p.last).Seconds()
	p.log.Printf("imported %d pairs, %d nodes written, %.2f pairs/sec", p.pairs, p.nodes, rate)
	p.reported = p.pairs
	p.last = now
}

// Sink wraps the given node writer such that written nodes are counted. A
// nil writer stays nil, so no nodes are produced.
func (p *ImportProgress) Sink(sink mpt.NodeWriter) mpt.NodeWriter {
	if sink == nil {
		return nil
	}
	return &countingWriter{sink: sink, progress: p}
}

// Finish logs a summary of the completed import.
func (p *ImportProgress) Finish(res mpt.BuildResult) {
	p.log.Printf("built trie %v of %d pairs, %d nodes written", res.Root, res.Pairs, p.nodes)
}

// Pairs returns the number of pairs recorded so far.
func (p *ImportProgress) Pairs() int {
	return p.pairs
}

// Nodes returns the number of nodes written so far.
func (p *ImportProgress) Nodes() int {
	return p.nodes
}

type countingWriter struct {
	sink     mpt.NodeWriter
	progress *ImportProgress
}

func (w *countingWriter) Insert(data []byte) (common.Hash, error) {
	hash, err := w.sink.Insert(data)
	if err == nil {
		w.progress.nodes++
	}
	return hash, err
}
