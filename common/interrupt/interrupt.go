// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package interrupt

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/costa-wang/substrate-digest/common"
)

// ErrCanceled is reported by long running operations stopped through their
// context before completing.
const ErrCanceled = common.ConstError("interrupted")

// IsCancelled returns true if the given context has been cancelled.
func IsCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Register returns a context cancelled on the first SIGINT or SIGTERM the
// process receives. Instead of terminating immediately, operations observing
// the context get the chance to flush their node store. The returned stop
// function releases the signal handler and must be called once the context
// is no longer needed.
func Register(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer signal.Stop(signals)
		select {
		case sig := <-signals:
			log.Printf("received %v, stopping after the current batch", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		cancel()
		<-done
	}
}
