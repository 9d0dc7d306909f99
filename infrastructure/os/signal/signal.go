// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package signal

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// interruptSignals defines the signals that are handled to do a clean
// shutdown.
var interruptSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// ContextWithInterrupt returns a context that is canceled once the process
// receives SIGINT or SIGTERM. Further signals are logged and otherwise
// ignored until cancel is called.
func ContextWithInterrupt(parent context.Context) (ctx context.Context, cancel func()) {
	ctx, cancelCtx := context.WithCancel(parent)
	interruptChannel := make(chan os.Signal, 1)
	signal.Notify(interruptChannel, interruptSignals...)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-interruptChannel:
			log.Infof("Received signal (%s). Shutting down...", sig)
			cancelCtx()
		case <-done:
			return
		}

		for {
			select {
			case sig := <-interruptChannel:
				log.Infof("Received signal (%s). Already shutting down...", sig)
			case <-done:
				return
			}
		}
	}()

	return ctx, func() {
		signal.Stop(interruptChannel)
		close(done)
		cancelCtx()
	}
}
