package signalhandler

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"panelscan/logging"
)

// SetupHandler returns a context that is cancelled on SIGINT or SIGTERM.
// Only the first signal is intercepted; a second one terminates the process
// the usual way.
func SetupHandler(parent context.Context, log *logging.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	// Create a channel to receive OS signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Warnf("Received %v, finishing chapters in progress", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// GetOptimalProcs returns the optimal number of worker goroutines for the system
func GetOptimalProcs() int {
	numCPU := runtime.NumCPU()

	// Decoders may run through cgo; leave headroom
	maxProcs := (numCPU * 3) / 4
	if maxProcs < 1 {
		maxProcs = 1
	}

	return maxProcs
}
