//go:build !windows

package main

import (
	"os"
	"syscall"
)

// terminationSignals are the signals that initiate a graceful shutdown.
// SIGTERM is what systemd and kubernetes send on stop.
var terminationSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
