//go:build windows

package main

import (
	"os"
)

// terminationSignals are the signals that initiate a graceful shutdown.
// Only Ctrl+C (os.Interrupt) is delivered reliably on Windows.
var terminationSignals = []os.Signal{os.Interrupt}
