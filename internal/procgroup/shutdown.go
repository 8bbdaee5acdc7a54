// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package procgroup

import (
	"os/exec"
	"syscall"
	"time"

	"github.com/ManuGH/vodplay/internal/metrics"
)

// Terminate stops the process group of cmd: SIGTERM, then SIGKILL once grace
// has passed. waitCh must deliver the result of cmd.Wait; Terminate consumes it
// and returns that result. A nil command returns nil.
func Terminate(cmd *exec.Cmd, waitCh <-chan error, grace time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	recordSignal("SIGTERM", Kill(cmd, syscall.SIGTERM))

	select {
	case err := <-waitCh:
		metrics.RecordProcessStop("graceful")
		return err
	case <-time.After(grace):
		recordSignal("SIGKILL", Kill(cmd, syscall.SIGKILL))
		err := <-waitCh
		metrics.RecordProcessStop("forced")
		return err
	}
}

func recordSignal(sig string, err error) {
	result := "sent"
	if err != nil {
		result = "error"
	}
	metrics.RecordProcessSignal(sig, result)
}
