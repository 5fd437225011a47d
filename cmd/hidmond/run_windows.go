//go:build windows

package main

import (
	"context"
	"runtime"
	"time"

	"github.com/koenigbs18/hidmon/internal/hidmon"
)

// pumpInterval bounds how long a control operation or shutdown request can
// wait while the loop drains the thread message queue.
const pumpInterval = 20 * time.Millisecond

// eventLoop owns the hook thread. Low-level hooks only fire on the thread
// that installed them and that thread must pump messages, so the goroutine
// is pinned to its OS thread, installs the hooks itself, and interleaves
// message pumping with control operations marshaled in over d.ops.
func (d *daemon) eventLoop(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := d.enableConfigured(); err != nil {
		d.logger.Warn("initial hook setup incomplete", "error", err)
	}

	ticker := time.NewTicker(pumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Hooks must be removed on this thread before it unlocks.
			for _, t := range hidTypes {
				if err := d.monitor.Disable(t); err != nil {
					d.logger.Warn("disable on shutdown failed", "hid_type", t.String(), "error", err)
				}
			}
			return nil
		case op := <-d.ops:
			op.result <- op.fn()
		case <-ticker.C:
			hidmon.PumpWaitingMessages()
		}
	}
}
