//go:build !windows

package main

import "context"

// eventLoop applies the initial hook configuration, then services control
// operations until ctx is done. On non-Windows platforms hooks deliver
// events from their own reader goroutines, so no pumping happens here.
func (d *daemon) eventLoop(ctx context.Context) error {
	if err := d.enableConfigured(); err != nil {
		d.logger.Warn("initial hook setup incomplete", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case op := <-d.ops:
			op.result <- op.fn()
		}
	}
}
