package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/koenigbs18/hidmon/internal/config"
	"github.com/koenigbs18/hidmon/internal/hidmon"
	"github.com/koenigbs18/hidmon/internal/ipc"
	"github.com/koenigbs18/hidmon/internal/lockwatch"
	"github.com/koenigbs18/hidmon/internal/logging"
	"github.com/koenigbs18/hidmon/internal/store"
)

// hidTypes are the device types the daemon manages. The counters array
// below is sized from it, so adding a type here extends both.
var hidTypes = [...]hidmon.HidType{hidmon.Keyboard, hidmon.Mouse}

// controlOp is a control-plane request executed on the event-loop thread.
// On Windows hooks only deliver events to the thread that installed them
// and pumps messages, so every Enable/Disable is marshaled there.
type controlOp struct {
	fn     func() error
	result chan error
}

type daemon struct {
	cfg     *config.Config
	logger  *logging.Logger
	monitor *hidmon.Monitor
	db      *store.Store

	session   int64
	startedAt time.Time
	counters  [len(hidTypes)]atomic.Uint64

	ctx      context.Context
	ops      chan controlOp
	shutdown context.CancelFunc

	// pausedTypes remembers which types were live when the session
	// locked, so unlock restores exactly those.
	pausedTypes []hidmon.HidType
}

func runDaemon(configPath string) error {
	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	defer loader.Close()

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()
	logging.SetDefault(logger)

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	hostname, _ := os.Hostname()
	session, err := db.BeginSession(hostname)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d := &daemon{
		cfg:       cfg,
		logger:    logger,
		monitor:   hidmon.NewWith(hidmon.NewInstaller(cfg.Monitor.DeviceGlobs)),
		db:        db,
		session:   session,
		startedAt: time.Now(),
		ctx:       ctx,
		ops:       make(chan controlOp),
		shutdown:  cancel,
	}
	defer d.monitor.Close()

	for _, t := range hidTypes {
		d.addCountingCallback(t)
	}

	srv := ipc.NewServer(cfg.IPC.Socket, d.handleRequest)
	if err := srv.Start(); err != nil {
		return err
	}
	defer srv.Close()

	loader.OnChange(d.applyConfig)
	if err := loader.Watch(); err != nil {
		logger.Warn("config watch unavailable", "error", err)
	}

	if cfg.Monitor.PauseOnLock {
		go d.watchSessionLock(ctx)
	}
	go d.flushLoop(ctx)

	logger.Info("hidmond started",
		"version", version,
		"session", session,
		"keyboard", cfg.Monitor.Keyboard,
		"mouse", cfg.Monitor.Mouse,
	)

	// Blocks until ctx is done; on Windows this is also the message pump
	// and hook thread.
	err = d.eventLoop(ctx)

	d.flushCounts()
	if endErr := db.EndSession(session); endErr != nil {
		logger.Warn("end session failed", "error", endErr)
	}
	logger.Info("hidmond stopped")
	return err
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	lc := logging.DefaultConfig()
	lc.Level = level
	lc.Format = format
	if cfg.Logging.Output != "" {
		lc.Output = cfg.Logging.Output
	}
	if cfg.Logging.FilePath != "" {
		lc.FilePath = cfg.Logging.FilePath
	}
	if cfg.Logging.MaxSizeMB > 0 {
		lc.MaxSize = cfg.Logging.MaxSizeMB
	}
	if cfg.Logging.MaxBackups > 0 {
		lc.MaxBackups = cfg.Logging.MaxBackups
	}
	return logging.New(lc)
}

func (d *daemon) addCountingCallback(t hidmon.HidType) {
	counter := &d.counters[t]
	d.monitor.AddCallback(t, hidmon.CallbackFunc(func(code int32, wparam, lparam uintptr) {
		counter.Add(1)
	}))
}

// enableConfigured brings the monitor in line with the config. Runs on the
// event-loop thread.
func (d *daemon) enableConfigured() error {
	var firstErr error
	for _, t := range hidTypes {
		want := d.typeConfigured(t)
		var err error
		if want {
			err = d.monitor.Enable(t)
		} else {
			err = d.monitor.Disable(t)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if err != nil {
			d.logger.Error("hook state change failed", "hid_type", t.String(), "error", err)
		}
	}
	return firstErr
}

func (d *daemon) typeConfigured(t hidmon.HidType) bool {
	switch t {
	case hidmon.Keyboard:
		return d.cfg.Monitor.Keyboard
	case hidmon.Mouse:
		return d.cfg.Monitor.Mouse
	}
	return false
}

// do runs fn on the event-loop thread and waits for its result.
func (d *daemon) do(ctx context.Context, fn func() error) error {
	op := controlOp{fn: fn, result: make(chan error, 1)}
	select {
	case d.ops <- op:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-op.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// applyConfig reacts to a config hot reload. Only the monitor section is
// applied live; logging and socket changes need a restart.
func (d *daemon) applyConfig(cfg *config.Config) {
	d.logger.Info("configuration reloaded")
	err := d.do(d.ctx, func() error {
		d.cfg = cfg
		return d.enableConfigured()
	})
	if err != nil {
		d.logger.Error("apply reloaded config", "error", err)
	}
}

// handleRequest serves one IPC request.
func (d *daemon) handleRequest(req ipc.Request) ipc.Response {
	ctx, cancel := context.WithTimeout(d.ctx, 5*time.Second)
	defer cancel()

	switch req.Op {
	case ipc.OpStatus:
		return ipc.Response{OK: true, Status: d.status()}

	case ipc.OpEnable, ipc.OpDisable:
		t, err := hidmon.ParseHidType(req.HidType)
		if err != nil {
			return ipc.Errorf(err.Error())
		}
		err = d.do(ctx, func() error {
			if req.Op == ipc.OpEnable {
				return d.monitor.Enable(t)
			}
			return d.monitor.Disable(t)
		})
		if err != nil {
			return ipc.Errorf(err.Error())
		}
		return ipc.OKResponse()

	case ipc.OpShutdown:
		d.shutdown()
		return ipc.OKResponse()

	default:
		return ipc.Errorf(fmt.Sprintf("unknown op %q", req.Op))
	}
}

func (d *daemon) status() *ipc.Status {
	st := &ipc.Status{
		PID:       os.Getpid(),
		Version:   version,
		StartedAt: d.startedAt,
		SessionID: d.session,
	}
	for _, t := range hidTypes {
		st.Hooks = append(st.Hooks, ipc.HookStatus{
			HidType: t.String(),
			Enabled: d.monitor.Enabled(t),
			Events:  d.counters[t].Load(),
		})
	}
	return st
}

// watchSessionLock pauses monitoring while the desktop session is locked.
func (d *daemon) watchSessionLock(ctx context.Context) {
	watcher := lockwatch.New()
	events, err := watcher.Start()
	if err != nil {
		d.logger.Warn("session lock watching unavailable", "error", err)
		return
	}
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			d.onLockTransition(ctx, ev.Locked)
		}
	}
}

func (d *daemon) onLockTransition(ctx context.Context, locked bool) {
	err := d.do(ctx, func() error {
		if locked {
			d.pausedTypes = d.pausedTypes[:0]
			for _, t := range hidTypes {
				if d.monitor.Enabled(t) {
					d.pausedTypes = append(d.pausedTypes, t)
					if err := d.monitor.Disable(t); err != nil {
						d.logger.Warn("pause on lock failed", "hid_type", t.String(), "error", err)
					}
				}
			}
			d.logger.Info("monitoring paused: session locked")
			return nil
		}
		for _, t := range d.pausedTypes {
			if err := d.monitor.Enable(t); err != nil {
				d.logger.Warn("resume after unlock failed", "hid_type", t.String(), "error", err)
			}
		}
		d.pausedTypes = d.pausedTypes[:0]
		d.logger.Info("monitoring resumed: session unlocked")
		return nil
	})
	if err != nil {
		d.logger.Warn("lock transition not applied", "error", err)
	}
}

// flushLoop periodically persists the in-memory counters.
func (d *daemon) flushLoop(ctx context.Context) {
	interval := time.Duration(d.cfg.Storage.FlushIntervalSec) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.flushCounts()
		}
	}
}

func (d *daemon) flushCounts() {
	for _, t := range hidTypes {
		count := d.counters[t].Load()
		if count == 0 {
			continue
		}
		if err := d.db.RecordCount(d.session, t.String(), count); err != nil {
			d.logger.Warn("flush counts failed", "hid_type", t.String(), "error", err)
		}
	}
}
