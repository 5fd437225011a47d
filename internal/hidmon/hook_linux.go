//go:build linux

package hidmon

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Event delivery on Linux reads evdev nodes directly: there is no hook
// chain to defer to, so "forward to next" is implicit and the trampoline
// contract reduces to fanning the event out. Each installed hook owns one
// reader goroutine per matching /dev/input/event* device; readers feed the
// same dispatch path the Windows hook procedures use.
//
// Event mapping: code carries the evdev event type (EV_KEY, EV_REL, ...),
// wparam the event code, lparam the event value. Reading /dev/input
// requires membership in the 'input' group or root.

const readerPollInterval = 250 * time.Millisecond

// kernelInputEvent mirrors the kernel's struct input_event as read from
// /dev/input/event* nodes. x/sys/unix does not define it; unix.Timeval
// supplies the arch-correct time fields.
type kernelInputEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

type linuxInstaller struct {
	// globs, when non-empty, restricts which device nodes are opened.
	// A pattern matches either the full /dev/input path or the bare
	// node name ("event3").
	globs []string
}

func newPlatformInstaller(deviceGlobs []string) Installer {
	return &linuxInstaller{globs: deviceGlobs}
}

// linuxHook is the HookToken for one set of running device readers.
type linuxHook struct {
	hid  HidType
	stop chan struct{}
	done sync.WaitGroup
}

func (li *linuxInstaller) Install(t HidType) (HookToken, error) {
	if err := claimHook(t); err != nil {
		return nil, err
	}

	devices, err := findInputDevices(t)
	if err != nil {
		releaseHook(t)
		return nil, fmt.Errorf("enumerate %s devices: %w", t, err)
	}
	devices = filterDevices(devices, li.globs)

	hook := &linuxHook{hid: t, stop: make(chan struct{})}
	opened := 0
	for _, dev := range devices {
		f, err := os.OpenFile(dev, os.O_RDONLY, 0)
		if err != nil {
			slog.Debug("skipping unreadable input device", "device", dev, "error", err)
			continue
		}
		opened++
		hook.done.Add(1)
		go readDevice(hook, t, f)
	}

	if opened == 0 {
		releaseHook(t)
		if len(devices) == 0 {
			return nil, fmt.Errorf("no %s devices found", t)
		}
		return nil, fmt.Errorf("no readable %s devices (need 'input' group or root)", t)
	}

	return hook, nil
}

func (li *linuxInstaller) Uninstall(tok HookToken) error {
	hook, ok := tok.(*linuxHook)
	if !ok {
		panic(fmt.Sprintf("hidmon: foreign hook token %T", tok))
	}
	close(hook.stop)
	hook.done.Wait()
	releaseHook(hook.hid)
	return nil
}

// readDevice reads raw input_event records from one device node and feeds
// them to the trampoline dispatch. Read deadlines bound how long a stop
// request can go unnoticed.
func readDevice(hook *linuxHook, t HidType, f *os.File) {
	defer hook.done.Done()
	defer f.Close()

	const eventSize = int(unsafe.Sizeof(kernelInputEvent{}))
	buf := make([]byte, eventSize)

	for {
		select {
		case <-hook.stop:
			return
		default:
		}

		f.SetReadDeadline(time.Now().Add(readerPollInterval))
		n, err := f.Read(buf)
		if err != nil {
			if os.IsTimeout(err) {
				continue
			}
			slog.Warn("input device read failed", "device", f.Name(), "error", err)
			return
		}
		if n < eventSize {
			continue
		}

		ev := *(*kernelInputEvent)(unsafe.Pointer(&buf[0]))
		switch ev.Type {
		case unix.EV_KEY, unix.EV_REL, unix.EV_ABS:
			dispatch(t, int32(ev.Type), uintptr(ev.Code), uintptr(uint32(ev.Value)))
		default:
			// EV_SYN and friends carry no device payload.
		}
	}
}

// filterDevices keeps the device paths matching at least one glob. An
// empty glob list keeps everything.
func filterDevices(devices, globs []string) []string {
	if len(globs) == 0 {
		return devices
	}
	var kept []string
	for _, dev := range devices {
		for _, g := range globs {
			full, _ := filepath.Match(g, dev)
			base, _ := filepath.Match(g, filepath.Base(dev))
			if full || base {
				kept = append(kept, dev)
				break
			}
		}
	}
	return kept
}

// findInputDevices returns the /dev/input/event* nodes for t, classified
// from the handler lists in /proc/bus/input/devices.
func findInputDevices(t HidType) ([]string, error) {
	f, err := os.Open("/proc/bus/input/devices")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	want := "kbd"
	if t == Mouse {
		want = "mouse"
	}

	var devices []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "H: Handlers=") {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(line, "H: Handlers="))
		matches := false
		event := ""
		for _, h := range fields {
			if strings.HasPrefix(h, want) {
				matches = true
			}
			if strings.HasPrefix(h, "event") {
				event = "/dev/input/" + h
			}
		}
		if matches && event != "" {
			devices = append(devices, event)
		}
	}
	return devices, scanner.Err()
}
