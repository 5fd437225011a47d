//go:build linux

package hidmon

import "testing"

// === Device glob filtering ===

func TestFilterDevicesEmptyGlobsKeepsAll(t *testing.T) {
	devices := []string{"/dev/input/event0", "/dev/input/event3"}
	kept := filterDevices(devices, nil)
	if len(kept) != 2 {
		t.Fatalf("got %d devices, want 2", len(kept))
	}
}

func TestFilterDevicesMatchesPathAndName(t *testing.T) {
	devices := []string{"/dev/input/event0", "/dev/input/event3", "/dev/input/event12"}

	kept := filterDevices(devices, []string{"/dev/input/event3"})
	if len(kept) != 1 || kept[0] != "/dev/input/event3" {
		t.Fatalf("full-path glob kept %v", kept)
	}

	kept = filterDevices(devices, []string{"event1*"})
	if len(kept) != 1 || kept[0] != "/dev/input/event12" {
		t.Fatalf("name glob kept %v", kept)
	}

	kept = filterDevices(devices, []string{"event0", "event3"})
	if len(kept) != 2 {
		t.Fatalf("multiple globs kept %v", kept)
	}
}

func TestFilterDevicesNoMatchKeepsNothing(t *testing.T) {
	devices := []string{"/dev/input/event0"}
	if kept := filterDevices(devices, []string{"mouse*"}); len(kept) != 0 {
		t.Fatalf("got %v, want none", kept)
	}
}
