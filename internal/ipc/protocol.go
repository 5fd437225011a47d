// Package ipc provides inter-process communication between the hidmond
// daemon and client tools (hidmonctl, scripts).
//
// The protocol is newline-delimited JSON over a unix domain socket: one
// Request per line in, one Response per line out. Unix sockets are used on
// every platform; Windows 10+ supports AF_UNIX natively.
package ipc

import "time"

// Request operations.
const (
	// OpStatus asks for the daemon status snapshot.
	OpStatus = "status"
	// OpEnable enables monitoring for one device type.
	OpEnable = "enable"
	// OpDisable disables monitoring for one device type.
	OpDisable = "disable"
	// OpShutdown asks the daemon to exit cleanly.
	OpShutdown = "shutdown"
)

// Request is a single client command.
type Request struct {
	Op string `json:"op"`

	// HidType is the device type for enable/disable ("keyboard", "mouse").
	HidType string `json:"hid_type,omitempty"`
}

// Response is the daemon's reply to one Request.
type Response struct {
	OK     bool    `json:"ok"`
	Error  string  `json:"error,omitempty"`
	Status *Status `json:"status,omitempty"`
}

// Status is a snapshot of the running daemon.
type Status struct {
	PID       int          `json:"pid" yaml:"pid"`
	Version   string       `json:"version" yaml:"version"`
	StartedAt time.Time    `json:"started_at" yaml:"started_at"`
	SessionID int64        `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Hooks     []HookStatus `json:"hooks" yaml:"hooks"`
}

// HookStatus describes one device type's hook.
type HookStatus struct {
	HidType string `json:"hid_type" yaml:"hid_type"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Events  uint64 `json:"events" yaml:"events"`
}

// Errorf builds a failed Response.
func Errorf(msg string) Response {
	return Response{OK: false, Error: msg}
}

// OKResponse builds a successful Response with no payload.
func OKResponse() Response {
	return Response{OK: true}
}
