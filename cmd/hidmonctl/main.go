// hidmonctl - control client for a running hidmond daemon
//
//	hidmonctl status              Show daemon status
//	hidmonctl watch               Poll and show status continuously
//	hidmonctl enable <type>       Enable monitoring for keyboard or mouse
//	hidmonctl disable <type>      Disable monitoring for keyboard or mouse
//	hidmonctl shutdown            Ask the daemon to exit
//
// Talks newline-delimited JSON to the daemon's unix control socket.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/koenigbs18/hidmon/internal/config"
	"github.com/koenigbs18/hidmon/internal/ipc"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "status":
		cmdStatus(os.Args[2:])
	case "watch":
		cmdWatch(os.Args[2:])
	case "enable":
		cmdHook(ipc.OpEnable, os.Args[2:])
	case "disable":
		cmdHook(ipc.OpDisable, os.Args[2:])
	case "shutdown":
		cmdShutdown(os.Args[2:])
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`hidmonctl - control a running hidmond daemon

USAGE:
    hidmonctl <command> [options]

COMMANDS:
    status              Show daemon status
    watch               Poll and show status until interrupted
    enable <type>       Enable monitoring for keyboard or mouse
    disable <type>      Disable monitoring for keyboard or mouse
    shutdown            Ask the daemon to exit
    help                Show this help message

OPTIONS:
    --socket <path>     Control socket path (default from config)
    --format <fmt>      Output format for status: text, json, yaml
    --interval <dur>    Poll interval for watch (default 2s)`)
}

// socketFlag resolves the control socket path, preferring an explicit
// --socket over the config file.
func socketFlag(fs *flag.FlagSet) *string {
	return fs.String("socket", "", "control socket path")
}

func resolveSocket(explicit string) string {
	if explicit != "" {
		return explicit
	}
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return config.Default().IPC.Socket
	}
	return cfg.IPC.Socket
}

func cmdStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	socket := socketFlag(fs)
	format := fs.String("format", "text", "output format: text, json, yaml")
	fs.Parse(args)

	client := ipc.NewClient(resolveSocket(*socket))
	st, err := client.Status()
	if err != nil {
		fatal(err)
	}
	if err := renderStatus(os.Stdout, *format, st); err != nil {
		fatal(err)
	}
}

func cmdWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	socket := socketFlag(fs)
	format := fs.String("format", "text", "output format: text, json, yaml")
	interval := fs.Duration("interval", 2*time.Second, "poll interval")
	fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := ipc.NewClient(resolveSocket(*socket))
	if err := watchStatus(ctx, client, *format, *interval, os.Stdout); err != nil {
		fatal(err)
	}
}

// watchStatus polls the daemon and renders each snapshot until ctx is done
// or a poll fails.
func watchStatus(ctx context.Context, client *ipc.Client, format string, interval time.Duration, w io.Writer) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		st, err := client.Status()
		if err != nil {
			return err
		}
		if err := renderStatus(w, format, st); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func renderStatus(w io.Writer, format string, st *ipc.Status) error {
	switch format {
	case "text":
		printStatus(w, st)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(st); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want text, json, or yaml)", format)
	}
}

func printStatus(w io.Writer, st *ipc.Status) {
	fmt.Fprintf(w, "hidmond %s  pid=%d  session=%d\n", st.Version, st.PID, st.SessionID)
	fmt.Fprintf(w, "started: %s\n", st.StartedAt.Format("2006-01-02 15:04:05"))
	for _, h := range st.Hooks {
		state := "disabled"
		if h.Enabled {
			state = "enabled"
		}
		fmt.Fprintf(w, "    %-10s %-9s %d events\n", h.HidType, state, h.Events)
	}
}

func cmdHook(op string, args []string) {
	fs := flag.NewFlagSet(op, flag.ExitOnError)
	socket := socketFlag(fs)
	fs.Parse(args)

	if fs.NArg() != 1 {
		fatal(fmt.Errorf("%s needs a device type: keyboard or mouse", op))
	}

	client := ipc.NewClient(resolveSocket(*socket))
	resp, err := client.Do(ipc.Request{Op: op, HidType: fs.Arg(0)})
	if err != nil {
		fatal(err)
	}
	if !resp.OK {
		fatal(fmt.Errorf("daemon error: %s", resp.Error))
	}
	fmt.Printf("%s %s: ok\n", op, fs.Arg(0))
}

func cmdShutdown(args []string) {
	fs := flag.NewFlagSet("shutdown", flag.ExitOnError)
	socket := socketFlag(fs)
	fs.Parse(args)

	client := ipc.NewClient(resolveSocket(*socket))
	resp, err := client.Do(ipc.Request{Op: ipc.OpShutdown})
	if err != nil {
		fatal(err)
	}
	if !resp.OK {
		fatal(fmt.Errorf("daemon error: %s", resp.Error))
	}
	fmt.Println("shutdown requested")
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "hidmonctl: %v\n", err)
	os.Exit(1)
}
