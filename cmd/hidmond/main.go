// hidmond - system-wide HID event monitoring daemon
//
//	hidmond run         Run the monitoring daemon
//	hidmond sessions    Show recent monitoring sessions
//	hidmond version     Show version
//
// The daemon installs low-level keyboard/mouse hooks, counts events (never
// their content), and serves live status over a control socket. Use
// hidmonctl to talk to a running daemon.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/koenigbs18/hidmon/internal/config"
	"github.com/koenigbs18/hidmon/internal/store"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		cmdRun(os.Args[2:])
	case "sessions":
		cmdSessions(os.Args[2:])
	case "version":
		fmt.Println("hidmond", version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`hidmond - system-wide HID event monitoring

USAGE:
    hidmond <command> [options]

COMMANDS:
    run         Run the monitoring daemon
    sessions    Show recent monitoring sessions
    version     Show version
    help        Show this help message

PRIVACY NOTE:
    hidmond counts keyboard and mouse events - it does NOT capture which
    keys are pressed or where the pointer moved. This is NOT a keylogger.
    Only event counts per session are recorded.`)
}

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", config.DefaultPath(), "config file path")
	fs.Parse(args)

	if err := runDaemon(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "hidmond: %v\n", err)
		os.Exit(1)
	}
}

func cmdSessions(args []string) {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	configPath := fs.String("config", config.DefaultPath(), "config file path")
	limit := fs.Int("n", 10, "number of sessions to show")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hidmond: %v\n", err)
		os.Exit(1)
	}

	s, err := store.Open(cfg.Storage.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hidmond: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	sessions, err := s.RecentSessions(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hidmond: %v\n", err)
		os.Exit(1)
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions recorded.")
		return
	}

	for _, sess := range sessions {
		started := time.Unix(0, sess.StartedNs).Format(time.RFC3339)
		end := "running"
		if sess.EndedNs != nil {
			end = time.Unix(0, *sess.EndedNs).Format(time.RFC3339)
		}
		fmt.Printf("session %d  %s .. %s  host=%s\n", sess.ID, started, end, sess.Hostname)
		for hidType, count := range sess.Counts {
			fmt.Printf("    %-10s %d events\n", hidType, count)
		}
	}
}
