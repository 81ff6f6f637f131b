package mcp

import (
	"context"
	"os"
	"time"

	"automaton/internal/logging"
)

// WatchParent polls for parent process death in a background goroutine
// and calls cancelFn when the parent PID changes. Editors that spawn
// stdio MCP servers do not always reap them; this keeps orphaned
// servers from accumulating.
//
// It must NOT read from stdin — the SDK's StdioTransport owns stdin
// exclusively, and stealing bytes there corrupts the JSON-RPC stream.
func WatchParent(ctx context.Context, interval time.Duration, cancelFn context.CancelFunc) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ppid := os.Getppid()
	log := logging.New("mcp")
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(interval):
				if os.Getppid() != ppid {
					log.Warn("parent process died, shutting down", "was_pid", ppid)
					cancelFn()
					return
				}
			}
		}
	}()
}
