// Package singleinstance keeps one overlay per user session. A second launch
// finds the resident over loopback TCP and asks it to show itself.
package singleinstance

import (
	"context"
	"log"
)

// Commands a client can send after the PING handshake.
const (
	CommandShow = "SHOW"
)

// Server owns the TCP endpoint and answers delegated requests.
type Server interface {
	// Start listens on the first port of the configured range. An occupied port
	// means another instance owns it.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted request, or ctx error.
	Next(ctx context.Context) (Conn, error)
	Close() error
}

// Conn is one client connection.
type Conn interface {
	Request() Request
	RespondSuccess() error
	RespondError(msg string) error
	Close() error
}

type Request struct {
	Command string
}

// Client delegates to a resident instance.
type Client interface {
	// Delegate scans the port range for a resident and sends command. With no
	// resident it returns delegated=false and a nil error.
	Delegate(ctx context.Context, command string) (delegated bool, err error)
}

func NewServer() Server { return newTcpServer() }

func NewClient() Client { return newTcpClient() }

// Serve answers requests until ctx ends. SHOW runs onShow.
func Serve(ctx context.Context, srv Server, onShow func()) {
	for {
		conn, err := srv.Next(ctx)
		if err != nil {
			return
		}
		switch conn.Request().Command {
		case CommandShow:
			log.Printf("singleinstance: second launch, showing overlay")
			if onShow != nil {
				onShow()
			}
			_ = conn.RespondSuccess()
		default:
			_ = conn.RespondError("unknown command")
		}
		_ = conn.Close()
	}
}
