package sdk

import (
	"log/slog"

	"github.com/celerix-dev/celerix-extract/internal/engine"
	"github.com/celerix-dev/celerix-extract/internal/layout"
)

// Options selects between the remote daemon and embedded mode.
type Options struct {
	Addr       string // daemon HTTP address; empty selects embedded mode
	TCPAddr    string // optional daemon TCP address used for CPF checks
	DisableTLS bool   // plain TCP for TCPAddr
	Layout     layout.Layout
	CPF        engine.CPFOptions
}

// New initializes an Extractor based on opts.
// It returns the Interface, so the caller doesn't care if it's local or remote.
func New(opts Options) Extractor {
	// 1. Prefer the daemon when one is configured and answering
	if opts.Addr != "" {
		client, err := Connect(opts.Addr)
		if err == nil {
			if opts.TCPAddr != "" {
				lc, err := DialLine(opts.TCPAddr, !opts.DisableTLS)
				if err != nil {
					slog.Warn("tcp validation unavailable, using http", "addr", opts.TCPAddr, "error", err)
				} else {
					client.UseLine(lc)
				}
			}
			return client
		}
		slog.Warn("daemon unreachable, running embedded", "addr", opts.Addr, "error", err)
	}

	// 2. Fallback to Embedded Mode
	// This uses the same engine the daemon uses, but inside the caller's process.
	return NewLocal(opts.Layout, opts.CPF)
}
