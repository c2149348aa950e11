// Package signal provides signal handling utilities for the CLI application.
package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// InterruptHandler manages Ctrl+C (SIGINT) with a double-press exit pattern.
// The first press fires the FirstPress channel without cancelling the context;
// a second press within the timeout cancels the context. When the timeout
// elapses without a second press the counter resets.
type InterruptHandler struct {
	timeout      time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
	firstPressCh chan struct{}

	mu        sync.Mutex
	lastPress time.Time
	armed     bool
	running   bool
	sigCh     chan os.Signal
	stopCh    chan struct{}
}

// NewInterruptHandler creates a handler with the given double-press window.
func NewInterruptHandler(timeout time.Duration) *InterruptHandler {
	ctx, cancel := context.WithCancel(context.Background())
	return &InterruptHandler{
		timeout:      timeout,
		ctx:          ctx,
		cancel:       cancel,
		firstPressCh: make(chan struct{}, 1),
	}
}

// Start begins listening for SIGINT and SIGTERM. Call once.
func (h *InterruptHandler) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return
	}
	h.running = true
	h.sigCh = make(chan os.Signal, 1)
	h.stopCh = make(chan struct{})

	signal.Notify(h.sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		for {
			select {
			case <-h.stopCh:
				return
			case <-h.sigCh:
				h.handleInterrupt()
			}
		}
	}()
}

// handleInterrupt applies the double-press logic for one received signal.
func (h *InterruptHandler) handleInterrupt() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return
	}

	now := time.Now()
	if h.armed && now.Sub(h.lastPress) < h.timeout {
		h.armed = false
		h.cancel()
		return
	}

	h.armed = true
	h.lastPress = now

	// Non-blocking: a previous unconsumed press is fine
	select {
	case h.firstPressCh <- struct{}{}:
	default:
	}
}

// Stop stops listening for signals. Safe to call more than once.
func (h *InterruptHandler) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return
	}
	h.running = false

	signal.Stop(h.sigCh)
	close(h.stopCh)
	h.sigCh = nil
	h.stopCh = nil
}

// Context is cancelled when the user confirms exit with a second Ctrl+C.
func (h *InterruptHandler) Context() context.Context {
	return h.ctx
}

// FirstPress receives a signal on the first Ctrl+C, so the caller can print
// a "press again to exit" hint.
func (h *InterruptHandler) FirstPress() <-chan struct{} {
	return h.firstPressCh
}

// SimulateInterrupt injects an interrupt for tests.
func (h *InterruptHandler) SimulateInterrupt() {
	h.handleInterrupt()
}
