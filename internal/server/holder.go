package server

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/genregraph/pkg/shell"
)

// ShellFactory creates an unloaded shell. Each call must return a new shell
// so that every reload starts a new document generation.
type ShellFactory func() *shell.Shell

// Holder owns the shell currently being served and swaps it on reload.
type Holder struct {
	factory ShellFactory
	logger  *log.Logger

	mu      sync.RWMutex
	current *shell.Shell
	reload  sync.Mutex
}

// NewHolder creates a holder. Call [Holder.Reload] once before serving.
func NewHolder(factory ShellFactory, logger *log.Logger) *Holder {
	if logger == nil {
		logger = log.Default()
	}
	return &Holder{factory: factory, logger: logger}
}

// Current returns the shell being served. It is nil before the first
// [Holder.Reload].
func (h *Holder) Current() *shell.Shell {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload loads a fresh shell and swaps it in. A failed reload keeps the
// current shell if that one loaded successfully; otherwise the failed shell
// is served so its load error is reported.
func (h *Holder) Reload(ctx context.Context) error {
	h.reload.Lock()
	defer h.reload.Unlock()

	next := h.factory()
	err := next.Load(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil && h.current != nil && h.current.LoadError() == nil {
		h.logger.Warn("reload failed, keeping previous dataset", "generation", h.current.Generation(), "err", err)
		return err
	}
	h.current = next
	if err == nil {
		h.logger.Info("serving dataset", "generation", next.Generation(), "nodes", len(next.Dataset().Nodes))
	}
	return err
}
