// Package shutdown sequences the teardown of the dispatch service: the HTTP
// listener drains before the stores it depends on are closed.
package shutdown

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"
)

// Teardown order, highest first. The HTTP server must stop accepting
// dispatch requests before the database and credential cache go away
// underneath the handlers.
const (
	PriorityHTTPServer = 90
	PriorityDatabase   = 70
	PriorityCache      = 60
)

// HookFunc tears down one component. The context carries the per-hook
// deadline.
type HookFunc func(ctx context.Context) error

// Hook is a named teardown step.
type Hook struct {
	Name     string
	Priority int
	Fn       HookFunc
}

// Config bounds how long teardown may take.
type Config struct {
	// Timeout caps the whole teardown sequence.
	Timeout time.Duration

	// HookTimeout caps each individual hook.
	HookTimeout time.Duration

	// DrainTimeout is how long the HTTP server may wait for in-flight
	// dispatch requests.
	DrainTimeout time.Duration
}

// DefaultConfig returns the standard teardown budget.
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		HookTimeout:  10 * time.Second,
		DrainTimeout: 10 * time.Second,
	}
}

func (c *Config) normalize() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.HookTimeout <= 0 {
		c.HookTimeout = 10 * time.Second
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = 10 * time.Second
	}
}

// Manager runs registered hooks once, in priority order, when shutdown is
// triggered by a signal or an explicit call.
type Manager struct {
	cfg    Config
	logger *slog.Logger

	mu    sync.Mutex
	hooks []Hook

	once sync.Once
	done chan struct{}

	errMu sync.Mutex
	errs  []error
}

// NewManager creates a shutdown manager.
func NewManager(cfg Config, logger *slog.Logger) *Manager {
	cfg.normalize()
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:    cfg,
		logger: logger.With("component", "shutdown"),
		done:   make(chan struct{}),
	}
}

// Register adds a teardown step. Higher priorities run first; equal
// priorities run concurrently.
func (m *Manager) Register(name string, priority int, fn HookFunc) {
	m.RegisterHook(Hook{Name: name, Priority: priority, Fn: fn})
}

// RegisterHook adds a prepared Hook.
func (m *Manager) RegisterHook(h Hook) {
	m.mu.Lock()
	m.hooks = append(m.hooks, h)
	m.mu.Unlock()
}

// HookCount reports how many hooks are registered.
func (m *Manager) HookCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hooks)
}

// ListenForSignals triggers Shutdown on SIGTERM, SIGINT or SIGQUIT. The
// returned channel closes once teardown has finished.
func (m *Manager) ListenForSignals() <-chan struct{} {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	go func() {
		select {
		case sig := <-sigCh:
			m.logger.Info("shutdown signal received", "signal", sig.String())
			signal.Stop(sigCh)
			m.Shutdown()
		case <-m.done:
			signal.Stop(sigCh)
		}
	}()

	return m.done
}

// Shutdown runs all hooks. Safe to call from multiple goroutines; only the
// first call does the work, the rest return once it completes.
func (m *Manager) Shutdown() {
	m.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Timeout)
		defer cancel()

		m.mu.Lock()
		hooks := make([]Hook, len(m.hooks))
		copy(hooks, m.hooks)
		m.mu.Unlock()

		m.logger.Info("shutting down", "hooks", len(hooks), "timeout", m.cfg.Timeout)
		m.run(ctx, hooks)
		m.logger.Info("shutdown complete", "errors", len(m.Errors()))

		close(m.done)
	})
	<-m.done
}

// Done closes when teardown has finished.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Errors returns the hook failures collected during teardown.
func (m *Manager) Errors() []error {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	out := make([]error, len(m.errs))
	copy(out, m.errs)
	return out
}

func (m *Manager) run(ctx context.Context, hooks []Hook) {
	sort.SliceStable(hooks, func(i, j int) bool {
		return hooks[i].Priority > hooks[j].Priority
	})

	for start := 0; start < len(hooks); {
		end := start + 1
		for end < len(hooks) && hooks[end].Priority == hooks[start].Priority {
			end++
		}

		var wg sync.WaitGroup
		for _, h := range hooks[start:end] {
			wg.Add(1)
			go func(h Hook) {
				defer wg.Done()
				m.runHook(ctx, h)
			}(h)
		}
		wg.Wait()

		if ctx.Err() != nil {
			m.record(fmt.Errorf("shutdown deadline exceeded, %d hook(s) skipped", len(hooks)-end))
			m.logger.Warn("shutdown deadline exceeded", "skipped", len(hooks)-end)
			return
		}
		start = end
	}
}

func (m *Manager) runHook(ctx context.Context, h Hook) {
	hookCtx, cancel := context.WithTimeout(ctx, m.cfg.HookTimeout)
	defer cancel()

	start := time.Now()
	result := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("panic: %v", r)
			}
		}()
		result <- h.Fn(hookCtx)
	}()

	var err error
	select {
	case err = <-result:
	case <-hookCtx.Done():
		err = fmt.Errorf("timed out after %v", m.cfg.HookTimeout)
	}

	if err != nil {
		m.record(fmt.Errorf("hook %s: %w", h.Name, err))
		m.logger.Error("shutdown hook failed", "hook", h.Name, "error", err)
		return
	}
	m.logger.Info("shutdown hook done", "hook", h.Name, "duration", time.Since(start))
}

func (m *Manager) record(err error) {
	m.errMu.Lock()
	m.errs = append(m.errs, err)
	m.errMu.Unlock()
}
