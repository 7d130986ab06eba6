// Package flamapy runs feature-model analyses with the flamapy Python
// library. Each session owns a worker process that loads one model; the two
// sides talk JSON-RPC 2.0 over the worker's stdio, one message per line.
package flamapy

import (
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/lbdudc/mcp-fm-analyzer/internal/engine"
	"github.com/lbdudc/mcp-fm-analyzer/internal/logger"
)

type Engine struct {
	cfg     Config
	circuit *CircuitBreaker
	log     *slog.Logger
}

var _ engine.Engine = (*Engine)(nil)

func New(cfg Config, log *slog.Logger) *Engine {
	if log == nil {
		log = logger.ForComponent("flamapy")
	}
	return &Engine{
		cfg:     cfg,
		circuit: NewCircuitBreaker(cfg.Circuit),
		log:     log,
	}
}

func (e *Engine) NewSession(content string) engine.Session {
	return &Session{
		engine:  e,
		content: content,
		log:     e.log,
	}
}

// CheckInstalled reports whether the configured interpreter can be found.
// It does not check that flamapy is importable; the first session does.
func (e *Engine) CheckInstalled() error {
	if _, err := exec.LookPath(e.cfg.Python); err != nil {
		return fmt.Errorf("%w: %s", ErrPythonNotFound, e.cfg.Python)
	}
	return nil
}

func (e *Engine) CircuitState() CircuitState {
	return e.circuit.State()
}
