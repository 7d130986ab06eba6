package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lbdudc/mcp-fm-analyzer/internal/engine"
	"github.com/lbdudc/mcp-fm-analyzer/internal/logger"
	"github.com/lbdudc/mcp-fm-analyzer/pkg/protocol"
)

// Dispatcher runs tool calls against an engine. Each call gets its own engine
// session, closed before Call returns.
type Dispatcher struct {
	registry *Registry
	engine   engine.Engine
	log      *slog.Logger
	requests atomic.Uint64
}

func NewDispatcher(registry *Registry, eng engine.Engine, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = logger.ForComponent("tools")
	}
	return &Dispatcher{
		registry: registry,
		engine:   eng,
		log:      log,
	}
}

func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Call validates args for the named tool, runs it and formats the result as
// a single text block. Failures are *UnknownOperationError,
// *InvalidInputError or *ProcessingError.
func (d *Dispatcher) Call(ctx context.Context, name string, args json.RawMessage) (*protocol.CallToolResult, error) {
	op, ok := d.registry.Get(name)
	if !ok {
		return nil, &UnknownOperationError{Name: name}
	}

	req, err := op.Shape.Validate(args)
	if err != nil {
		return nil, &InvalidInputError{Err: err}
	}

	log := d.log.With("tool", name, "request_id", d.requests.Add(1))
	ctx = logger.ToContext(ctx, log)
	start := time.Now()

	session := d.engine.NewSession(req.Content)
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("failed to close engine session", "error", err)
		}
	}()

	if err := session.Initialize(ctx); err != nil {
		log.Debug("model rejected", "error", err)
		return nil, &ProcessingError{Err: err}
	}

	result, err := op.Invoke(ctx, session, req)
	if err != nil {
		log.Debug("operation failed", "error", err)
		return nil, &ProcessingError{Err: err}
	}

	text, err := op.Format(result)
	if err != nil {
		return nil, fmt.Errorf("format %s result: %w", name, err)
	}

	log.Debug("tool call completed", "duration", time.Since(start))
	return protocol.TextResult(text), nil
}
