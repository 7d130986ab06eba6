package flamapy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/lbdudc/mcp-fm-analyzer/internal/engine"
	"github.com/lbdudc/mcp-fm-analyzer/internal/logger"
)

// Session is one flamapy worker bound to one model.
type Session struct {
	engine  *Engine
	content string
	log     *slog.Logger

	mu        sync.Mutex
	workspace *workspace
	proc      *process
	info      WorkerInfo
	closed    bool
}

var _ engine.Session = (*Session)(nil)

func (s *Session) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrAlreadyClosed
	}
	if s.proc != nil {
		return nil
	}

	if s.workspace == nil {
		ws, err := newWorkspace(s.engine.cfg.WorkDir, s.content)
		if err != nil {
			return err
		}
		s.workspace = ws
	}

	driverPath := s.engine.cfg.Driver
	if driverPath == "" {
		var err error
		if driverPath, err = s.workspace.writeDriver(); err != nil {
			return err
		}
	}

	// Staging above never touches the circuit; from here on every path
	// reports its outcome.
	if !s.engine.circuit.Allow() {
		return fmt.Errorf("%w: too many recent worker failures", ErrEngineUnavailable)
	}

	proc, err := startProcess(s.engine.cfg, s.workspace.dir, driverPath, s.log)
	if err != nil {
		s.engine.circuit.RecordFailure()
		return err
	}
	s.proc = proc

	initCtx := ctx
	if timeout := s.engine.cfg.InitTimeout; timeout > 0 {
		var cancel context.CancelFunc
		initCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	info, err := proc.client.initialize(initCtx, s.workspace.modelPath)
	if err != nil {
		var engineErr *EngineError
		switch {
		case errors.As(err, &engineErr):
			s.engine.circuit.RecordSuccess()
		case ctx.Err() != nil:
			s.engine.circuit.Release()
		default:
			s.engine.circuit.RecordFailure()
		}
		return proc.diagnose(err)
	}

	s.engine.circuit.RecordSuccess()
	s.info = info
	logger.FromContext(ctx).Debug("model loaded", "engine", info.Engine, "version", info.Version)
	return nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.proc != nil {
		errs = append(errs, s.proc.stop(s.engine.cfg.ShutdownTimeout))
	}
	if s.workspace != nil {
		errs = append(errs, s.workspace.remove())
	}
	return errors.Join(errs...)
}

// Info reports the engine the worker loaded; zero before Initialize.
func (s *Session) Info() WorkerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

func (s *Session) invoke(ctx context.Context, method string, argument *string, result interface{}) error {
	s.mu.Lock()
	proc, closed := s.proc, s.closed
	s.mu.Unlock()

	if closed {
		return ErrAlreadyClosed
	}
	if proc == nil {
		return ErrNotInitialized
	}

	log, ctx := logger.WithContext(ctx, "engine_method", method)
	log.Debug("invoking engine")
	return proc.diagnose(proc.client.operation(ctx, method, argument, result))
}

func (s *Session) features(ctx context.Context, method string, argument *string) ([]string, error) {
	var out []string
	if err := s.invoke(ctx, method, argument, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) configurations(ctx context.Context, method string, argument *string) ([]engine.Configuration, error) {
	var out []engine.Configuration
	if err := s.invoke(ctx, method, argument, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) number(ctx context.Context, method string, argument *string) (float64, error) {
	var out workerNumber
	if err := s.invoke(ctx, method, argument, &out); err != nil {
		return 0, err
	}
	return float64(out), nil
}

func (s *Session) count(ctx context.Context, method string) (int, error) {
	n, err := s.number(ctx, method, nil)
	if err != nil {
		return 0, err
	}
	if math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, fmt.Errorf("%s returned %v, not a count", method, n)
	}
	return int(math.Round(n)), nil
}

func (s *Session) AtomicSets(ctx context.Context) ([][]string, error) {
	var out [][]string
	if err := s.invoke(ctx, "atomic_sets", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) AverageBranchingFactor(ctx context.Context) (float64, error) {
	return s.number(ctx, "average_branching_factor", nil)
}

func (s *Session) Commonality(ctx context.Context, configFile string) (float64, error) {
	return s.number(ctx, "commonality", &configFile)
}

func (s *Session) Configurations(ctx context.Context) ([]engine.Configuration, error) {
	return s.configurations(ctx, "configurations", nil)
}

func (s *Session) ConfigurationsNumber(ctx context.Context) (float64, error) {
	return s.number(ctx, "configurations_number", nil)
}

func (s *Session) CoreFeatures(ctx context.Context) ([]string, error) {
	return s.features(ctx, "core_features", nil)
}

func (s *Session) CountLeafs(ctx context.Context) (int, error) {
	return s.count(ctx, "count_leafs")
}

func (s *Session) DeadFeatures(ctx context.Context) ([]string, error) {
	return s.features(ctx, "dead_features", nil)
}

func (s *Session) EstimatedNumberOfConfigurations(ctx context.Context) (float64, error) {
	return s.number(ctx, "estimated_number_of_configurations", nil)
}

func (s *Session) FalseOptionalFeatures(ctx context.Context) ([]string, error) {
	return s.features(ctx, "false_optional_features", nil)
}

func (s *Session) FeatureAncestors(ctx context.Context, configFile string) ([]string, error) {
	return s.features(ctx, "feature_ancestors", &configFile)
}

func (s *Session) Filter(ctx context.Context, configFile string) ([]engine.Configuration, error) {
	return s.configurations(ctx, "filter", &configFile)
}

func (s *Session) LeafFeatures(ctx context.Context) ([]string, error) {
	return s.features(ctx, "leaf_features", nil)
}

func (s *Session) MaxDepth(ctx context.Context) (int, error) {
	return s.count(ctx, "max_depth")
}

func (s *Session) Satisfiable(ctx context.Context) (bool, error) {
	var out bool
	if err := s.invoke(ctx, "satisfiable", nil, &out); err != nil {
		return false, err
	}
	return out, nil
}
