package tools

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/lbdudc/mcp-fm-analyzer/internal/engine"
)

// fakeEngine understands one model, a single feature named after its first
// non-keyword word. Anything without a "features" header fails to load.
type fakeEngine struct {
	mu       sync.Mutex
	sessions []*fakeSession

	// overrides replace the canned result of one method.
	overrides map[string]interface{}
}

func (e *fakeEngine) NewSession(content string) engine.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := &fakeSession{content: content, overrides: e.overrides}
	e.sessions = append(e.sessions, s)
	return s
}

func (e *fakeEngine) sessionCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

func (e *fakeEngine) allClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.sessions {
		if !s.closed {
			return false
		}
	}
	return true
}

type fakeSession struct {
	content     string
	overrides   map[string]interface{}
	initialized bool
	closed      bool
	calls       []string
	configFiles []string
}

var errNoConfig = errors.New("[Errno 2] No such file or directory")

func (s *fakeSession) Initialize(ctx context.Context) error {
	if !strings.HasPrefix(strings.TrimSpace(s.content), "features") {
		return errors.New("line 1:0 mismatched input")
	}
	s.initialized = true
	return nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

func (s *fakeSession) root() string {
	fields := strings.Fields(s.content)
	if len(fields) < 2 {
		return "Root"
	}
	return fields[1]
}

func result[T any](s *fakeSession, method string, def T) (T, error) {
	s.calls = append(s.calls, method)
	if !s.initialized {
		var zero T
		return zero, errors.New("not initialized")
	}
	if v, ok := s.overrides[method]; ok {
		if err, ok := v.(error); ok {
			var zero T
			return zero, err
		}
		return v.(T), nil
	}
	return def, nil
}

func (s *fakeSession) withConfig(method, configFile string) error {
	s.configFiles = append(s.configFiles, configFile)
	if !strings.HasSuffix(configFile, ".csvconf") {
		return errNoConfig
	}
	return nil
}

func (s *fakeSession) AtomicSets(ctx context.Context) ([][]string, error) {
	return result(s, "AtomicSets", [][]string{{s.root()}})
}

func (s *fakeSession) AverageBranchingFactor(ctx context.Context) (float64, error) {
	return result(s, "AverageBranchingFactor", 0.0)
}

func (s *fakeSession) Commonality(ctx context.Context, configFile string) (float64, error) {
	if err := s.withConfig("Commonality", configFile); err != nil {
		return 0, err
	}
	return result(s, "Commonality", 1.0)
}

func (s *fakeSession) Configurations(ctx context.Context) ([]engine.Configuration, error) {
	return result(s, "Configurations", []engine.Configuration{{s.root()}})
}

func (s *fakeSession) ConfigurationsNumber(ctx context.Context) (float64, error) {
	return result(s, "ConfigurationsNumber", 1.0)
}

func (s *fakeSession) CoreFeatures(ctx context.Context) ([]string, error) {
	return result(s, "CoreFeatures", []string{s.root()})
}

func (s *fakeSession) CountLeafs(ctx context.Context) (int, error) {
	return result(s, "CountLeafs", 1)
}

func (s *fakeSession) DeadFeatures(ctx context.Context) ([]string, error) {
	return result(s, "DeadFeatures", []string{})
}

func (s *fakeSession) EstimatedNumberOfConfigurations(ctx context.Context) (float64, error) {
	return result(s, "EstimatedNumberOfConfigurations", 1.0)
}

func (s *fakeSession) FalseOptionalFeatures(ctx context.Context) ([]string, error) {
	return result(s, "FalseOptionalFeatures", []string{})
}

func (s *fakeSession) FeatureAncestors(ctx context.Context, configFile string) ([]string, error) {
	if err := s.withConfig("FeatureAncestors", configFile); err != nil {
		return nil, err
	}
	return result(s, "FeatureAncestors", []string{})
}

func (s *fakeSession) Filter(ctx context.Context, configFile string) ([]engine.Configuration, error) {
	if err := s.withConfig("Filter", configFile); err != nil {
		return nil, err
	}
	return result(s, "Filter", []engine.Configuration{{s.root()}})
}

func (s *fakeSession) LeafFeatures(ctx context.Context) ([]string, error) {
	return result(s, "LeafFeatures", []string{s.root()})
}

func (s *fakeSession) MaxDepth(ctx context.Context) (int, error) {
	return result(s, "MaxDepth", 0)
}

func (s *fakeSession) Satisfiable(ctx context.Context) (bool, error) {
	return result(s, "Satisfiable", true)
}
