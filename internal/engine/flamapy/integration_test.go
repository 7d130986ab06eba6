package flamapy

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pizzaModel = `features
    Pizza
        mandatory
            Topping
                or
                    Salami
                    Ham
                    Mozzarella
            Size
                alternative
                    Normal
                    Big
        optional
            CheesyCrust
`

// requireFlamapy skips unless a Python interpreter with flamapy is on PATH.
func requireFlamapy(t *testing.T) Config {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping flamapy integration test in short mode")
	}
	cfg := DefaultConfig()
	if _, err := exec.LookPath(cfg.Python); err != nil {
		t.Skipf("%s not available", cfg.Python)
	}
	if err := exec.Command(cfg.Python, "-c", "import flamapy").Run(); err != nil {
		t.Skip("flamapy not installed")
	}
	cfg.WorkDir = t.TempDir()
	return cfg
}

func TestFlamapyIntegration(t *testing.T) {
	cfg := requireFlamapy(t)
	e := New(cfg, slog.New(slog.DiscardHandler))
	ctx := context.Background()

	s := e.NewSession(pizzaModel)
	defer s.Close()
	require.NoError(t, s.Initialize(ctx))

	ok, err := s.Satisfiable(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := s.ConfigurationsNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(28), n)

	leafs, err := s.LeafFeatures(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Salami", "Ham", "Mozzarella", "Normal", "Big", "CheesyCrust"}, leafs)

	count, err := s.CountLeafs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	depth, err := s.MaxDepth(ctx)
	require.NoError(t, err)
	assert.Positive(t, depth)

	dead, err := s.DeadFeatures(ctx)
	require.NoError(t, err)
	assert.Empty(t, dead)
}

func TestFlamapyIntegrationConfigFile(t *testing.T) {
	cfg := requireFlamapy(t)
	e := New(cfg, slog.New(slog.DiscardHandler))
	ctx := context.Background()

	configFile := filepath.Join(t.TempDir(), "pizza.csvconf")
	require.NoError(t, os.WriteFile(configFile, []byte("Pizza,True\nTopping,True\nSalami,True\nSize,True\nNormal,True\n"), 0o644))

	s := e.NewSession(pizzaModel)
	defer s.Close()
	require.NoError(t, s.Initialize(ctx))

	commonality, err := s.Commonality(ctx, configFile)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, commonality, 0.0)
	assert.LessOrEqual(t, commonality, 1.0)

	_, err = s.Commonality(ctx, filepath.Join(t.TempDir(), "missing.csvconf"))
	assert.Error(t, err)
}

func TestFlamapyIntegrationInvalidModel(t *testing.T) {
	cfg := requireFlamapy(t)
	e := New(cfg, slog.New(slog.DiscardHandler))

	s := e.NewSession("this is not uvl {{{")
	defer s.Close()

	err := s.Initialize(context.Background())
	if err == nil {
		// Some flamapy versions accept garbage at load and fail on first use.
		_, err = s.Satisfiable(context.Background())
	}
	assert.Error(t, err)
}
