// Package engine defines the boundary to the feature-model analysis library.
// Parsing UVL, reasoning over the model and computing metrics all happen
// behind these interfaces.
package engine

import "context"

// Configuration is one valid product: the sorted names of its selected
// features.
type Configuration []string

// Engine opens analysis sessions. Implementations must be safe for
// concurrent use; sessions are not.
type Engine interface {
	NewSession(content string) Session
}

// Session analyses one feature model. Initialize must succeed before any
// operation is called. A session is used for a single request and then
// closed.
type Session interface {
	Initialize(ctx context.Context) error
	Close() error

	AtomicSets(ctx context.Context) ([][]string, error)
	AverageBranchingFactor(ctx context.Context) (float64, error)
	Commonality(ctx context.Context, configFile string) (float64, error)
	Configurations(ctx context.Context) ([]Configuration, error)
	ConfigurationsNumber(ctx context.Context) (float64, error)
	CoreFeatures(ctx context.Context) ([]string, error)
	CountLeafs(ctx context.Context) (int, error)
	DeadFeatures(ctx context.Context) ([]string, error)
	EstimatedNumberOfConfigurations(ctx context.Context) (float64, error)
	FalseOptionalFeatures(ctx context.Context) ([]string, error)
	FeatureAncestors(ctx context.Context, configFile string) ([]string, error)
	Filter(ctx context.Context, configFile string) ([]Configuration, error)
	LeafFeatures(ctx context.Context) ([]string, error)
	MaxDepth(ctx context.Context) (int, error)
	Satisfiable(ctx context.Context) (bool, error)
}
