package tools

import (
	"context"

	"github.com/lbdudc/mcp-fm-analyzer/internal/engine"
)

// Operation is one entry of the dispatch table: how to validate a call, which
// engine method answers it and how the answer is rendered.
type Operation struct {
	Name        string
	Title       string
	Description string
	Shape       Shape
	Invoke      func(ctx context.Context, s engine.Session, req Request) (interface{}, error)
	Format      func(v interface{}) (string, error)
}

// Operations returns the full analysis catalog in its advertised order.
func Operations() []Operation {
	return []Operation{
		{
			Name:  "atomic_sets",
			Title: "Atomic Sets",
			Description: "This operation identifies atomic sets in a feature model." +
				"An atomic set is a group of features that always appear together across " +
				"all configurations of the model. These sets help in simplifying and reducing " +
				"the complexity of the model by grouping features that behave as a single unit.",
			Shape: ContentOnly,
			Invoke: func(ctx context.Context, s engine.Session, _ Request) (interface{}, error) {
				return s.AtomicSets(ctx)
			},
			Format: FormatJSON,
		},
		{
			Name:  "average_branching_factor",
			Title: "Average Branching Factor",
			Description: "This calculates the average number of child features per parent " +
				"feature in the feature model. It provides insight into the complexity of the model.",
			Shape: ContentOnly,
			Invoke: func(ctx context.Context, s engine.Session, _ Request) (interface{}, error) {
				return s.AverageBranchingFactor(ctx)
			},
			Format: FormatNumber,
		},
		{
			Name:  "commonality",
			Title: "Commonality",
			Description: "Measures how often a feature appears in the configurations of a product line, " +
				"usually expressed as a percentage. Features with high commonality are core features.",
			Shape: ContentWithConfig,
			Invoke: func(ctx context.Context, s engine.Session, req Request) (interface{}, error) {
				return s.Commonality(ctx, req.ConfigFile)
			},
			Format: FormatNumber,
		},
		{
			Name:  "configurations",
			Title: "Configurations",
			Description: "Generates all possible valid configurations of a feature model. " +
				"Each configuration represents a valid product that can be derived from the " +
				"feature model.",
			Shape: ContentOnly,
			Invoke: func(ctx context.Context, s engine.Session, _ Request) (interface{}, error) {
				return s.Configurations(ctx)
			},
			Format: FormatJSON,
		},
		{
			Name:  "configurations_number",
			Title: "Number of Configurations",
			Description: "Returns the total number of valid configurations represented by " +
				"the feature model.",
			Shape: ContentOnly,
			Invoke: func(ctx context.Context, s engine.Session, _ Request) (interface{}, error) {
				return s.ConfigurationsNumber(ctx)
			},
			Format: FormatNumber,
		},
		{
			Name:  "core_features",
			Title: "Core Features",
			Description: "Identifies features that are present in all valid configurations " +
				"of the feature model. These are mandatory features that cannot be excluded.",
			Shape: ContentOnly,
			Invoke: func(ctx context.Context, s engine.Session, _ Request) (interface{}, error) {
				return s.CoreFeatures(ctx)
			},
			Format: FormatJSON,
		},
		{
			Name:  "count_leafs",
			Title: "Count Leaf Features",
			Description: "This operation counts the number of leaf features in a feature model. " +
				"Leaf features are those that do not have any children.",
			Shape: ContentOnly,
			Invoke: func(ctx context.Context, s engine.Session, _ Request) (interface{}, error) {
				return s.CountLeafs(ctx)
			},
			Format: FormatNumber,
		},
		{
			Name:  "dead_features",
			Title: "Dead Features",
			Description: "Identifies features that cannot be included in any valid product " +
				"configuration due to constraints and dependencies in the model. " +
				"These are typically indicative of errors in the feature model.",
			Shape: ContentOnly,
			Invoke: func(ctx context.Context, s engine.Session, _ Request) (interface{}, error) {
				return s.DeadFeatures(ctx)
			},
			Format: FormatJSON,
		},
		{
			Name:  "estimated_number_of_configurations",
			Title: "Estimated Number of Configurations",
			Description: "Provides an estimate of the total number of different configurations " +
				"that can be produced from a feature model by considering all possible combinations " +
				"of features.",
			Shape: ContentOnly,
			Invoke: func(ctx context.Context, s engine.Session, _ Request) (interface{}, error) {
				return s.EstimatedNumberOfConfigurations(ctx)
			},
			Format: FormatNumber,
		},
		{
			Name:  "false_optional_features",
			Title: "False-Optional Features",
			Description: "Identifies features that appear to be optional but, due to constraints " +
				"and dependencies in the feature model, must be included in every valid product " +
				"configuration. These features are typically indicative of modeling errors.",
			Shape: ContentOnly,
			Invoke: func(ctx context.Context, s engine.Session, _ Request) (interface{}, error) {
				return s.FalseOptionalFeatures(ctx)
			},
			Format: FormatJSON,
		},
		{
			Name:  "feature_ancestors",
			Title: "Feature Ancestors",
			Description: " Identifies all ancestor features of a given feature in the feature model. " +
				"Ancestors are features that are hierarchically above the given feature.",
			Shape: ContentWithConfig,
			Invoke: func(ctx context.Context, s engine.Session, req Request) (interface{}, error) {
				return s.FeatureAncestors(ctx, req.ConfigFile)
			},
			Format: FormatJSON,
		},
		{
			Name:  "filter",
			Title: "Filter Configurations",
			Description: "This operation filters and selects a subset of configurations based on " +
				"specified criteria. It helps in narrowing down the possible configurations to " +
				"those that meet certain requirements.",
			Shape: ContentWithConfig,
			Invoke: func(ctx context.Context, s engine.Session, req Request) (interface{}, error) {
				return s.Filter(ctx, req.ConfigFile)
			},
			Format: FormatJSON,
		},
		{
			Name:  "leaf_features",
			Title: "Leaf Features",
			Description: "Identifies all leaf features in the feature model. " +
				"Leaf features are those that do not have any child features and represent " +
				"the most specific options in a product line.",
			Shape: ContentOnly,
			Invoke: func(ctx context.Context, s engine.Session, _ Request) (interface{}, error) {
				return s.LeafFeatures(ctx)
			},
			Format: FormatJSON,
		},
		{
			Name:  "max_depth",
			Title: "Maximum Depth",
			Description: "This operation finds the maximum depth of the feature tree in the model, " +
				"indicating the longest path from the root to a leaf.",
			Shape: ContentOnly,
			Invoke: func(ctx context.Context, s engine.Session, _ Request) (interface{}, error) {
				return s.MaxDepth(ctx)
			},
			Format: FormatNumber,
		},
		{
			Name:  "satisfiability",
			Title: "Satisfiability",
			Description: "Checks whether a given model is valid according to the constraints " +
				"defined in the feature model.",
			Shape: ContentOnly,
			Invoke: func(ctx context.Context, s engine.Session, _ Request) (interface{}, error) {
				return s.Satisfiable(ctx)
			},
			Format: FormatJSON,
		},
	}
}
