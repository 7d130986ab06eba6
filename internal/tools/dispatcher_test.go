package tools

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalModel = "features\n    Root\n"

func newTestDispatcher(t *testing.T, eng *fakeEngine) *Dispatcher {
	t.Helper()
	registry, err := NewDefaultRegistry(nil)
	require.NoError(t, err)
	return NewDispatcher(registry, eng, slog.New(slog.DiscardHandler))
}

func argsFor(t *testing.T, op Operation, content string) json.RawMessage {
	t.Helper()
	args := map[string]interface{}{"content": content}
	if op.Shape == ContentWithConfig {
		args["configFile"] = "selection.csvconf"
	}
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	return raw
}

func TestDispatcherMissingContent(t *testing.T) {
	for _, op := range Operations() {
		t.Run(op.Name, func(t *testing.T) {
			eng := &fakeEngine{}
			d := newTestDispatcher(t, eng)

			_, err := d.Call(context.Background(), op.Name, json.RawMessage(`{"configFile":"selection.csvconf"}`))

			var invalid *InvalidInputError
			require.ErrorAs(t, err, &invalid)
			assert.Contains(t, err.Error(), "Invalid input: ")
			assert.Zero(t, eng.sessionCount(), "no engine session may be created for invalid input")
		})
	}
}

func TestDispatcherMissingConfigFile(t *testing.T) {
	for _, op := range Operations() {
		if op.Shape != ContentWithConfig {
			continue
		}
		t.Run(op.Name, func(t *testing.T) {
			eng := &fakeEngine{}
			d := newTestDispatcher(t, eng)

			_, err := d.Call(context.Background(), op.Name, json.RawMessage(`{"content":"features\n    Root\n"}`))

			var invalid *InvalidInputError
			require.ErrorAs(t, err, &invalid)
			assert.Contains(t, err.Error(), "configFile")
			assert.Zero(t, eng.sessionCount())
		})
	}
}

func TestDispatcherRejectsBadArguments(t *testing.T) {
	tests := []struct {
		name string
		args string
	}{
		{"no arguments", ``},
		{"null", `null`},
		{"array", `["features"]`},
		{"empty content", `{"content":""}`},
		{"numeric content", `{"content":42}`},
		{"malformed", `{"content":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &fakeEngine{}
			d := newTestDispatcher(t, eng)

			_, err := d.Call(context.Background(), "leaf_features", json.RawMessage(tt.args))

			var invalid *InvalidInputError
			assert.ErrorAs(t, err, &invalid)
			assert.Zero(t, eng.sessionCount())
		})
	}
}

func TestDispatcherNumericConfigFileRejected(t *testing.T) {
	eng := &fakeEngine{}
	d := newTestDispatcher(t, eng)

	_, err := d.Call(context.Background(), "filter", json.RawMessage(`{"content":"features\n Root","configFile":7}`))

	var invalid *InvalidInputError
	assert.ErrorAs(t, err, &invalid)
	assert.Zero(t, eng.sessionCount())
}

func TestDispatcherIgnoresExtraArguments(t *testing.T) {
	d := newTestDispatcher(t, &fakeEngine{})

	res, err := d.Call(context.Background(), "satisfiability",
		json.RawMessage(`{"content":"features\n    Root\n","verbose":true}`))
	require.NoError(t, err)
	assert.Equal(t, "true", res.Content[0].Text)
}

func TestDispatcherInvalidModel(t *testing.T) {
	for _, op := range Operations() {
		t.Run(op.Name, func(t *testing.T) {
			eng := &fakeEngine{}
			d := newTestDispatcher(t, eng)

			res, err := d.Call(context.Background(), op.Name, argsFor(t, op, "this is not a model"))

			assert.Nil(t, res)
			var processing *ProcessingError
			require.ErrorAs(t, err, &processing)
			assert.Equal(t, "Error processing UVL content: line 1:0 mismatched input", err.Error())
			assert.Equal(t, 1, eng.sessionCount())
			assert.True(t, eng.allClosed())
		})
	}
}

func TestDispatcherUnknownTool(t *testing.T) {
	eng := &fakeEngine{}
	d := newTestDispatcher(t, eng)

	_, err := d.Call(context.Background(), "nonexistent_tool", json.RawMessage(`{"content":"features\n Root"}`))

	var unknown *UnknownOperationError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nonexistent_tool", unknown.Name)
	assert.Equal(t, "Unknown method: nonexistent_tool", err.Error())
	assert.Zero(t, eng.sessionCount())
}

func TestDispatcherEndToEnd(t *testing.T) {
	tests := []struct {
		tool string
		want string
	}{
		{"atomic_sets", "[\n  [\n    \"Root\"\n  ]\n]"},
		{"average_branching_factor", "0.00"},
		{"commonality", "1.00"},
		{"configurations", "[\n  [\n    \"Root\"\n  ]\n]"},
		{"configurations_number", "1.00"},
		{"core_features", "[\n  \"Root\"\n]"},
		{"count_leafs", "1.00"},
		{"dead_features", "[]"},
		{"estimated_number_of_configurations", "1.00"},
		{"false_optional_features", "[]"},
		{"feature_ancestors", "[]"},
		{"filter", "[\n  [\n    \"Root\"\n  ]\n]"},
		{"leaf_features", "[\n  \"Root\"\n]"},
		{"max_depth", "0.00"},
		{"satisfiability", "true"},
	}

	registry, err := NewDefaultRegistry(nil)
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			eng := &fakeEngine{}
			d := NewDispatcher(registry, eng, slog.New(slog.DiscardHandler))
			op, ok := registry.Get(tt.tool)
			require.True(t, ok)

			res, err := d.Call(context.Background(), tt.tool, argsFor(t, *op, minimalModel))
			require.NoError(t, err)

			require.Len(t, res.Content, 1)
			assert.Equal(t, "text", res.Content[0].Type)
			assert.Equal(t, tt.want, res.Content[0].Text)
			assert.False(t, res.IsError)

			require.Equal(t, 1, eng.sessionCount())
			s := eng.sessions[0]
			assert.Equal(t, minimalModel, s.content)
			assert.Len(t, s.calls, 1, "exactly one engine operation per call")
			assert.True(t, s.closed)
		})
	}
}

func TestDispatcherPassesConfigFile(t *testing.T) {
	eng := &fakeEngine{}
	d := newTestDispatcher(t, eng)

	_, err := d.Call(context.Background(), "commonality",
		json.RawMessage(`{"content":"features\n Root","configFile":"/tmp/pizza.csvconf"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"/tmp/pizza.csvconf"}, eng.sessions[0].configFiles)
}

func TestDispatcherOperationFailure(t *testing.T) {
	eng := &fakeEngine{}
	d := newTestDispatcher(t, eng)

	_, err := d.Call(context.Background(), "feature_ancestors",
		json.RawMessage(`{"content":"features\n Root","configFile":"missing.txt"}`))

	var processing *ProcessingError
	require.ErrorAs(t, err, &processing)
	assert.ErrorIs(t, err, errNoConfig)
	assert.True(t, eng.allClosed())
}

func TestDispatcherNumericFormatting(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{3, "3.00"},
		{12.5, "12.50"},
		{0.125, "0.13"},
		{0.625, "0.63"},
		{1.005, "1.00"},
		{2.0 / 3.0, "0.67"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			eng := &fakeEngine{overrides: map[string]interface{}{"AverageBranchingFactor": tt.value}}
			d := newTestDispatcher(t, eng)

			res, err := d.Call(context.Background(), "average_branching_factor", argsFor(t, Operation{}, minimalModel))
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Content[0].Text)
		})
	}
}

func TestDispatcherStructuredFormatting(t *testing.T) {
	eng := &fakeEngine{overrides: map[string]interface{}{"LeafFeatures": []string{"A", "B"}}}
	d := newTestDispatcher(t, eng)

	res, err := d.Call(context.Background(), "leaf_features", argsFor(t, Operation{}, minimalModel))
	require.NoError(t, err)

	text := res.Content[0].Text
	assert.Equal(t, "[\n  \"A\",\n  \"B\"\n]", text)

	var reparsed []string
	require.NoError(t, json.Unmarshal([]byte(text), &reparsed))
	assert.Equal(t, []string{"A", "B"}, reparsed)
}

func TestDispatcherIdempotent(t *testing.T) {
	for _, op := range Operations() {
		t.Run(op.Name, func(t *testing.T) {
			d := newTestDispatcher(t, &fakeEngine{})
			args := argsFor(t, op, minimalModel)

			first, err := d.Call(context.Background(), op.Name, args)
			require.NoError(t, err)
			second, err := d.Call(context.Background(), op.Name, args)
			require.NoError(t, err)

			assert.Equal(t, first, second)
		})
	}
}

func TestDispatcherDisabledToolIsUnknown(t *testing.T) {
	registry, err := NewDefaultRegistry([]string{"configurations*"})
	require.NoError(t, err)
	d := NewDispatcher(registry, &fakeEngine{}, slog.New(slog.DiscardHandler))

	_, err = d.Call(context.Background(), "configurations", argsFor(t, Operation{}, minimalModel))
	var unknown *UnknownOperationError
	assert.True(t, errors.As(err, &unknown))

	_, err = d.Call(context.Background(), "satisfiability", argsFor(t, Operation{}, minimalModel))
	assert.NoError(t, err)
}
