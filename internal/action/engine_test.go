package action

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// recordingExecutor returns canned outputs per step id and records what it
// was handed.
type recordingExecutor struct {
	outputs map[string]any
	fail    map[string]error
	calls   []Step
	inputs  []map[string]any
}

func (e *recordingExecutor) ExecuteStep(ctx context.Context, step Step, input, options map[string]any) (any, error) {
	e.calls = append(e.calls, step)
	e.inputs = append(e.inputs, input)
	if err := e.fail[step.ID]; err != nil {
		return nil, err
	}
	return e.outputs[step.ID], nil
}

func TestEngineRunsStepsInOrder(t *testing.T) {
	exec := &recordingExecutor{outputs: map[string]any{
		"scan":      map[string]any{"text": "ocr text"},
		"summarize": map[string]any{"text": "summary"},
	}}
	engine := NewEngine(exec)

	def := Definition{Steps: []Step{
		NewOCRStep("scan", map[string]any{"document_url": "{{input.url}}"}, nil),
		NewLLMStep("summarize", map[string]any{"prompt": "Summarize: {{steps.scan.output.text}}"}, nil),
	}}

	result, err := engine.Run(context.Background(), def, map[string]any{"url": "https://example.com/a.pdf"})
	require.NoError(t, err)
	require.Equal(t, "completed", result.Status)
	require.Len(t, result.Results, 2)

	require.Equal(t, "scan", exec.calls[0].ID)
	require.Equal(t, "https://example.com/a.pdf", exec.inputs[0]["document_url"])
	require.Equal(t, "Summarize: ocr text", exec.inputs[1]["prompt"])
}

func TestEngineStopsOnFailingStep(t *testing.T) {
	boom := errors.New("service unavailable")
	exec := &recordingExecutor{
		outputs: map[string]any{"a": "out-a"},
		fail:    map[string]error{"b": boom},
	}
	engine := NewEngine(exec)

	def := Definition{Steps: []Step{
		NewLLMStep("a", nil, nil),
		NewLLMStep("b", nil, nil),
		NewLLMStep("c", nil, nil),
	}}

	result, err := engine.Run(context.Background(), def, nil)
	require.ErrorIs(t, err, boom)
	require.Equal(t, "failed", result.Status)

	// Step a's result is preserved, b records the error, c never runs.
	require.Len(t, result.Results, 2)
	require.Equal(t, "out-a", result.Results[0].Output)
	require.Contains(t, result.Results[1].Error, "service unavailable")
	require.Len(t, exec.calls, 2)
}

func TestEngineFailsOnUnresolvedPlaceholder(t *testing.T) {
	exec := &recordingExecutor{outputs: map[string]any{"a": map[string]any{"text": "x"}}}
	engine := NewEngine(exec)

	def := Definition{Steps: []Step{
		NewLLMStep("a", nil, nil),
		NewLLMStep("b", map[string]any{"prompt": "{{steps.a.output.missing}}"}, nil),
	}}

	result, err := engine.Run(context.Background(), def, nil)
	require.Error(t, err)
	require.Equal(t, "failed", result.Status)
	require.Contains(t, result.Results[1].Error, "unresolved placeholder")
	// The failing step never reaches the executor.
	require.Len(t, exec.calls, 1)
}

func TestEngineRejectsInvalidDefinitionUpfront(t *testing.T) {
	exec := &recordingExecutor{}
	engine := NewEngine(exec)

	def := Definition{Steps: []Step{
		NewLLMStep("first", map[string]any{"prompt": "{{steps.second.output.text}}"}, nil),
		NewLLMStep("second", nil, nil),
	}}

	_, err := engine.Run(context.Background(), def, nil)
	require.Error(t, err)
	require.Empty(t, exec.calls)
}

func TestEngineResolvesTemplatedScalarFields(t *testing.T) {
	exec := &recordingExecutor{outputs: map[string]any{
		"pick":  map[string]any{"vault_id": "v_123"},
		"fetch": map[string]any{"text": "doc"},
	}}
	engine := NewEngine(exec)

	def := Definition{Steps: []Step{
		NewLLMStep("pick", nil, nil),
		{
			ID:      "fetch",
			Service: ServiceVault,
			Action:  "get-text",
			VaultID: "{{steps.pick.output.vault_id}}",
			Input:   map[string]any{"object_id": "obj_1"},
		},
	}}

	_, err := engine.Run(context.Background(), def, nil)
	require.NoError(t, err)
	require.Equal(t, "v_123", exec.calls[1].VaultID)
}
