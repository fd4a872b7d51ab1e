package action

import (
	"context"
	"fmt"
)

// StepExecutor performs one step's service call with its templates already
// resolved. Implementations wrap the remote services; tests use fakes.
type StepExecutor interface {
	ExecuteStep(ctx context.Context, step Step, input, options map[string]any) (any, error)
}

// StepResult records one executed step.
type StepResult struct {
	StepID string `json:"step_id"`
	Output any    `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// RunResult holds the outcome of a local definition run.
type RunResult struct {
	Status  string       `json:"status"`
	Results []StepResult `json:"results"`
}

// Engine executes a definition locally, step by step, resolving templates
// against the accumulated bindings. The remote Workflows service is the
// production executor; the engine mirrors its semantics for dry runs and
// authoring-time preview.
type Engine struct {
	exec StepExecutor
}

// NewEngine creates an Engine backed by the given executor.
func NewEngine(exec StepExecutor) *Engine {
	return &Engine{exec: exec}
}

// Run validates the definition, then executes its steps strictly in array
// order. When resolving step k only the top-level input and the outputs of
// steps 0..k-1 are visible. The first failing step stops the run; earlier
// results are preserved.
func (e *Engine) Run(ctx context.Context, def Definition, input map[string]any) (*RunResult, error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid definition: %w", err)
	}

	run := &RunResult{Status: "running"}
	bindings := NewBindings(input)

	for _, step := range def.Steps {
		resolvedInput, err := bindings.ResolveMap(step.ID, step.Input)
		if err != nil {
			run.Results = append(run.Results, StepResult{StepID: step.ID, Error: err.Error()})
			run.Status = "failed"
			return run, err
		}
		resolvedOptions, err := bindings.ResolveMap(step.ID, step.Options)
		if err != nil {
			run.Results = append(run.Results, StepResult{StepID: step.ID, Error: err.Error()})
			run.Status = "failed"
			return run, err
		}

		resolvedStep, err := resolveStepFields(bindings, step)
		if err != nil {
			run.Results = append(run.Results, StepResult{StepID: step.ID, Error: err.Error()})
			run.Status = "failed"
			return run, err
		}

		output, err := e.exec.ExecuteStep(ctx, resolvedStep, resolvedInput, resolvedOptions)
		if err != nil {
			run.Results = append(run.Results, StepResult{StepID: step.ID, Error: err.Error()})
			run.Status = "failed"
			return run, fmt.Errorf("step %q: %w", step.ID, err)
		}

		if err := bindings.BindOutput(step.ID, output); err != nil {
			return run, err
		}
		run.Results = append(run.Results, StepResult{StepID: step.ID, Output: output})
	}

	run.Status = "completed"
	return run, nil
}

// resolveStepFields resolves placeholders in the step's scalar fields, so a
// vault id or workflow id may itself be templated.
func resolveStepFields(bindings *Bindings, step Step) (Step, error) {
	if step.VaultID != "" {
		v, err := bindings.ResolveString(step.ID, step.VaultID)
		if err != nil {
			return step, err
		}
		step.VaultID = stringify(v)
	}
	if step.WorkflowID != "" {
		v, err := bindings.ResolveString(step.ID, step.WorkflowID)
		if err != nil {
			return step, err
		}
		step.WorkflowID = stringify(v)
	}
	return step, nil
}
