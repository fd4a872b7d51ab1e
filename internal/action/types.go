package action

import "time"

// Service identifies which remote service a step calls. The set is closed;
// each tag licenses a different subset of optional step fields.
type Service string

const (
	ServiceLLM       Service = "llm"
	ServiceOCR       Service = "ocr"
	ServiceVault     Service = "vault"
	ServiceVoice     Service = "voice"
	ServiceWorkflows Service = "workflows"
)

// KnownService reports whether s is in the closed service set.
func KnownService(s Service) bool {
	switch s {
	case ServiceLLM, ServiceOCR, ServiceVault, ServiceVoice, ServiceWorkflows:
		return true
	}
	return false
}

// Step is one unit of an action definition: a call to a remote service with
// free-form input and execution options. Input values may contain
// {{input.x}} / {{steps.y.output.z}} / {{timestamp}} placeholders resolved at
// execution time. Action and VaultID are licensed only by the vault service;
// WorkflowID only by the workflows service.
type Step struct {
	ID      string         `json:"id" yaml:"id"`
	Service Service        `json:"service" yaml:"service"`
	Input   map[string]any `json:"input,omitempty" yaml:"input,omitempty"`
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`

	Action     string `json:"action,omitempty" yaml:"action,omitempty"`
	VaultID    string `json:"vault_id,omitempty" yaml:"vault_id,omitempty"`
	WorkflowID string `json:"workflow_id,omitempty" yaml:"workflow_id,omitempty"`
}

// NewLLMStep builds an llm step.
func NewLLMStep(id string, input, options map[string]any) Step {
	return Step{ID: id, Service: ServiceLLM, Input: input, Options: options}
}

// NewOCRStep builds an ocr step.
func NewOCRStep(id string, input, options map[string]any) Step {
	return Step{ID: id, Service: ServiceOCR, Input: input, Options: options}
}

// NewVaultStep builds a vault step performing the named storage action
// (e.g. "get-text", "search") against a vault.
func NewVaultStep(id, vaultAction, vaultID string, input map[string]any) Step {
	return Step{ID: id, Service: ServiceVault, Action: vaultAction, VaultID: vaultID, Input: input}
}

// NewVoiceStep builds a voice (transcription) step.
func NewVoiceStep(id string, input, options map[string]any) Step {
	return Step{ID: id, Service: ServiceVoice, Input: input, Options: options}
}

// NewWorkflowsStep builds a step that invokes a saved remote workflow.
func NewWorkflowsStep(id, workflowID string, input map[string]any) Step {
	return Step{ID: id, Service: ServiceWorkflows, WorkflowID: workflowID, Input: input}
}

// Definition is an ordered list of steps. Steps execute in array order; a
// step's template references may only resolve to the outputs of strictly
// earlier steps.
type Definition struct {
	Steps []Step `json:"steps" yaml:"steps"`
}

// Action is a named, locally authored definition. The external service owns
// the persisted record; the local YAML library mirrors it for editing.
type Action struct {
	ID          string     `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Definition  Definition `json:"definition" yaml:"definition"`
	WebhookID   string     `json:"webhook_id,omitempty" yaml:"webhook_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	BuiltIn     bool       `json:"builtIn,omitempty" yaml:"-"`
}
