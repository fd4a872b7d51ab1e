package action

import "fmt"

// Validate checks a definition at authoring time: ids must be unique and
// non-empty, services must come from the closed set, service-licensed fields
// must match the tag, and template references may only point at strictly
// earlier steps. Forward and self references are rejected here instead of
// being deferred to the remote executor.
func (d Definition) Validate() error {
	if len(d.Steps) == 0 {
		return fmt.Errorf("definition has no steps")
	}

	seen := make(map[string]int, len(d.Steps))
	for i, step := range d.Steps {
		if step.ID == "" {
			return fmt.Errorf("step %d: id is required", i)
		}
		if prev, dup := seen[step.ID]; dup {
			return fmt.Errorf("step %d: duplicate id %q (first used by step %d)", i, step.ID, prev)
		}
		if !KnownService(step.Service) {
			return fmt.Errorf("step %q: unknown service %q", step.ID, step.Service)
		}
		if err := step.validateFields(); err != nil {
			return err
		}
		for _, ref := range step.References() {
			at, executed := seen[ref]
			if !executed {
				if ref == step.ID {
					return fmt.Errorf("step %q: references its own output", step.ID)
				}
				return fmt.Errorf("step %q: references step %q which does not execute earlier", step.ID, ref)
			}
			_ = at
		}
		seen[step.ID] = i
	}
	return nil
}

// validateFields enforces which optional fields each service tag licenses.
func (s Step) validateFields() error {
	switch s.Service {
	case ServiceVault:
		if s.Action == "" {
			return fmt.Errorf("step %q: vault steps require an action", s.ID)
		}
		if s.WorkflowID != "" {
			return fmt.Errorf("step %q: workflow_id is not valid on a vault step", s.ID)
		}
	case ServiceWorkflows:
		if s.WorkflowID == "" {
			return fmt.Errorf("step %q: workflows steps require a workflow_id", s.ID)
		}
		if s.Action != "" || s.VaultID != "" {
			return fmt.Errorf("step %q: action/vault_id are not valid on a workflows step", s.ID)
		}
	default:
		if s.Action != "" || s.VaultID != "" || s.WorkflowID != "" {
			return fmt.Errorf("step %q: action/vault_id/workflow_id are not valid on a %s step", s.ID, s.Service)
		}
	}
	return nil
}
