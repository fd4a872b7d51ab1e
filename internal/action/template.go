package action

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// placeholderRE matches {{ ref }} placeholders. Refs are dotted paths such as
// input.claim, steps.extract.output.text, or the bare timestamp keyword.
var placeholderRE = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_\-]+(?:\.[A-Za-z0-9_\-]+)*)\s*\}\}`)

// TemplateError reports a placeholder that could not be resolved. Resolution
// never substitutes an empty string for a missing reference; the step fails
// and the error names the placeholder.
type TemplateError struct {
	StepID      string
	Placeholder string
	Reason      string
}

func (e *TemplateError) Error() string {
	msg := fmt.Sprintf("unresolved placeholder {{%s}}", e.Placeholder)
	if e.StepID != "" {
		msg += fmt.Sprintf(" in step %q", e.StepID)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Bindings holds the values visible to template resolution: the top-level
// input object plus the outputs of already executed steps. Outputs are
// write-once; a step's output never changes after the step completes.
type Bindings struct {
	input   map[string]any
	outputs map[string]any
	now     func() time.Time
}

// NewBindings creates Bindings over the given top-level input.
func NewBindings(input map[string]any) *Bindings {
	return &Bindings{
		input:   input,
		outputs: make(map[string]any),
		now:     time.Now,
	}
}

// BindOutput records a completed step's output under steps.<id>.output.
// Rebinding an id is an error: outputs are immutable once set.
func (b *Bindings) BindOutput(stepID string, output any) error {
	if _, exists := b.outputs[stepID]; exists {
		return fmt.Errorf("output for step %q already bound", stepID)
	}
	b.outputs[stepID] = output
	return nil
}

// Output returns the bound output of a step, if any.
func (b *Bindings) Output(stepID string) (any, bool) {
	v, ok := b.outputs[stepID]
	return v, ok
}

// resolveRef resolves one dotted reference against the bindings.
func (b *Bindings) resolveRef(stepID, ref string) (any, error) {
	parts := strings.Split(ref, ".")
	switch parts[0] {
	case "timestamp":
		if len(parts) > 1 {
			return nil, &TemplateError{StepID: stepID, Placeholder: ref, Reason: "timestamp takes no path"}
		}
		return b.now().UTC().Format(time.RFC3339), nil

	case "input":
		v, ok := lookupPath(b.input, parts[1:])
		if !ok {
			return nil, &TemplateError{StepID: stepID, Placeholder: ref, Reason: "no such input field"}
		}
		return v, nil

	case "steps":
		if len(parts) < 3 || parts[2] != "output" {
			return nil, &TemplateError{StepID: stepID, Placeholder: ref, Reason: "expected steps.<id>.output[.<path>]"}
		}
		out, ok := b.outputs[parts[1]]
		if !ok {
			return nil, &TemplateError{StepID: stepID, Placeholder: ref, Reason: fmt.Sprintf("step %q has not executed", parts[1])}
		}
		v, ok := lookupPath(out, parts[3:])
		if !ok {
			return nil, &TemplateError{StepID: stepID, Placeholder: ref, Reason: "no such output field"}
		}
		return v, nil
	}
	return nil, &TemplateError{StepID: stepID, Placeholder: ref, Reason: "unknown reference root"}
}

// ResolveString resolves all placeholders in s. When the whole string is a
// single placeholder the bound value keeps its type; otherwise placeholder
// values are stringified into the surrounding text.
func (b *Bindings) ResolveString(stepID, s string) (any, error) {
	if m := placeholderRE.FindStringSubmatch(strings.TrimSpace(s)); m != nil && m[0] == strings.TrimSpace(s) {
		return b.resolveRef(stepID, m[1])
	}

	var firstErr error
	resolved := placeholderRE.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}
		ref := placeholderRE.FindStringSubmatch(match)[1]
		v, err := b.resolveRef(stepID, ref)
		if err != nil {
			firstErr = err
			return match
		}
		return stringify(v)
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return resolved, nil
}

// ResolveValue resolves placeholders in v recursively: strings are templated,
// maps and slices are walked, everything else passes through unchanged.
func (b *Bindings) ResolveValue(stepID string, v any) (any, error) {
	switch val := v.(type) {
	case string:
		return b.ResolveString(stepID, val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			resolved, err := b.ResolveValue(stepID, item)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			resolved, err := b.ResolveValue(stepID, item)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}

// ResolveMap resolves a whole input/options map for one step.
func (b *Bindings) ResolveMap(stepID string, m map[string]any) (map[string]any, error) {
	if m == nil {
		return nil, nil
	}
	resolved, err := b.ResolveValue(stepID, map[string]any(m))
	if err != nil {
		return nil, err
	}
	return resolved.(map[string]any), nil
}

// lookupPath walks a dotted path through nested maps. An empty path returns
// the root itself.
func lookupPath(root any, path []string) (any, bool) {
	cur := root
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// stringify renders a resolved value for embedding inside surrounding text.
func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// stepRefs returns the step ids referenced by {{steps.<id>...}} placeholders
// anywhere in the given value.
func stepRefs(v any, out map[string]struct{}) {
	switch val := v.(type) {
	case string:
		for _, m := range placeholderRE.FindAllStringSubmatch(val, -1) {
			parts := strings.Split(m[1], ".")
			if parts[0] == "steps" && len(parts) >= 2 {
				out[parts[1]] = struct{}{}
			}
		}
	case map[string]any:
		for _, item := range val {
			stepRefs(item, out)
		}
	case []any:
		for _, item := range val {
			stepRefs(item, out)
		}
	}
}

// References returns the ids of all steps a step's templated fields refer to.
func (s Step) References() []string {
	set := make(map[string]struct{})
	stepRefs(map[string]any(s.Input), set)
	stepRefs(map[string]any(s.Options), set)
	stepRefs(s.VaultID, set)
	stepRefs(s.WorkflowID, set)
	refs := make([]string, 0, len(set))
	for id := range set {
		refs = append(refs, id)
	}
	return refs
}
