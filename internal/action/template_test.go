package action

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolveInputRef(t *testing.T) {
	b := NewBindings(map[string]any{"claim": "breach of contract", "meta": map[string]any{"court": "SDNY"}})

	v, err := b.ResolveString("s1", "{{input.claim}}")
	require.NoError(t, err)
	require.Equal(t, "breach of contract", v)

	v, err = b.ResolveString("s1", "{{input.meta.court}}")
	require.NoError(t, err)
	require.Equal(t, "SDNY", v)
}

func TestResolveStepOutputRef(t *testing.T) {
	b := NewBindings(nil)
	require.NoError(t, b.BindOutput("extract", map[string]any{"text": "full text", "page_count": 3}))

	v, err := b.ResolveString("summarize", "{{steps.extract.output.text}}")
	require.NoError(t, err)
	require.Equal(t, "full text", v)

	// A lone placeholder keeps the bound value's type.
	v, err = b.ResolveString("summarize", "{{steps.extract.output.page_count}}")
	require.NoError(t, err)
	require.Equal(t, 3, v)

	// Embedded placeholders are stringified into the surrounding text.
	v, err = b.ResolveString("summarize", "Summarize: {{steps.extract.output.text}} ({{steps.extract.output.page_count}} pages)")
	require.NoError(t, err)
	require.Equal(t, "Summarize: full text (3 pages)", v)
}

func TestResolveTimestamp(t *testing.T) {
	b := NewBindings(nil)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return fixed }

	v, err := b.ResolveString("s1", "{{timestamp}}")
	require.NoError(t, err)
	require.Equal(t, "2025-06-01T12:00:00Z", v)

	_, err = b.ResolveString("s1", "{{timestamp.year}}")
	require.Error(t, err)
}

func TestResolveMissingRefFails(t *testing.T) {
	b := NewBindings(map[string]any{"claim": "x"})

	_, err := b.ResolveString("s1", "prefix {{input.missing}} suffix")
	require.Error(t, err)

	var tmplErr *TemplateError
	require.True(t, errors.As(err, &tmplErr))
	require.Equal(t, "s1", tmplErr.StepID)
	require.Equal(t, "input.missing", tmplErr.Placeholder)
}

func TestResolveUnexecutedStepFails(t *testing.T) {
	b := NewBindings(nil)

	_, err := b.ResolveString("s2", "{{steps.s9.output.text}}")
	require.Error(t, err)
	require.Contains(t, err.Error(), `step "s9" has not executed`)
}

func TestBindOutputIsWriteOnce(t *testing.T) {
	b := NewBindings(nil)
	require.NoError(t, b.BindOutput("s1", "first"))
	require.Error(t, b.BindOutput("s1", "second"))

	v, ok := b.Output("s1")
	require.True(t, ok)
	require.Equal(t, "first", v)
}

func TestResolveMapWalksNestedValues(t *testing.T) {
	b := NewBindings(map[string]any{"name": "msa.pdf"})

	resolved, err := b.ResolveMap("s1", map[string]any{
		"file":  "{{input.name}}",
		"tags":  []any{"contract", "{{input.name}}"},
		"count": 2,
	})
	require.NoError(t, err)
	require.Equal(t, "msa.pdf", resolved["file"])
	require.Equal(t, []any{"contract", "msa.pdf"}, resolved["tags"])
	require.Equal(t, 2, resolved["count"])
}

func TestReferencesIncludeScalarFields(t *testing.T) {
	step := Step{
		ID:      "fetch",
		Service: ServiceVault,
		Action:  "get-text",
		VaultID: "{{steps.pick.output.vault_id}}",
		Input:   map[string]any{"object_id": "{{steps.pick.output.object_id}}"},
	}
	require.Equal(t, []string{"pick"}, step.References())
}
