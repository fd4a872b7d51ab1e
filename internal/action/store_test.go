package action

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	a := &Action{
		Name:        "redline-check",
		Description: "Summarize the riskiest clauses",
		Definition: Definition{Steps: []Step{
			NewLLMStep("check", map[string]any{"prompt": "Review: {{input.text}}"}, nil),
		}},
	}
	require.NoError(t, Save(a))

	got, err := Get("redline-check")
	require.NoError(t, err)
	require.Equal(t, "redline-check", got.Name)
	require.False(t, got.BuiltIn)
	require.Len(t, got.Definition.Steps, 1)
	require.Equal(t, ServiceLLM, got.Definition.Steps[0].Service)
}

func TestSaveRejectsInvalidDefinition(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	a := &Action{
		Name: "broken",
		Definition: Definition{Steps: []Step{
			NewLLMStep("only", map[string]any{"prompt": "{{steps.only.output.text}}"}, nil),
		}},
	}
	require.Error(t, Save(a))

	_, err := Get("broken")
	require.Error(t, err)
}

func TestListIncludesBuiltins(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	actions, err := List()
	require.NoError(t, err)

	names := make(map[string]bool, len(actions))
	for _, a := range actions {
		names[a.Name] = a.BuiltIn
	}
	require.True(t, names["summarize-document"])
	require.True(t, names["contract-key-dates"])
}

func TestDeleteRemovesAction(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	a := &Action{
		Name: "temp",
		Definition: Definition{Steps: []Step{
			NewLLMStep("s", nil, nil),
		}},
	}
	require.NoError(t, Save(a))
	require.NoError(t, Delete("temp"))

	_, err := Get("temp")
	require.Error(t, err)
}
