package action

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// builtinActions are the default action templates written to the library on
// first use. They double as syntax examples for the placeholder grammar.
var builtinActions = []Action{
	{
		Name:        "summarize-document",
		Description: "Fetch a document's text from a vault and summarize it",
		BuiltIn:     true,
		Definition: Definition{Steps: []Step{
			{
				ID:      "fetch",
				Service: ServiceVault,
				Action:  "get-text",
				VaultID: "{{input.vault_id}}",
				Input:   map[string]any{"object_id": "{{input.object_id}}"},
			},
			{
				ID:      "summarize",
				Service: ServiceLLM,
				Input: map[string]any{
					"prompt": "Summarize the following document in five bullet points:\n\n{{steps.fetch.output.text}}",
				},
				Options: map[string]any{"max_tokens": 1024},
			},
		}},
	},
	{
		Name:        "contract-key-dates",
		Description: "OCR a contract and extract every date with its obligation",
		BuiltIn:     true,
		Definition: Definition{Steps: []Step{
			{
				ID:      "ocr",
				Service: ServiceOCR,
				Input:   map[string]any{"document_url": "{{input.document_url}}"},
				Options: map[string]any{"engine": "doctr"},
			},
			{
				ID:      "dates",
				Service: ServiceLLM,
				Input: map[string]any{
					"prompt": "List every date in this contract together with the obligation it triggers. Extracted at {{timestamp}}.\n\n{{steps.ocr.output.text}}",
				},
			},
		}},
	},
}

// LibraryDir returns the path to the local action library.
func LibraryDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".casedeck", "actions")
	}
	return filepath.Join(home, ".casedeck", "actions")
}

// EnsureBuiltins writes the built-in action templates to disk if absent.
func EnsureBuiltins() error {
	dir := LibraryDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, a := range builtinActions {
		path := filepath.Join(dir, a.Name+".yml")
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := saveActionFile(path, &a); err != nil {
			return err
		}
	}
	return nil
}

// List returns all actions in the library, built-in and user-defined.
func List() ([]Action, error) {
	if err := EnsureBuiltins(); err != nil {
		return nil, err
	}

	dir := LibraryDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var actions []Action
	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yml") && !strings.HasSuffix(e.Name(), ".yaml")) {
			continue
		}
		a, err := loadActionFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		markBuiltIn(a)
		actions = append(actions, *a)
	}
	return actions, nil
}

// Get returns an action from the library by name.
func Get(name string) (*Action, error) {
	if err := EnsureBuiltins(); err != nil {
		return nil, err
	}

	path := filepath.Join(LibraryDir(), name+".yml")
	a, err := loadActionFile(path)
	if err != nil {
		path = filepath.Join(LibraryDir(), name+".yaml")
		a, err = loadActionFile(path)
		if err != nil {
			return nil, fmt.Errorf("action %q not found", name)
		}
	}
	markBuiltIn(a)
	return a, nil
}

// Save validates an action's definition and writes it to the library.
func Save(a *Action) error {
	if a.Name == "" {
		return fmt.Errorf("action name is required")
	}
	if err := a.Definition.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(LibraryDir(), 0755); err != nil {
		return err
	}
	return saveActionFile(filepath.Join(LibraryDir(), a.Name+".yml"), a)
}

// Delete removes an action from the library.
func Delete(name string) error {
	path := filepath.Join(LibraryDir(), name+".yml")
	if err := os.Remove(path); err != nil {
		path = filepath.Join(LibraryDir(), name+".yaml")
		return os.Remove(path)
	}
	return nil
}

func markBuiltIn(a *Action) {
	for _, b := range builtinActions {
		if b.Name == a.Name {
			a.BuiltIn = true
			return
		}
	}
}

func loadActionFile(path string) (*Action, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var a Action
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func saveActionFile(path string, a *Action) error {
	data, err := yaml.Marshal(a)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
