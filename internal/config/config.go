package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	Profiles   []Profile `json:"profiles"`
	Default    string    `json:"default"`
	HTTPBind   string    `json:"httpBind,omitempty"`
	HTTPTokens []string  `json:"httpTokens,omitempty"`
}

// Profile is one named set of API credentials.
type Profile struct {
	Name             string `json:"name"`
	CaseDevBaseURL   string `json:"CASEDEV_BASE_URL,omitempty"`
	CaseDevAPIKey    string `json:"CASEDEV_API_KEY"`
	AnthropicBaseURL string `json:"ANTHROPIC_BASE_URL,omitempty"`
	AnthropicAPIKey  string `json:"ANTHROPIC_API_KEY,omitempty"`
}

var ConfigPath string

func init() {
	// A config.json in the working directory takes precedence over the
	// per-user file.
	pwd, _ := os.Getwd()
	projectConfig := filepath.Join(pwd, "config.json")
	if _, err := os.Stat(projectConfig); err == nil {
		ConfigPath = projectConfig
	} else {
		homeDir, _ := os.UserHomeDir()
		ConfigPath = filepath.Join(homeDir, ".casedeck", "config.json")
	}
}

func LoadConfig() (*Config, error) {
	data, err := os.ReadFile(ConfigPath)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

func SaveConfig(config *Config) error {
	data, err := json.MarshalIndent(config, "", "    ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(ConfigPath)
	os.MkdirAll(dir, 0755)
	return os.WriteFile(ConfigPath, data, 0644)
}

// ActiveProfile resolves the profile to use: the named one if name is
// non-empty, otherwise the configured default, otherwise a profile built
// purely from environment variables. Environment variables fill any field
// the chosen profile leaves empty.
func ActiveProfile(name string) (*Profile, error) {
	cfg, err := LoadConfig()
	if err != nil {
		if os.IsNotExist(err) {
			return envProfile()
		}
		return nil, err
	}

	if name == "" {
		name = cfg.Default
	}

	var p *Profile
	for i := range cfg.Profiles {
		if cfg.Profiles[i].Name == name {
			p = &cfg.Profiles[i]
			break
		}
	}
	if p == nil {
		if name != "" {
			return nil, fmt.Errorf("profile %q not found", name)
		}
		return envProfile()
	}

	out := *p
	fillFromEnv(&out)
	if out.CaseDevAPIKey == "" {
		return nil, fmt.Errorf("profile %q has no Case.dev API key and CASEDEV_API_KEY is unset", name)
	}
	return &out, nil
}

// SetProfile adds or replaces a profile by name.
func SetProfile(p Profile) error {
	cfg, err := LoadConfig()
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		cfg = &Config{}
	}

	replaced := false
	for i := range cfg.Profiles {
		if cfg.Profiles[i].Name == p.Name {
			cfg.Profiles[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		cfg.Profiles = append(cfg.Profiles, p)
	}
	if cfg.Default == "" {
		cfg.Default = p.Name
	}
	return SaveConfig(cfg)
}

// RemoveProfile deletes a profile by name. Removing the default clears the
// default selection.
func RemoveProfile(name string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	kept := cfg.Profiles[:0]
	for _, p := range cfg.Profiles {
		if p.Name != name {
			kept = append(kept, p)
		}
	}
	cfg.Profiles = kept
	if cfg.Default == name {
		cfg.Default = ""
	}
	return SaveConfig(cfg)
}

// SetDefault marks an existing profile as the default.
func SetDefault(name string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	for _, p := range cfg.Profiles {
		if p.Name == name {
			cfg.Default = name
			return SaveConfig(cfg)
		}
	}
	return fmt.Errorf("profile %q not found", name)
}

func envProfile() (*Profile, error) {
	p := &Profile{Name: "env"}
	fillFromEnv(p)
	if p.CaseDevAPIKey == "" {
		return nil, fmt.Errorf("no config file at %s and CASEDEV_API_KEY is unset", ConfigPath)
	}
	return p, nil
}

func fillFromEnv(p *Profile) {
	if p.CaseDevBaseURL == "" {
		p.CaseDevBaseURL = os.Getenv("CASEDEV_BASE_URL")
	}
	if p.CaseDevAPIKey == "" {
		p.CaseDevAPIKey = os.Getenv("CASEDEV_API_KEY")
	}
	if p.AnthropicBaseURL == "" {
		p.AnthropicBaseURL = os.Getenv("ANTHROPIC_BASE_URL")
	}
	if p.AnthropicAPIKey == "" {
		p.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
}
