package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// GeneratorConfig describes an external command that turns a prompt into text.
type GeneratorConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
	// Timeout is a Go duration string such as "45s".
	Timeout string `yaml:"timeout" json:"timeout"`
}

// ConfigFile represents the structure of generators.yaml.
type ConfigFile struct {
	Generators []GeneratorConfig `yaml:"generators" json:"generators"`
}

// LoadGenerators reads a configuration file (YAML or JSON) and returns the
// generators keyed by name. A missing file yields an empty map.
func LoadGenerators(path string) (map[string]GeneratorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]GeneratorConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read generators config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	out := make(map[string]GeneratorConfig)
	for _, g := range cfg.Generators {
		if g.Name == "" {
			continue
		}
		if g.Command == "" {
			return nil, fmt.Errorf("generator %q has no command", g.Name)
		}
		if g.Timeout != "" {
			if _, err := time.ParseDuration(g.Timeout); err != nil {
				return nil, fmt.Errorf("generator %q: invalid timeout: %w", g.Name, err)
			}
		}
		out[g.Name] = g
	}
	return out, nil
}
