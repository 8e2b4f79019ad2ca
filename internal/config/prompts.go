package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"groundwork/internal/guided"
)

// LoadPrompts merges YAML step-prompt overrides over the defaults.
// The file maps step names to prompt text:
//
//	target_population: "Who exactly does your program serve?"
//
// Unknown step names are rejected so typos do not silently leave a
// default in place.
func LoadPrompts(path string) (map[guided.Step]string, error) {
	prompts := guided.DefaultPrompts()
	if path == "" {
		return prompts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	var overrides map[string]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse prompts file: %w", err)
	}
	for name, text := range overrides {
		step := guided.Step(name)
		if _, ok := prompts[step]; !ok {
			return nil, fmt.Errorf("prompts file: unknown step %q", name)
		}
		prompts[step] = text
	}
	return prompts, nil
}
