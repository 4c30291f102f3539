package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultYAML renders the default configuration as a YAML document, used to
// seed a fresh user config file.
func DefaultYAML() ([]byte, error) {
	doc := map[string]any{
		"provider": "anthropic",
		"anthropic": map[string]any{
			"api_key":         "${ANTHROPIC_API_KEY}",
			"model":           "",
			"use_aws_bedrock": false,
			"aws_region":      "",
			"aws_profile":     "",
		},
		"openai": map[string]any{
			"api_key": "${OPENAI_API_KEY}",
			"model":   "",
		},
		"checkpoint": map[string]any{
			"backend": "sqlite",
			"path":    defaultCheckpointPath(),
		},
		"approvals": map[string]any{
			"sensitive":     []string{"send_email", "generate_invoice"},
			"decisions_dir": "",
		},
		"review": map[string]any{
			"monitored":      "query",
			"max_rejections": 5,
		},
		"planner": map[string]any{
			"enabled":       false,
			"max_critiques": 3,
		},
		"log":    map[string]any{"path": ""},
		"stream": map[string]any{"addr": ""},
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("render default config: %w", err)
	}
	return out, nil
}

// WriteTemplate writes the default configuration to path, creating parent
// directories. It refuses to overwrite an existing file.
func WriteTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists at %s", path)
	}

	data, err := DefaultYAML()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
