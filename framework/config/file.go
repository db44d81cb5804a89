package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML (or JSON, which YAML accepts) manifest into a
// nested map. An empty file yields an empty map.
//
//	# app.yaml
//	app:
//	  name: demo
//	mail:
//	  driver: smtp
func LoadFile(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	out := map[string]any{}
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return normalize(out).(map[string]any), nil
}
