package command

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Script is the on-disk form of a command batch.
type Script struct {
	Commands []Command `json:"commands" yaml:"commands"`
}

// LoadScript reads a command batch from a .json file or, for any other extension, YAML.
func LoadScript(path string) ([]Command, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	format := "yaml"
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		format = "json"
	}
	return ParseScript(data, format)
}

// ReadScript parses a batch from r. Format is "json" or "yaml".
func ReadScript(r io.Reader, format string) ([]Command, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return ParseScript(data, format)
}

// ParseScript decodes a batch. A bare list of commands is accepted as well as
// an object with a "commands" key.
func ParseScript(data []byte, format string) ([]Command, error) {
	var script Script
	if format == "json" {
		trimmed := strings.TrimSpace(string(data))
		if strings.HasPrefix(trimmed, "[") {
			if err := json.Unmarshal(data, &script.Commands); err != nil {
				return nil, fmt.Errorf("failed to parse json script: %w", err)
			}
		} else if err := json.Unmarshal(data, &script); err != nil {
			return nil, fmt.Errorf("failed to parse json script: %w", err)
		}
		return script.Commands, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse yaml script: %w", err)
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		if err := node.Content[0].Decode(&script.Commands); err != nil {
			return nil, fmt.Errorf("failed to parse yaml script: %w", err)
		}
		return script.Commands, nil
	}
	if err := node.Decode(&script); err != nil {
		return nil, fmt.Errorf("failed to parse yaml script: %w", err)
	}
	return script.Commands, nil
}

// DecodeJSON accepts one command object, a list of commands or {"commands": [...]}.
func DecodeJSON(data []byte) ([]Command, error) {
	var single struct {
		Op Op `json:"op"`
	}
	if err := json.Unmarshal(data, &single); err == nil && single.Op != "" {
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			return nil, fmt.Errorf("failed to parse command: %w", err)
		}
		return []Command{cmd}, nil
	}
	return ParseScript(data, "json")
}
