package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileSource reads pipelines from a YAML or JSON file on every fetch.
// Files ending in .json are decoded as JSON, anything else as YAML. Both
// accept either a bare list or a {pipelines: [...]} document.
type FileSource struct {
	Path string
}

type fileDoc struct {
	Pipelines []Pipeline `yaml:"pipelines" json:"pipelines"`
}

// Fetch implements Source.
func (f FileSource) Fetch(ctx context.Context) ([]Pipeline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}
	if strings.EqualFold(filepath.Ext(f.Path), ".json") {
		return decodeJSON(data)
	}
	return decodeYAML(data)
}

func decodeJSON(data []byte) ([]Pipeline, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var list []Pipeline
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("decode pipelines json: %w", err)
		}
		return list, nil
	}
	var doc fileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode pipelines json: %w", err)
	}
	return doc.Pipelines, nil
}

func decodeYAML(data []byte) ([]Pipeline, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("decode pipelines yaml: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var list []Pipeline
		if err := root.Decode(&list); err != nil {
			return nil, fmt.Errorf("decode pipelines yaml: %w", err)
		}
		return list, nil
	}
	var doc fileDoc
	if err := root.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode pipelines yaml: %w", err)
	}
	return doc.Pipelines, nil
}
