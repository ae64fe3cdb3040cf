package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"timeline-editor/internal/timeline"

	"gopkg.in/yaml.v3"
)

// loadHistory reads an edit list from path ("-" for stdin). Files ending in .yaml or .yml
// are decoded as YAML and then held to the same per-entry rules as JSON histories.
func loadHistory(path string, stdin io.Reader) ([]timeline.Edit, int, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read history: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, 0, err
		}
	}
	return timeline.ParseHistory(data)
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml history: %w", err)
	}
	if doc == nil {
		doc = []any{}
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("decode yaml history: %w", err)
	}
	return out, nil
}
