package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

type documentFile struct {
	Models map[string]modelFile `json:"models" yaml:"models"`
}

type modelFile struct {
	Fields []Field `json:"fields" yaml:"fields"`
}

// LoadFS walks fsys and parses every JSON, YAML or CUE metadata document into
// a single validated Registry. A model may only be defined once across files.
func LoadFS(fsys fs.FS) (*Registry, error) {
	if fsys == nil {
		return nil, fmt.Errorf("modelform/metadata: filesystem is nil")
	}

	collected := make(map[string]*Model)
	sources := make(map[string]string)

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isMetadataFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("modelform/metadata: read %s: %w", path, err)
		}
		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}

		names := make([]string, 0, len(doc.Models))
		for name := range doc.Models {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if prev, exists := sources[name]; exists {
				return fmt.Errorf("modelform/metadata: duplicate model %q (files %s and %s)", name, prev, path)
			}
			m, err := NewModel(name, doc.Models[name].Fields...)
			if err != nil {
				return fmt.Errorf("modelform/metadata: %s: %w", path, err)
			}
			collected[name] = m
			sources[name] = path
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	models := make([]*Model, 0, len(collected))
	for _, m := range collected {
		models = append(models, m)
	}
	return NewRegistry(models...)
}

// Parse decodes a single metadata document into a validated Registry.
func Parse(data []byte, source string) (*Registry, error) {
	doc, err := parseDocument(data, source)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(doc.Models))
	for name := range doc.Models {
		names = append(names, name)
	}
	sort.Strings(names)

	models := make([]*Model, 0, len(names))
	for _, name := range names {
		m, err := NewModel(name, doc.Models[name].Fields...)
		if err != nil {
			return nil, fmt.Errorf("modelform/metadata: %s: %w", source, err)
		}
		models = append(models, m)
	}
	return NewRegistry(models...)
}

// parseDocument decodes one metadata document. The format is chosen from the
// file extension; unknown extensions try JSON and then YAML.
func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(bytes.TrimSpace(data)) == 0 {
		return documentFile{}, fmt.Errorf("modelform/metadata: file %s is empty", source)
	}

	switch strings.ToLower(filepath.Ext(source)) {
	case ".cue":
		value := cuecontext.New().CompileBytes(data, cue.Filename(source))
		if err := value.Err(); err != nil {
			return documentFile{}, fmt.Errorf("modelform/metadata: compile %s: %w", source, err)
		}
		if err := value.Decode(&doc); err != nil {
			return documentFile{}, fmt.Errorf("modelform/metadata: decode %s: %w", source, err)
		}
		return doc, nil
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return documentFile{}, fmt.Errorf("modelform/metadata: parse %s: %w", source, err)
		}
		return doc, nil
	}

	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	return documentFile{}, fmt.Errorf("modelform/metadata: parse %s: invalid JSON or YAML", source)
}

func isMetadataFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml", ".cue":
		return true
	default:
		return false
	}
}
