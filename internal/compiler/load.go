package compiler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/causalcore/internal/ir"
)

// IsSpecFile reports whether path has a model spec extension.
func IsSpecFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue", ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// LoadFile reads every model definition in a spec file, dispatching on
// its extension.
func LoadFile(path string) ([]ir.ModelDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var defs []ir.ModelDefinition
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		defs, err = CompileCUE(data, path)
	case ".yaml", ".yml":
		defs, err = DecodeYAML(bytes.NewReader(data))
	case ".json":
		defs, err = DecodeJSON(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%s: unsupported spec format %q", path, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("%s: no models found", path)
	}
	return defs, nil
}

// LoadPaths loads files and directories in argument order. Directories
// are walked for spec files in lexical order.
func LoadPaths(paths []string) ([]ir.ModelDefinition, error) {
	var defs []ir.ModelDefinition
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("spec path: %w", err)
		}

		files := []string{p}
		if info.IsDir() {
			if files, err = FindSpecFiles(p); err != nil {
				return nil, fmt.Errorf("scan %s: %w", p, err)
			}
			if len(files) == 0 {
				return nil, fmt.Errorf("no spec files found in %s", p)
			}
		}

		for _, f := range files {
			loaded, err := LoadFile(f)
			if err != nil {
				return nil, err
			}
			defs = append(defs, loaded...)
		}
	}
	return defs, nil
}

// FindSpecFiles walks the directory and returns all spec file paths.
func FindSpecFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsSpecFile(path) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// DecodeYAML reads one model definition per YAML document.
// Unknown fields are rejected.
func DecodeYAML(r io.Reader) ([]ir.ModelDefinition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var defs []ir.ModelDefinition
	for {
		var def ir.ModelDefinition
		err := dec.Decode(&def)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		applyDefaults(&def)
		defs = append(defs, def)
	}
	return defs, nil
}

// DecodeJSON reads a stream of JSON model definitions.
// Unknown fields are rejected.
func DecodeJSON(r io.Reader) ([]ir.ModelDefinition, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var defs []ir.ModelDefinition
	for {
		var def ir.ModelDefinition
		err := dec.Decode(&def)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		applyDefaults(&def)
		defs = append(defs, def)
	}
	return defs, nil
}

// applyDefaults fills optional fields shared by every input format.
func applyDefaults(def *ir.ModelDefinition) {
	if def.Status == "" {
		def.Status = ir.StatusDraft
	}
	if def.Spec.Nodes == nil {
		def.Spec.Nodes = []ir.NodeSpec{}
	}
	if def.Spec.Edges == nil {
		def.Spec.Edges = []ir.EdgeSpec{}
	}
	for i := range def.Spec.Edges {
		if def.Spec.Edges[i].Sign == "" {
			def.Spec.Edges[i].Sign = ir.SignUnknown
		}
	}
}
