package align

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of an alias table:
//
//	variables:
//	  - canonical: blood_pressure
//	    aliases: [BP, systolic_bp]
type File struct {
	Variables []Entry `yaml:"variables"`
}

// Load reads a YAML alias table.
func Load(r io.Reader) (*Table, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse alias table: %w", err)
	}
	return FromEntries(f.Variables)
}

// LoadFile reads a YAML alias table from path.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open alias table: %w", err)
	}
	defer f.Close()

	t, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// FromEntries builds a table from entries, in order.
func FromEntries(entries []Entry) (*Table, error) {
	t := NewTable()
	for i, e := range entries {
		if err := t.Add(e.Canonical, e.Aliases...); err != nil {
			return nil, fmt.Errorf("variables[%d]: %w", i, err)
		}
	}
	return t, nil
}
