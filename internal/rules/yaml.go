package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// yamlFile is the document layout of a YAML mapping file.
type yamlFile struct {
	Mapping map[string]*Spec `yaml:"mapping"`
}

// ParseYAML parses every document of a YAML mapping file. Specs are
// returned sorted by name within each document. Unknown fields are errors.
func ParseYAML(data []byte) ([]*Spec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var specs []*Spec
	for {
		var doc yamlFile
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &CompileError{Field: "yaml", Message: err.Error(), Err: err}
		}

		names := make([]string, 0, len(doc.Mapping))
		for name := range doc.Mapping {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			spec := doc.Mapping[name]
			if spec == nil {
				return nil, &CompileError{Mapping: name, Field: "mapping", Message: "mapping body is empty"}
			}
			spec.Name = name
			if err := spec.check(); err != nil {
				return nil, err
			}
			specs = append(specs, spec)
		}
	}
	return specs, nil
}

// MarshalYAML renders specs in the layout ParseYAML reads.
func MarshalYAML(specs []*Spec) ([]byte, error) {
	doc := yamlFile{Mapping: make(map[string]*Spec, len(specs))}
	for _, s := range specs {
		if _, dup := doc.Mapping[s.Name]; dup {
			return nil, fmt.Errorf("duplicate mapping %q", s.Name)
		}
		doc.Mapping[s.Name] = s
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
