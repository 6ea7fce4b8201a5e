package mapper

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/transform"
)

// MappingFile represents the structure of a field mapping YAML file.
type MappingFile struct {
	// Plugin the mappings were written for; informational
	Plugin string `yaml:"plugin,omitempty"`

	// Mappings: legacy key -> target, or legacy key -> {target, transform, priority}
	Mappings map[string]Spec `yaml:"mappings"`

	// Extended mappings for keys that are awkward as YAML map keys
	ExtendedMappings []ExtendedMapping `yaml:"extended_mappings,omitempty"`
}

// ExtendedMapping represents a mapping written as a list entry.
type ExtendedMapping struct {
	Source    string `yaml:"source"`
	Target    string `yaml:"target"`
	Transform string `yaml:"transform,omitempty"`
	Priority  int    `yaml:"priority,omitempty"`
}

// LoadMappingFile reads a mapping file and resolves its transforms.
// Extended entries win over simple ones with the same source.
func LoadMappingFile(path string, reg *transform.Registry) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}
	return ParseMappingFile(data, reg)
}

// ParseMappingFile parses mapping file contents.
func ParseMappingFile(data []byte, reg *transform.Registry) (Table, error) {
	var file MappingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse mapping file: %w", err)
	}

	table := make(Table, len(file.Mappings)+len(file.ExtendedMappings))
	for source, spec := range file.Mappings {
		source = strings.TrimSpace(source)
		if source == "" {
			return nil, fmt.Errorf("mapping with empty source key")
		}
		table[source] = spec.Resolve(reg)
	}

	for i, ext := range file.ExtendedMappings {
		if strings.TrimSpace(ext.Source) == "" {
			return nil, fmt.Errorf("extended mapping %d: source is required", i)
		}
		table[ext.Source] = Spec{
			Target:    ext.Target,
			Transform: ext.Transform,
			Priority:  ext.Priority,
		}.Resolve(reg)
	}

	return table, nil
}

// SaveMappingFile writes a table as a mapping file.
func SaveMappingFile(path, plugin string, t Table) error {
	data, err := EncodeMappingFile(plugin, t)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write mapping file: %w", err)
	}
	return nil
}

// EncodeMappingFile renders a table in mapping file form.
func EncodeMappingFile(plugin string, t Table) ([]byte, error) {
	file := MappingFile{
		Plugin:   plugin,
		Mappings: t.Specs(),
	}
	data, err := yaml.Marshal(&file)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mapping file: %w", err)
	}
	return data, nil
}
