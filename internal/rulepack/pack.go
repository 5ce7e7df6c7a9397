// Package rulepack loads named rule packs from disk.
//
// A pack file holds a name, an optional description and a list of rules.
// YAML, TOML and JSON files are accepted; the format is chosen by extension.
package rulepack

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/rules"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported rule pack format")
	ErrDuplicateRule     = errors.New("duplicate rule id")
	ErrDuplicatePack     = errors.New("duplicate rule pack name")
)

// Pack is one named set of rules.
type Pack struct {
	Name        string       `json:"name" yaml:"name" toml:"name"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Rules       []rules.Rule `json:"rules" yaml:"rules" toml:"rules"`

	// Source is the file the pack was read from.
	Source string `json:"source,omitempty" yaml:"-" toml:"-"`
	// Warnings are lint findings that did not prevent loading.
	Warnings []string `json:"warnings,omitempty" yaml:"-" toml:"-"`
}

// Supported reports whether path has a rule pack extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".toml", ".json":
		return true
	}
	return false
}

// LoadFile reads and validates one pack file. A pack without a name is
// named after its file.
func LoadFile(path string) (Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Pack{}, fmt.Errorf("failed to read rule pack %s: %w", path, err)
	}
	p, err := Decode(filepath.Ext(path), data)
	if err != nil {
		return Pack{}, fmt.Errorf("rule pack %s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	p.Source = path
	return p, nil
}

// Decode parses data in the format named by ext and validates it.
func Decode(ext string, data []byte) (Pack, error) {
	var p Pack
	var err error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &p)
	case ".toml":
		err = toml.Unmarshal(data, &p)
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&p)
	default:
		return Pack{}, fmt.Errorf("%w %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return Pack{}, fmt.Errorf("failed to decode: %w", err)
	}
	if err := p.validate(); err != nil {
		return Pack{}, err
	}
	return p, nil
}

func (p *Pack) validate() error {
	seen := make(map[string]bool, len(p.Rules))
	p.Warnings = nil
	for _, r := range p.Rules {
		if err := rules.Validate(r); err != nil {
			return err
		}
		if seen[r.ID] {
			return fmt.Errorf("%w %s", ErrDuplicateRule, r.ID)
		}
		seen[r.ID] = true
		p.Warnings = append(p.Warnings, rules.Lint(r)...)
	}
	return nil
}
