package rulepack

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/MRamiBalles/ShiftEngine/server/internal/domain/rules"
	"github.com/MRamiBalles/ShiftEngine/server/internal/platform/logger"
)

// Summary is the listing view of a loaded pack.
type Summary struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Rules       int      `json:"rules"`
	Source      string   `json:"source,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

// Catalogue holds the packs found in one directory.
type Catalogue struct {
	dir    string
	logger *logger.Logger

	mu    sync.RWMutex
	packs map[string]Pack
}

// NewCatalogue creates an empty catalogue over dir. Call Reload to read it.
func NewCatalogue(dir string, log *logger.Logger) *Catalogue {
	if log == nil {
		log = logger.Discard()
	}
	return &Catalogue{dir: dir, logger: log, packs: make(map[string]Pack)}
}

// Open creates a catalogue and loads dir.
func Open(dir string, log *logger.Logger) (*Catalogue, error) {
	c := NewCatalogue(dir, log)
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// FromPacks builds a catalogue from packs already in memory.
func FromPacks(packs ...Pack) (*Catalogue, error) {
	c := NewCatalogue("", nil)
	for _, p := range packs {
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("rule pack %s: %w", p.Name, err)
		}
		if _, dup := c.packs[p.Name]; dup {
			return nil, fmt.Errorf("%w %s", ErrDuplicatePack, p.Name)
		}
		c.packs[p.Name] = p
	}
	return c, nil
}

// Dir returns the watched directory.
func (c *Catalogue) Dir() string {
	return c.dir
}

// Reload reads every pack file in the directory. On error the previous
// packs stay in place.
func (c *Catalogue) Reload() error {
	if c.dir == "" {
		return nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("failed to read rule directory %s: %w", c.dir, err)
	}

	packs := make(map[string]Pack)
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		p, err := LoadFile(filepath.Join(c.dir, e.Name()))
		if err != nil {
			return err
		}
		if prev, dup := packs[p.Name]; dup {
			return fmt.Errorf("%w %s (%s and %s)", ErrDuplicatePack, p.Name, prev.Source, p.Source)
		}
		for _, w := range p.Warnings {
			c.logger.Warnf("rule pack %s: %s", p.Name, w)
		}
		packs[p.Name] = p
	}

	c.mu.Lock()
	c.packs = packs
	c.mu.Unlock()
	c.logger.Infof("Loaded %d rule packs from %s", len(packs), c.dir)
	return nil
}

// Pack returns a copy of the named pack's rules.
func (c *Catalogue) Pack(name string) ([]rules.Rule, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.packs[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(p.Rules), true
}

// Names returns the loaded pack names in order.
func (c *Catalogue) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.packs))
	for name := range c.packs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// List summarizes every loaded pack ordered by name.
func (c *Catalogue) List() []Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Summary, 0, len(c.packs))
	for _, p := range c.packs {
		out = append(out, Summary{
			Name:        p.Name,
			Description: p.Description,
			Rules:       len(p.Rules),
			Source:      p.Source,
			Warnings:    p.Warnings,
		})
	}
	slices.SortFunc(out, func(a, b Summary) int { return cmp.Compare(a.Name, b.Name) })
	return out
}
