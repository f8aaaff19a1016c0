// Package catalog holds the read-only registry of models the host can serve.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"modelhostd/internal/common/fsutil"
	"modelhostd/internal/config"
	"modelhostd/pkg/types"
)

// Catalog maps model name to metadata. It is immutable after construction.
type Catalog struct {
	models []types.CatalogModel
	byName map[string]int
}

type catalogFile struct {
	Models []types.CatalogModel `json:"models" yaml:"models" toml:"models"`
}

// New builds a catalog, rejecting empty or duplicate names and non-positive
// default context lengths.
func New(models []types.CatalogModel) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]int, len(models))}
	for _, m := range models {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			return nil, fmt.Errorf("catalog entry with empty name")
		}
		if _, dup := c.byName[name]; dup {
			return nil, fmt.Errorf("duplicate catalog entry: %s", name)
		}
		if m.DefaultNCtx < 1 {
			return nil, fmt.Errorf("catalog entry %s: default_n_ctx must be >= 1", name)
		}
		m.Name = name
		c.byName[name] = len(c.models)
		c.models = append(c.models, m)
	}
	return c, nil
}

// Load reads a catalog from a file or from every supported file in a directory.
func Load(path string) (*Catalog, error) {
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("stat catalog: %w", err)
	}
	if fi.IsDir() {
		return LoadDir(p)
	}
	models, err := readFile(p)
	if err != nil {
		return nil, err
	}
	return New(models)
}

// LoadDir merges all *.yaml, *.yml, *.json and *.toml files in dir, in
// filename order. Other files are ignored.
func LoadDir(dir string) (*Catalog, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json", ".toml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	var models []types.CatalogModel
	for _, n := range names {
		ms, err := readFile(filepath.Join(abs, n))
		if err != nil {
			return nil, err
		}
		models = append(models, ms...)
	}
	return New(models)
}

func readFile(path string) ([]types.CatalogModel, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var f catalogFile
	if err := config.Decode(filepath.Ext(path), b, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", filepath.Base(path), err)
	}
	return f.Models, nil
}

// Lookup returns the entry for name.
func (c *Catalog) Lookup(name string) (types.CatalogModel, bool) {
	if c == nil {
		return types.CatalogModel{}, false
	}
	i, ok := c.byName[name]
	if !ok {
		return types.CatalogModel{}, false
	}
	return c.models[i], true
}

// Models returns a copy of all entries in load order.
func (c *Catalog) Models() []types.CatalogModel {
	if c == nil {
		return nil
	}
	out := make([]types.CatalogModel, len(c.models))
	copy(out, c.models)
	return out
}

// Len reports the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.models)
}
