package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/dbsearch/internal/ir"
	"github.com/roach88/dbsearch/internal/search"
)

// Redox mirrors search.RedoxFlags in YAML.
type Redox struct {
	Nitrogen   bool `yaml:"nitrogen"`
	Sulphur    bool `yaml:"sulphur"`
	Phosphorus bool `yaml:"phosphorus"`
	Ask        bool `yaml:"ask"`
}

// Config is a search configuration file.
type Config struct {
	// Components are the selected component formulas.
	Components []string `yaml:"components"`
	// Databases are read in order; later ones override earlier ones.
	Databases []string `yaml:"databases"`
	// Catalogue is the path of a catalogue file.
	Catalogue string `yaml:"catalogue,omitempty"`
	// Elements are catalogue entries given inline. They follow the entries
	// of the catalogue file.
	Elements        ir.Catalogue `yaml:"elements,omitempty"`
	Redox           Redox        `yaml:"redox,omitempty"`
	Solids          string       `yaml:"solids,omitempty"`
	ExcludedCouples []string     `yaml:"excluded_couples,omitempty"`
	MaxPasses       int          `yaml:"max_passes,omitempty"`
	// NonInteractive makes every warning proceed without asking.
	NonInteractive bool `yaml:"non_interactive,omitempty"`
	// Store is the SQLite file search runs are saved to.
	Store string `yaml:"store,omitempty"`

	// Dir is the directory relative paths were resolved against.
	Dir string `yaml:"-"`
}

// Load reads, validates and decodes the configuration at path. Relative
// database, catalogue and store paths are made relative to path's
// directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, loadError(path, ErrCodeRead, "%v", err)
	}
	cfg, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	cfg.resolve(filepath.Dir(path))
	return cfg, nil
}

// Parse validates and decodes a configuration document. name is used in
// error messages only; paths are left as written.
func Parse(name string, data []byte) (*Config, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, loadError(name, ErrCodeParse, "%v", err)
	}
	if doc == nil {
		return nil, loadError(name, ErrCodeParse, "empty configuration")
	}
	if errs := checkSchema("#Config", doc); len(errs) > 0 {
		return nil, &LoadError{Path: name, Errors: errs}
	}

	var cfg Config
	if err := decodeStrict(data, &cfg); err != nil {
		return nil, loadError(name, ErrCodeParse, "%v", err)
	}
	return &cfg, nil
}

func (c *Config) resolve(dir string) {
	c.Dir = dir
	for i, db := range c.Databases {
		c.Databases[i] = resolvePath(dir, db)
	}
	if c.Catalogue != "" {
		c.Catalogue = resolvePath(dir, c.Catalogue)
	}
	if c.Store != "" {
		c.Store = resolvePath(dir, c.Store)
	}
}

func resolvePath(dir, p string) string {
	if filepath.IsAbs(p) || dir == "" {
		return p
	}
	return filepath.Join(dir, p)
}

// LoadCatalogue reads a catalogue file: a YAML list of
// {element, formula, name} entries.
func LoadCatalogue(path string) (ir.Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, loadError(path, ErrCodeRead, "%v", err)
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, loadError(path, ErrCodeParse, "%v", err)
	}
	if doc == nil {
		return ir.Catalogue{}, nil
	}
	if errs := checkSchema("#Catalogue", doc); len(errs) > 0 {
		return nil, &LoadError{Path: path, Errors: errs}
	}
	var cat ir.Catalogue
	if err := decodeStrict(data, &cat); err != nil {
		return nil, loadError(path, ErrCodeParse, "%v", err)
	}
	return cat, nil
}

// FullCatalogue returns the catalogue file's entries followed by the
// inline elements.
func (c *Config) FullCatalogue() (ir.Catalogue, error) {
	var cat ir.Catalogue
	if c.Catalogue != "" {
		fromFile, err := LoadCatalogue(c.Catalogue)
		if err != nil {
			return nil, fmt.Errorf("catalogue: %w", err)
		}
		cat = append(cat, fromFile...)
	}
	return append(cat, c.Elements...), nil
}

// Options converts the configuration to search options, loading the
// catalogue.
func (c *Config) Options() (search.Options, error) {
	solids, err := search.ParseSolidMode(c.Solids)
	if err != nil {
		return search.Options{}, loadError(c.source(), ErrCodeOptions, "%v", err)
	}
	cat, err := c.FullCatalogue()
	if err != nil {
		return search.Options{}, err
	}
	if len(cat) == 0 {
		return search.Options{}, loadError(c.source(), ErrCodeCatalogue, "no catalogue entries: set catalogue or elements")
	}
	opts := search.Options{
		Components: append([]string(nil), c.Components...),
		Databases:  append([]string(nil), c.Databases...),
		Catalogue:  cat,
		Redox: search.RedoxFlags{
			Nitrogen:   c.Redox.Nitrogen,
			Sulphur:    c.Redox.Sulphur,
			Phosphorus: c.Redox.Phosphorus,
			Ask:        c.Redox.Ask,
		},
		Solids:          solids,
		ExcludedCouples: append([]string(nil), c.ExcludedCouples...),
		MaxPasses:       c.MaxPasses,
	}
	if err := opts.Validate(); err != nil {
		return search.Options{}, loadError(c.source(), ErrCodeOptions, "%v", err)
	}
	return opts, nil
}

func (c *Config) source() string {
	if c.Dir != "" {
		return c.Dir
	}
	return "config"
}

// decodeStrict decodes a single YAML document, rejecting unknown fields.
func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
