// Package loader discovers service descriptors in a directory tree and pairs
// them with factories from a [Catalog]. It produces plain entries; turning
// them into registrations is left to the container.
//
// Every *.yaml or *.yml file describes one service named after the file. A
// directory holding service.yaml is a single service named after the
// directory, and nothing else inside it is read:
//
//	services/
//	  config.yaml            -> "config"
//	  cache/service.yaml     -> "cache"
//
// Descriptor keys, all optional:
//
//	implements: [store, kv]  # names; "implement" is accepted too
//	inject: [config]         # dependencies
//	factory: redisStore      # catalog key, defaults to the first name
//	lifecycle: singleton     # or transient
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// ServiceFile is the descriptor file name that turns a directory into a
// service.
const ServiceFile = "service.yaml"

// ErrFactoryNotFound is returned when a descriptor names a factory the
// catalog does not hold.
var ErrFactoryNotFound = errors.New("factory not found in catalog")

// Catalog maps factory keys to factory functions.
type Catalog map[string]any

// Entry is one discovered service.
type Entry struct {
	// Path of the descriptor inside the loaded tree.
	Path string

	// Names the service is registered under; never empty.
	Names []string

	// Inject lists the dependency names.
	Inject []string

	// Lifecycle as written in the descriptor; empty means the default.
	Lifecycle string

	// FactoryKey is the catalog key Factory was taken from.
	FactoryKey string
	Factory    any
}

// names accepts either a single scalar or a sequence.
type names []string

func (n *names) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value != "" {
			*n = names{node.Value}
		}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*n = list
		return nil
	default:
		return fmt.Errorf("line %d: expected a name or a list of names", node.Line)
	}
}

type descriptor struct {
	Implements names  `yaml:"implements"`
	Implement  names  `yaml:"implement"`
	Inject     names  `yaml:"inject"`
	Factory    string `yaml:"factory"`
	Lifecycle  string `yaml:"lifecycle"`
}

// LoadDir loads descriptors below dir.
func LoadDir(dir string, catalog Catalog) ([]Entry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return Load(os.DirFS(dir), catalog)
}

// Load walks fsys and returns one entry per descriptor, in path order.
func Load(fsys fs.FS, catalog Catalog) ([]Entry, error) {
	var entries []Entry

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			descPath := path.Join(p, ServiceFile)
			if _, err := fs.Stat(fsys, descPath); err != nil {
				return nil
			}

			e, err := load(fsys, descPath, path.Base(p), catalog)
			if err != nil {
				return err
			}
			entries = append(entries, e)
			return fs.SkipDir
		}

		if !isYAML(p) {
			return nil
		}

		e, err := load(fsys, p, strings.TrimSuffix(path.Base(p), path.Ext(p)), catalog)
		if err != nil {
			return err
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func load(fsys fs.FS, p, defaultName string, catalog Catalog) (Entry, error) {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return Entry{}, err
	}

	var desc descriptor
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return Entry{}, fmt.Errorf("parsing %s: %w", p, err)
	}

	e := Entry{
		Path:      p,
		Names:     append(desc.Implements, desc.Implement...),
		Inject:    desc.Inject,
		Lifecycle: desc.Lifecycle,
	}

	if len(e.Names) == 0 {
		if defaultName == "." {
			return Entry{}, fmt.Errorf("%s: root descriptor must list implements", p)
		}
		e.Names = []string{defaultName}
	}

	e.FactoryKey = desc.Factory
	if e.FactoryKey == "" {
		e.FactoryKey = e.Names[0]
	}

	factory, ok := catalog[e.FactoryKey]
	if !ok {
		return Entry{}, fmt.Errorf("%s: %w: %q", p, ErrFactoryNotFound, e.FactoryKey)
	}
	e.Factory = factory

	return e, nil
}

func isYAML(p string) bool {
	switch path.Ext(p) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
