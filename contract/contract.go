// Package contract checks that service instances expose a required set of
// capabilities before they are handed to callers.
//
// A contract is either a list of method names, built with [Methods] or read
// from YAML with [Load], or a Go interface, built with [Of]:
//
//	c.Define("store", contract.Of[Store]("store"))
//
// Contract files hold one contract each:
//
//	# contracts/store.yaml
//	name: store          # defaults to the file name without extension
//	methods: [Get, Put]
package contract

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"reflect"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotImplemented is returned when an instance lacks methods a contract
// requires.
var ErrNotImplemented = errors.New("contract not implemented")

// Contract describes the methods an instance must expose.
type Contract struct {
	Name    string
	Methods []string

	iface reflect.Type
}

// Methods returns a contract requiring the named exported methods.
// Repeated names are listed once.
func Methods(name string, methods ...string) *Contract {
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		if !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	return &Contract{Name: name, Methods: out}
}

// Of returns a contract requiring assignability to the interface T. It
// panics if T is not an interface type.
func Of[T any](name string) *Contract {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Interface {
		panic(fmt.Sprintf("contract.Of: %s is not an interface", t))
	}

	methods := make([]string, t.NumMethod())
	for i := range methods {
		methods[i] = t.Method(i).Name
	}

	return &Contract{Name: name, Methods: methods, iface: t}
}

// Check reports whether instance satisfies the contract.
func (c *Contract) Check(instance any) error {
	if instance == nil {
		return fmt.Errorf("%w: %s: instance is nil", ErrNotImplemented, c.Name)
	}

	t := reflect.TypeOf(instance)
	if c.iface != nil && t.Implements(c.iface) {
		return nil
	}

	var missing []string
	for _, m := range c.Methods {
		if _, ok := t.MethodByName(m); !ok {
			missing = append(missing, m)
		}
	}

	if c.iface != nil && len(missing) == 0 {
		// Every name is present but a signature differs.
		return fmt.Errorf("%w: %s: %s does not implement %s", ErrNotImplemented, c.Name, t, c.iface)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s: %s is missing %s", ErrNotImplemented, c.Name, t, strings.Join(missing, ", "))
	}

	return nil
}

// Wrap checks instance and returns it unchanged if it satisfies the
// contract.
func (c *Contract) Wrap(name string, instance any) (any, error) {
	if err := c.Check(instance); err != nil {
		return nil, fmt.Errorf("service %q: %w", name, err)
	}
	return instance, nil
}

type file struct {
	Name    string   `yaml:"name"`
	Methods []string `yaml:"methods"`
}

// LoadDir reads contract files below dir.
func LoadDir(dir string) ([]*Contract, error) {
	return Load(os.DirFS(dir))
}

// Load reads every *.yaml and *.yml file in fsys as a contract. Contracts
// are returned in path order.
func Load(fsys fs.FS) ([]*Contract, error) {
	var out []*Contract

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(p) {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}

		var f file
		if err := yaml.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("parsing contract %s: %w", p, err)
		}

		name := f.Name
		if name == "" {
			name = strings.TrimSuffix(path.Base(p), path.Ext(p))
		}
		if len(f.Methods) == 0 {
			return fmt.Errorf("contract %s: no methods listed", p)
		}

		out = append(out, Methods(name, f.Methods...))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func isYAML(p string) bool {
	switch path.Ext(p) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
