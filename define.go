package grove

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ARTM2000/grove/contract"
)

// Definition decides what callers receive for a ready instance. Wrap may
// return the instance itself, a wrapper around it, or an error that fails
// the resolution.
type Definition interface {
	Wrap(name string, instance any) (any, error)
}

// DefinitionFunc adapts a function to [Definition].
type DefinitionFunc func(name string, instance any) (any, error)

// Wrap calls f.
func (f DefinitionFunc) Wrap(name string, instance any) (any, error) {
	return f(name, instance)
}

func (c *container) Define(name string, def Definition) error {
	if name == "" {
		return errors.New("definition name cannot be empty")
	}
	if def == nil {
		return fmt.Errorf("definition %q cannot be nil", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.definitions[name] = def
	c.debugLog("definition registered", zap.String("service", name))
	return nil
}

func (c *container) DefineAll(dir string) error {
	contracts, err := contract.LoadDir(dir)
	if err != nil {
		return err
	}

	for _, ct := range contracts {
		if err := c.Define(ct.Name, ct); err != nil {
			return err
		}
	}

	return nil
}
