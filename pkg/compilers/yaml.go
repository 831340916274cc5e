package compilers

import (
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/GriffinCanCode/ctxrequire/pkg/module"
)

// YAML returns a handler that exports the parsed document
func YAML() module.ExtensionHandler {
	return func(m *module.Module, filename string) error {
		data, err := readFile(filename)
		if err != nil {
			return err
		}

		var parsed interface{}
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("%s: YAML parse error: %w", filename, err)
		}
		m.SetExports(parsed)
		return nil
	}
}
