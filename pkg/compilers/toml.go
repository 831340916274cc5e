package compilers

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/ctxrequire/pkg/module"
)

// TOML returns a handler that exports the parsed document as an object
func TOML() module.ExtensionHandler {
	return func(m *module.Module, filename string) error {
		data, err := readFile(filename)
		if err != nil {
			return err
		}

		var parsed map[string]interface{}
		if err := toml.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("%s: TOML parse error: %w", filename, err)
		}
		m.SetExports(parsed)
		return nil
	}
}
