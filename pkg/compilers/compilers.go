package compilers

import (
	"fmt"
	"os"

	"github.com/GriffinCanCode/ctxrequire/pkg/module"
)

// MaxFileSize limits the files a compiler will read
const MaxFileSize = 10 * 1024 * 1024

// Defaults returns a fresh handler table for text, YAML and TOML files
func Defaults() map[string]module.ExtensionHandler {
	return map[string]module.ExtensionHandler{
		".txt":  Text(),
		".yaml": YAML(),
		".yml":  YAML(),
		".toml": TOML(),
	}
}

func readFile(filename string) ([]byte, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return nil, err
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%s: file exceeds maximum size of %d bytes", filename, MaxFileSize)
	}
	return os.ReadFile(filename)
}
