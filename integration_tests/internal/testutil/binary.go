package testutil

import (
	"os"
	"path/filepath"
)

// GetBinaryPath returns the path to the cgaprov binary for integration tests,
// or "" if it has not been built. It checks, in order:
// 1. Current directory (./cgaprov)
// 2. Parent directory (../cgaprov), where `go build -o cgaprov .` puts it
// 3. bin directory (../bin/cgaprov)
func GetBinaryPath() string {
	candidates := []string{
		"cgaprov",
		filepath.Join("..", "cgaprov"),
		filepath.Join("..", "bin", "cgaprov"),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			abs, err := filepath.Abs(c)
			if err != nil {
				return c
			}
			return abs
		}
	}
	return ""
}
