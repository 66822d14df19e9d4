package orchestrator

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/toolchainkit/toolchainkit/internal/errs"
)

// ensureNinja returns the path to a ninja executable, checking PATH first
// and then toolsDir (<project>/.toolchainkit/tools/ninja/). It never
// downloads: the real download source (a NinjaDownloader analogous to
// packages.downloadOnDemand's Conan/vcpkg counterpart) is not available to
// build from, so this mirrors the same honest on-demand-download slot —
// present a clear error instead of fabricating a release URL scheme.
func ensureNinja(lookPath func(string) (string, error), toolsDir string) (string, error) {
	exeName := "ninja"
	if runtime.GOOS == "windows" {
		exeName = "ninja.exe"
	}

	if path, err := lookPath(exeName); err == nil {
		return path, nil
	}

	candidate := filepath.Join(toolsDir, "ninja", exeName)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}

	return "", &errs.BackendNotAvailableError{Backend: "ninja"}
}
