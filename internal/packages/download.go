package packages

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/toolchainkit/toolchainkit/internal/errs"
)

// downloadOnDemand is the third tier of executable lookup (§4.9): a copy
// already fetched into toolsDir is reused; otherwise the caller is told to
// fall back to a system install. original_source's packages/tool_downloader
// module (ConanDownloader, VcpkgDownloader, get_system_conan_path,
// get_system_vcpkg_path) is referenced by conan.py/vcpkg.py but its source is
// not present anywhere in original_source, only its tests, so there is no
// release-manifest shape to port faithfully; fabricating download URLs for
// Conan/vcpkg releases would be worse than being explicit about the gap.
func downloadOnDemand(name, toolsDir string) (string, error) {
	exeName := name
	if runtime.GOOS == "windows" {
		exeName = name + ".exe"
	}
	candidate := filepath.Join(toolsDir, name, exeName)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", &errs.PackageManagerNotFoundError{Manager: name}
}
