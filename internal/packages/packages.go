// Package packages implements the Conan and vcpkg integrations described in
// §4.9: detecting which package manager a project uses, generating the
// manager-specific profile or triplet, installing dependencies, and
// emitting the CMake glue file that chains the manager's own toolchain file
// with toolchainkit's. Modeled on original_source/toolchainkit/packages/
// conan.py and packages/vcpkg.py; both satisfy plugins.PackageManager.
package packages

import (
	"os/exec"
	"strings"
)

// Platform is the OS/architecture pair a package manager maps to its own
// naming scheme. Kept local to this package rather than shared with
// internal/compat because the mapping tables below are package-manager
// vocabulary, not a general platform model.
type Platform struct {
	OS           string
	Architecture string
}

// ToolchainRef is the subset of a provisioned toolchain a package manager
// profile needs: which compiler, which version, which standard library.
type ToolchainRef struct {
	Type    string
	Version string
	Stdlib  string
}

// majorVersion returns the leading dot-separated component of a version
// string, e.g. "18.1.8" -> "18".
func majorVersion(version string) string {
	if i := strings.IndexByte(version, '.'); i >= 0 {
		return version[:i]
	}
	return version
}

// lookPath wraps exec.LookPath so tests can see through it without shelling
// out; kept as a var for that reason.
var lookPath = exec.LookPath
