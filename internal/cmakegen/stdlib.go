// Package cmakegen generates the CMake toolchain file ToolchainKit writes to
// <project>/.toolchainkit/cmake/toolchain.cmake (§4.8), plus the standard
// library configs (§4.8.1) and build backend detector (§4.8.2) that feed it.
// Modeled on original_source/toolchainkit/cmake/stdlib.py and
// cmake/backends.py; the generator itself (toolchain_generator.py) is not
// present in original_source, so its shape follows spec.md §4.8 directly.
package cmakegen

import (
	"fmt"
	"os"
	"path/filepath"
)

// StdlibConfig is the common contract every standard library configuration
// satisfies: compile flags, link flags, and CMake variables to set.
type StdlibConfig interface {
	CompileFlags() []string
	LinkFlags() []string
	CMakeVariables() map[string]string
}

// LibCxxConfig configures LLVM's libc++, the default on macOS and usable
// with Clang everywhere else.
type LibCxxConfig struct {
	InstallPath string
	ABIVersion  string
}

func (c LibCxxConfig) CompileFlags() []string {
	flags := []string{"-stdlib=libc++"}
	if c.InstallPath != "" {
		include := filepath.Join(c.InstallPath, "include", "c++", "v1")
		if dirExists(include) {
			flags = append(flags, "-isystem"+include)
		}
	}
	return flags
}

func (c LibCxxConfig) LinkFlags() []string {
	flags := []string{"-stdlib=libc++", "-lc++", "-lc++abi"}
	if c.InstallPath != "" {
		lib := filepath.Join(c.InstallPath, "lib")
		if dirExists(lib) {
			flags = append(flags, "-L"+lib, "-Wl,-rpath,"+lib)
		}
	}
	return flags
}

func (c LibCxxConfig) CMakeVariables() map[string]string {
	vars := map[string]string{}
	if c.InstallPath != "" {
		vars["LIBCXX_INSTALL_PREFIX"] = c.InstallPath
	}
	if c.ABIVersion != "" {
		vars["LIBCXX_ABI_VERSION"] = c.ABIVersion
	}
	return vars
}

// LibStdCxxConfig configures GNU libstdc++, GCC's default and usable with
// Clang on Linux.
type LibStdCxxConfig struct {
	GCCPath string
}

func (c LibStdCxxConfig) CompileFlags() []string {
	if c.GCCPath == "" {
		return nil
	}
	return []string{"--gcc-toolchain=" + c.GCCPath}
}

func (c LibStdCxxConfig) LinkFlags() []string {
	if c.GCCPath == "" {
		return nil
	}
	lib := filepath.Join(c.GCCPath, "lib64")
	if !dirExists(lib) {
		lib = filepath.Join(c.GCCPath, "lib")
	}
	if !dirExists(lib) {
		return nil
	}
	return []string{"-L" + lib, "-Wl,-rpath," + lib}
}

func (c LibStdCxxConfig) CMakeVariables() map[string]string {
	if c.GCCPath == "" {
		return nil
	}
	return map[string]string{"LIBSTDCXX_GCC_PATH": c.GCCPath}
}

// MSVCStdLibConfig is a no-op present for symmetry: MSVC's standard library
// links automatically and needs no explicit flags.
type MSVCStdLibConfig struct{}

func (MSVCStdLibConfig) CompileFlags() []string            { return nil }
func (MSVCStdLibConfig) LinkFlags() []string               { return nil }
func (MSVCStdLibConfig) CMakeVariables() map[string]string { return nil }

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ResolveStdlibConfig builds the StdlibConfig naming stdlib, rooted at
// toolchainPath; each config checks for its include/lib directories under
// that path when its flags are requested. No other location is searched.
func ResolveStdlibConfig(stdlib, toolchainPath string) (StdlibConfig, error) {
	switch stdlib {
	case "libc++":
		return LibCxxConfig{InstallPath: toolchainPath}, nil
	case "libstdc++":
		return LibStdCxxConfig{GCCPath: toolchainPath}, nil
	case "msvc":
		return MSVCStdLibConfig{}, nil
	default:
		return nil, fmt.Errorf("unknown standard library %q", stdlib)
	}
}
