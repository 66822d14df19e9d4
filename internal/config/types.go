// Package config parses toolchainkit.yaml, validates it against a JSON
// schema, and runs the semantic checks that decide whether a configuration
// is usable on the detected platform (§3, §4.6 inputs). Modeled on
// original_source/toolchainkit/config/parser.py and validation.py.
package config

// ToolchainConfig describes one entry in toolchains: — a named compiler
// distribution request.
type ToolchainConfig struct {
	Name             string            `yaml:"name"`
	Type             string            `yaml:"type"`
	Version          string            `yaml:"version"`
	Stdlib           string            `yaml:"stdlib,omitempty"`
	Source           string            `yaml:"source,omitempty"`
	RequireInstalled bool              `yaml:"require_installed,omitempty"`
	CustomPaths      map[string]string `yaml:"custom_paths,omitempty"`
}

// CachingConfig is build.caching.
type CachingConfig struct {
	Enabled   bool           `yaml:"enabled,omitempty"`
	Tool      string         `yaml:"tool,omitempty"`
	Directory string         `yaml:"directory,omitempty"`
	Remote    map[string]any `yaml:"remote,omitempty"`
}

// BuildConfig is the build: section.
type BuildConfig struct {
	Backend  string            `yaml:"backend,omitempty"`
	Parallel string            `yaml:"parallel,omitempty"`
	Caching  CachingConfig     `yaml:"caching,omitempty"`
	Flags    map[string]string `yaml:"flags,omitempty"`
}

// PackageManagerConfig is the packages: section.
type PackageManagerConfig struct {
	Manager    string         `yaml:"manager,omitempty"`
	Conan      map[string]any `yaml:"conan,omitempty"`
	Vcpkg      map[string]any `yaml:"vcpkg,omitempty"`
	UseSystem  bool           `yaml:"use_system,omitempty"`
	CustomPath string         `yaml:"custom_path,omitempty"`
	ConanHome  string         `yaml:"conan_home,omitempty"`
	VcpkgRoot  string         `yaml:"vcpkg_root,omitempty"`
}

// CrossCompilationTarget is one entry in targets:.
type CrossCompilationTarget struct {
	OS        string `yaml:"os"`
	Arch      string `yaml:"arch"`
	Toolchain string `yaml:"toolchain,omitempty"`
	APILevel  int    `yaml:"api_level,omitempty"`
	SDK       string `yaml:"sdk,omitempty"`
}

// ToolchainCacheConfig is the toolchain_cache: section (also populated from
// the legacy toolchain_dir / cache_dir fields).
type ToolchainCacheConfig struct {
	Location string `yaml:"location,omitempty"`
	Path     string `yaml:"path,omitempty"`
}

// ToolchainKitConfig is the full parsed shape of toolchainkit.yaml.
type ToolchainKitConfig struct {
	Version        int                      `yaml:"version"`
	Project        string                   `yaml:"project,omitempty"`
	Toolchains     []ToolchainConfig        `yaml:"toolchains"`
	Defaults       map[string]string        `yaml:"defaults,omitempty"`
	ToolchainCache ToolchainCacheConfig      `yaml:"toolchain_cache,omitempty"`
	Packages       *PackageManagerConfig    `yaml:"packages,omitempty"`
	Build          BuildConfig              `yaml:"build,omitempty"`
	Targets        []CrossCompilationTarget `yaml:"targets,omitempty"`
	Modules        []string                 `yaml:"modules,omitempty"`
}

var validToolchainTypes = map[string]bool{"clang": true, "gcc": true, "msvc": true, "zig": true}
var validBuildBackends = map[string]bool{"ninja": true, "make": true, "msbuild": true, "xcode": true}
var validPackageManagers = map[string]bool{"conan": true, "vcpkg": true, "cpm": true}
var validBuildFlagKeys = map[string]bool{"cxx": true, "c": true, "linker": true, "exe_linker": true, "shared_linker": true}
