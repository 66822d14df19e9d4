package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/toolchainkit/toolchainkit/internal/errs"
)

const schemaVersion = 1

var versionPattern = regexp.MustCompile(`^\d+\.\d+(\.\d+)?$`)

// Parse reads and structurally validates toolchainkit.yaml at path. It
// returns *errs.ConfigError for a missing file, empty file, invalid YAML,
// unsupported version, missing required fields, or a dangling reference
// (defaults/targets naming an undeclared toolchain, a duplicate toolchain
// name, an unrecognized build.flags key).
func Parse(path string) (*ToolchainKitConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errs.ConfigError{Path: path, Reason: "configuration file not found"}
		}
		return nil, &errs.ConfigError{Path: path, Reason: "failed to read configuration file", Err: err}
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, &errs.ConfigError{Path: path, Reason: "configuration file is empty"}
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &errs.ConfigError{Path: path, Reason: "invalid YAML syntax", Err: err}
	}

	var cfg ToolchainKitConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &errs.ConfigError{Path: path, Reason: "invalid configuration structure", Err: err}
	}

	if err := structuralValidate(&cfg, raw, path); err != nil {
		return nil, err
	}

	cfg.ToolchainCache = resolveToolchainCache(raw)
	if len(cfg.Modules) == 0 {
		cfg.Modules = []string{"core", "cmake"}
	}
	if cfg.Build.Backend == "" {
		cfg.Build.Backend = "ninja"
	}
	if cfg.Build.Parallel == "" {
		cfg.Build.Parallel = "auto"
	}

	return &cfg, nil
}

func structuralValidate(cfg *ToolchainKitConfig, raw map[string]any, path string) error {
	if _, ok := raw["version"]; !ok {
		return &errs.ConfigError{Path: path, Reason: "missing required field: version"}
	}
	if cfg.Version != schemaVersion {
		return &errs.ConfigError{Path: path, Reason: fmt.Sprintf("unsupported version: %d (expected %d)", cfg.Version, schemaVersion)}
	}

	if len(cfg.Toolchains) == 0 {
		return &errs.ConfigError{Path: path, Reason: "at least one toolchain must be defined"}
	}

	seen := map[string]bool{}
	for _, tc := range cfg.Toolchains {
		if tc.Name == "" || tc.Type == "" || tc.Version == "" {
			return &errs.ConfigError{Path: path, Reason: "toolchain missing required field: name, type, and version are all mandatory"}
		}
		if !validToolchainTypes[tc.Type] {
			return &errs.ConfigError{Path: path, Reason: fmt.Sprintf("invalid toolchain type: %s (expected clang, gcc, msvc, or zig)", tc.Type)}
		}
		if seen[tc.Name] {
			return &errs.ConfigError{Path: path, Reason: "duplicate toolchain name: " + tc.Name}
		}
		seen[tc.Name] = true
	}

	for plat, name := range cfg.Defaults {
		if !seen[name] {
			return &errs.ConfigError{Path: path, Reason: fmt.Sprintf("defaults.%s references undefined toolchain: %s", plat, name)}
		}
	}

	for _, target := range cfg.Targets {
		if target.OS == "" || target.Arch == "" {
			return &errs.ConfigError{Path: path, Reason: "cross-compilation target must specify 'os' and 'arch'"}
		}
		if target.Toolchain != "" && !seen[target.Toolchain] {
			return &errs.ConfigError{Path: path, Reason: fmt.Sprintf("targets.%s-%s references undefined toolchain: %s", target.OS, target.Arch, target.Toolchain)}
		}
	}

	if cfg.Build.Backend != "" && !validBuildBackends[cfg.Build.Backend] {
		return &errs.ConfigError{Path: path, Reason: fmt.Sprintf("invalid build backend: %s (expected ninja, make, msbuild, or xcode)", cfg.Build.Backend)}
	}

	for key := range cfg.Build.Flags {
		if !validBuildFlagKeys[key] {
			return &errs.ConfigError{Path: path, Reason: fmt.Sprintf("invalid build.flags key: %s (expected cxx, c, linker, exe_linker, or shared_linker)", key)}
		}
	}

	if cfg.Packages != nil && cfg.Packages.Manager != "" && !validPackageManagers[cfg.Packages.Manager] {
		return &errs.ConfigError{Path: path, Reason: fmt.Sprintf("invalid package manager: %s (expected conan, vcpkg, or cpm)", cfg.Packages.Manager)}
	}

	return nil
}

// resolveToolchainCache applies the explicit toolchain_cache section if
// present, else falls back to the legacy toolchain_dir / cache_dir fields
// (a relative "./..." path is local, anything else is custom), else
// defaults to the shared global cache.
func resolveToolchainCache(raw map[string]any) ToolchainCacheConfig {
	if tc, ok := raw["toolchain_cache"].(map[string]any); ok {
		cfg := ToolchainCacheConfig{Location: "shared"}
		if loc, ok := tc["location"].(string); ok && loc != "" {
			cfg.Location = loc
		}
		if p, ok := tc["path"].(string); ok {
			cfg.Path = p
		}
		return cfg
	}

	for _, legacyKey := range []string{"toolchain_dir", "cache_dir"} {
		if v, ok := raw[legacyKey].(string); ok && v != "" {
			if strings.HasPrefix(v, ".") {
				return ToolchainCacheConfig{Location: "local", Path: v}
			}
			return ToolchainCacheConfig{Location: "custom", Path: v}
		}
	}

	return ToolchainCacheConfig{Location: "shared"}
}

// IsValidVersion reports whether a toolchain version string matches
// X.Y or X.Y.Z.
func IsValidVersion(version string) bool {
	return versionPattern.MatchString(version)
}
