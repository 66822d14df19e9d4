package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/toolchainkit/toolchainkit/internal/errs"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "toolchainkit.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalConfig = `
version: 1
toolchains:
  - name: main
    type: clang
    version: "18.1.8"
`

func TestParse_Minimal(t *testing.T) {
	path := writeConfig(t, minimalConfig)
	cfg, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cfg.Toolchains) != 1 || cfg.Toolchains[0].Name != "main" {
		t.Errorf("unexpected toolchains: %+v", cfg.Toolchains)
	}
	if cfg.Build.Backend != "ninja" {
		t.Errorf("Backend default = %q, want ninja", cfg.Build.Backend)
	}
	if len(cfg.Modules) == 0 || cfg.Modules[0] != "core" {
		t.Errorf("Modules default = %v", cfg.Modules)
	}
}

func TestParse_MissingFileReturnsConfigError(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "nope.yaml"))
	var ce *errs.ConfigError
	if !isConfigError(err, &ce) {
		t.Fatalf("expected *errs.ConfigError, got %T (%v)", err, err)
	}
}

func TestParse_EmptyFile(t *testing.T) {
	path := writeConfig(t, "")
	_, err := Parse(path)
	if err == nil {
		t.Fatal("expected error for empty config")
	}
}

func TestParse_UnsupportedVersion(t *testing.T) {
	path := writeConfig(t, "version: 2\ntoolchains:\n  - name: a\n    type: gcc\n    version: \"1.0\"\n")
	_, err := Parse(path)
	if err == nil {
		t.Fatal("expected error for unsupported version")
	}
}

func TestParse_NoToolchains(t *testing.T) {
	path := writeConfig(t, "version: 1\ntoolchains: []\n")
	_, err := Parse(path)
	if err == nil {
		t.Fatal("expected error when no toolchains defined")
	}
}

func TestParse_DuplicateToolchainName(t *testing.T) {
	path := writeConfig(t, `
version: 1
toolchains:
  - name: dup
    type: clang
    version: "18.0.0"
  - name: dup
    type: gcc
    version: "13.0.0"
`)
	_, err := Parse(path)
	if err == nil {
		t.Fatal("expected error for duplicate toolchain name")
	}
}

func TestParse_DefaultsReferencesUndefinedToolchain(t *testing.T) {
	path := writeConfig(t, `
version: 1
toolchains:
  - name: main
    type: clang
    version: "18.0.0"
defaults:
  linux: missing
`)
	_, err := Parse(path)
	if err == nil {
		t.Fatal("expected error for defaults referencing undefined toolchain")
	}
}

func TestParse_TargetReferencesUndefinedToolchain(t *testing.T) {
	path := writeConfig(t, `
version: 1
toolchains:
  - name: main
    type: clang
    version: "18.0.0"
targets:
  - os: android
    arch: arm64
    toolchain: missing
`)
	_, err := Parse(path)
	if err == nil {
		t.Fatal("expected error for target referencing undefined toolchain")
	}
}

func TestParse_InvalidBuildFlagsKey(t *testing.T) {
	path := writeConfig(t, `
version: 1
toolchains:
  - name: main
    type: clang
    version: "18.0.0"
build:
  flags:
    bogus_key: "-Wall"
`)
	_, err := Parse(path)
	if err == nil {
		t.Fatal("expected error for invalid build.flags key")
	}
}

func TestParse_LegacyToolchainDirLocalPath(t *testing.T) {
	path := writeConfig(t, `
version: 1
toolchains:
  - name: main
    type: clang
    version: "18.0.0"
toolchain_dir: ./vendor/toolchains
`)
	cfg, err := Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ToolchainCache.Location != "local" || cfg.ToolchainCache.Path != "./vendor/toolchains" {
		t.Errorf("ToolchainCache = %+v", cfg.ToolchainCache)
	}
}

func TestParse_LegacyCacheDirCustomPath(t *testing.T) {
	path := writeConfig(t, `
version: 1
toolchains:
  - name: main
    type: clang
    version: "18.0.0"
cache_dir: /opt/toolchains
`)
	cfg, err := Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ToolchainCache.Location != "custom" || cfg.ToolchainCache.Path != "/opt/toolchains" {
		t.Errorf("ToolchainCache = %+v", cfg.ToolchainCache)
	}
}

func TestParse_DefaultsToSharedCache(t *testing.T) {
	path := writeConfig(t, minimalConfig)
	cfg, err := Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ToolchainCache.Location != "shared" {
		t.Errorf("ToolchainCache.Location = %q, want shared", cfg.ToolchainCache.Location)
	}
}

func isConfigError(err error, target **errs.ConfigError) bool {
	ce, ok := err.(*errs.ConfigError)
	if !ok {
		return false
	}
	*target = ce
	return true
}
