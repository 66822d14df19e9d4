package config

import (
	"testing"

	"github.com/toolchainkit/toolchainkit/internal/platform"
)

func TestValidate_MSVCOnLinuxIsError(t *testing.T) {
	cfg := &ToolchainKitConfig{
		Version: 1,
		Toolchains: []ToolchainConfig{
			{Name: "main", Type: "msvc", Version: "19.0"},
		},
		Modules: []string{"core", "cmake"},
	}
	result := Validate(cfg, platform.Info{OS: "linux", Arch: "x64"})
	if !result.HasErrors() {
		t.Fatal("expected an error for msvc on linux")
	}
}

func TestValidate_InvalidVersionFormat(t *testing.T) {
	cfg := &ToolchainKitConfig{
		Version: 1,
		Toolchains: []ToolchainConfig{
			{Name: "main", Type: "clang", Version: "not-a-version"},
		},
		Modules: []string{"core", "cmake"},
	}
	result := Validate(cfg, platform.Info{OS: "linux", Arch: "x64"})
	if !result.HasErrors() {
		t.Fatal("expected an error for invalid version format")
	}
}

func TestValidate_MissingRequiredModule(t *testing.T) {
	cfg := &ToolchainKitConfig{
		Version: 1,
		Toolchains: []ToolchainConfig{
			{Name: "main", Type: "clang", Version: "18.1.8"},
		},
		Modules: []string{"core"},
	}
	result := Validate(cfg, platform.Info{OS: "linux", Arch: "x64"})
	if !result.HasErrors() {
		t.Fatal("expected an error for missing required module 'cmake'")
	}
}

func TestValidate_IOSTargetRequiresMacOSHost(t *testing.T) {
	cfg := &ToolchainKitConfig{
		Version: 1,
		Toolchains: []ToolchainConfig{
			{Name: "main", Type: "clang", Version: "18.1.8"},
		},
		Targets: []CrossCompilationTarget{{OS: "ios", Arch: "arm64"}},
		Modules: []string{"core", "cmake"},
	}
	result := Validate(cfg, platform.Info{OS: "linux", Arch: "x64"})
	if !result.HasErrors() {
		t.Fatal("expected an error: iOS target on non-macOS host")
	}
}

func TestValidate_ValidConfigHasNoErrors(t *testing.T) {
	cfg := &ToolchainKitConfig{
		Version: 1,
		Toolchains: []ToolchainConfig{
			{Name: "main", Type: "clang", Version: "18.1.8"},
		},
		Defaults: map[string]string{"linux": "main"},
		Modules:  []string{"core", "cmake"},
	}
	result := Validate(cfg, platform.Info{OS: "linux", Arch: "x64"})
	if result.HasErrors() {
		t.Fatalf("expected no errors, got: %+v", result.Issues)
	}
}
