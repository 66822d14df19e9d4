package config

import (
	"fmt"
	"os/exec"

	"github.com/toolchainkit/toolchainkit/internal/compat"
	"github.com/toolchainkit/toolchainkit/internal/errs"
	"github.com/toolchainkit/toolchainkit/internal/platform"
)

// Validate runs the semantic checks parser.Parse doesn't (platform
// compatibility, tool-on-PATH advisories, module consistency), producing a
// ValidationResult rather than failing fast. Modeled on
// original_source/toolchainkit/config/validation.py's ConfigValidator.
func Validate(cfg *ToolchainKitConfig, info platform.Info) *errs.ValidationResult {
	result := &errs.ValidationResult{}

	validateToolchains(cfg, info, result)
	validateDefaults(cfg, info, result)
	validateBuildConfig(cfg, result)
	validatePackages(cfg, result)
	validateTargets(cfg, info, result)
	validateModules(cfg, result)

	return result
}

func validateToolchains(cfg *ToolchainKitConfig, info platform.Info, result *errs.ValidationResult) {
	platformString := info.PlatformString()

	for _, tc := range cfg.Toolchains {
		if err := compat.ValidateCompiler(compat.Bootstrap, platformString, tc.Type); err != nil {
			if ce, ok := err.(*errs.CompatibilityError); ok {
				result.Add(errs.LevelError, "toolchains."+tc.Name, ce.Reason, ce.Suggestion)
			}
		}

		if tc.Version != "latest" && !IsValidVersion(tc.Version) {
			result.Add(errs.LevelError, "toolchains."+tc.Name+".version",
				fmt.Sprintf("invalid version format: %s", tc.Version),
				"use semantic version format (e.g., 18.1.8)")
		}

		if tc.Stdlib != "" {
			if w := compat.ValidateStdlib(tc.Type, tc.Stdlib); w != nil {
				result.Add(errs.LevelWarning, "toolchains."+tc.Name+".stdlib", w.Detail, "adjust stdlib to match the compiler's default")
			}
		}
	}
}

func validateDefaults(cfg *ToolchainKitConfig, info platform.Info, result *errs.ValidationResult) {
	if _, ok := cfg.Defaults[info.OS]; !ok && len(cfg.Toolchains) > 1 {
		suggestion := ""
		if len(cfg.Toolchains) > 0 {
			suggestion = fmt.Sprintf("add \"defaults.%s: %s\" to specify", info.OS, cfg.Toolchains[0].Name)
		}
		result.Add(errs.LevelInfo, "defaults", fmt.Sprintf("no default toolchain for %s", info.OS), suggestion)
	}
}

func validateBuildConfig(cfg *ToolchainKitConfig, result *errs.ValidationResult) {
	build := cfg.Build

	switch build.Backend {
	case "ninja":
		if !isToolAvailable("ninja") {
			result.Add(errs.LevelWarning, "build.backend", "ninja not found on PATH", "install ninja or bootstrap will download it")
		}
	case "make":
		if !isToolAvailable("make") {
			result.Add(errs.LevelWarning, "build.backend", "make not found on PATH", "install make or change backend to ninja")
		}
	}

	if build.Caching.Enabled {
		switch {
		case build.Caching.Tool == "":
			result.Add(errs.LevelError, "build.caching", "caching enabled but no tool specified", "set build.caching.tool to sccache or ccache")
		case build.Caching.Tool != "sccache" && build.Caching.Tool != "ccache":
			result.Add(errs.LevelError, "build.caching.tool", "unsupported caching tool: "+build.Caching.Tool, "use sccache or ccache")
		case !isToolAvailable(build.Caching.Tool):
			result.Add(errs.LevelWarning, "build.caching.tool", build.Caching.Tool+" not found on PATH", "install "+build.Caching.Tool+" or bootstrap will download it")
		}
	}
}

func validatePackages(cfg *ToolchainKitConfig, result *errs.ValidationResult) {
	if cfg.Packages == nil {
		return
	}
	switch cfg.Packages.Manager {
	case "conan":
		if cfg.Packages.Conan == nil {
			result.Add(errs.LevelInfo, "packages.conan", "using default Conan configuration", "customize with packages.conan section if needed")
		}
	case "vcpkg":
		if cfg.Packages.Vcpkg == nil {
			result.Add(errs.LevelInfo, "packages.vcpkg", "using default vcpkg configuration", "customize with packages.vcpkg section if needed")
		}
	}
}

func validateTargets(cfg *ToolchainKitConfig, info platform.Info, result *errs.ValidationResult) {
	for _, target := range cfg.Targets {
		field := fmt.Sprintf("targets.%s-%s", target.OS, target.Arch)

		if target.OS == "android" {
			switch {
			case target.APILevel == 0:
				result.Add(errs.LevelWarning, field, "android target without api_level", "specify api_level (e.g., 29 for Android 10)")
			case target.APILevel < 21:
				result.Add(errs.LevelWarning, field+".api_level", fmt.Sprintf("android API %d is very old", target.APILevel), "consider API 21+ for modern features")
			}
		}

		if target.OS == "ios" {
			if info.OS != "macos" {
				result.Add(errs.LevelError, field, "iOS targets require macOS host", "remove iOS target or build on macOS")
			}
			if target.SDK == "" {
				result.Add(errs.LevelInfo, field, "iOS target without SDK specified", "specify sdk (e.g., iphoneos or iphonesimulator)")
			}
		}
	}
}

func validateModules(cfg *ToolchainKitConfig, result *errs.ValidationResult) {
	required := []string{"core", "cmake"}
	has := map[string]bool{}
	for _, m := range cfg.Modules {
		has[m] = true
	}
	for _, m := range required {
		if !has[m] {
			result.Add(errs.LevelError, "modules", "required module missing: "+m, "add "+m+" to modules list")
		}
	}

	if has["caching"] && !cfg.Build.Caching.Enabled {
		result.Add(errs.LevelWarning, "modules", "caching module enabled but build.caching.enabled is false", "either enable caching or remove module")
	}
	if has["packages"] && cfg.Packages == nil {
		result.Add(errs.LevelWarning, "modules", "packages module enabled but no package manager configured", "configure a package manager or remove module")
	}
}

func isToolAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
