// Package compat enforces platform x compiler x stdlib x generator
// compatibility rules against the capability matrix (§4.6). Modeled on
// original_source/toolchainkit/config/validation.py's platform-compatibility
// checks and original_source/toolchainkit/core/compatibility.py.
package compat

import (
	"strings"

	"github.com/toolchainkit/toolchainkit/internal/errs"
	"github.com/toolchainkit/toolchainkit/internal/platform"
)

// Mode distinguishes a strict bootstrap check (issues become errors) from an
// advisory one (issues become warnings).
type Mode int

const (
	// Advisory reports CompatibilityWarning for compiler/platform and
	// generator/platform mismatches. Stdlib mismatches are always warnings.
	Advisory Mode = iota
	// Bootstrap reports CompatibilityError for the same mismatches — used
	// right before a toolchain is actually provisioned.
	Bootstrap
)

// NormalizeCompiler maps a config-facing compiler name to its canonical
// capability-matrix name. clang and llvm are the same toolchain family; the
// matrix only knows "llvm".
func NormalizeCompiler(compiler string) string {
	c := strings.ToLower(compiler)
	if c == "clang" {
		return "llvm"
	}
	return c
}

// ValidateCompiler checks whether compiler is legal on platformString,
// returning a non-nil error when it is not: *errs.CompatibilityError in
// Bootstrap mode, *errs.CompatibilityWarning in Advisory mode.
func ValidateCompiler(mode Mode, platformString, compiler string) error {
	normalized := NormalizeCompiler(compiler)

	if platform.SupportsCompiler(platformString, normalized) {
		return nil
	}

	osName := strings.SplitN(platformString, "-", 2)[0]

	switch {
	case normalized == "msvc" && osName != "windows":
		return newErr(mode, platformString, compiler, "MSVC toolchain only works on Windows", "Use clang/llvm or gcc for "+osName)
	case normalized == "gcc" && osName == "windows":
		return newErr(mode, platformString, compiler, "GCC is not supported on Windows in toolchainkit", "Use LLVM/Clang or MSVC instead. MinGW support may be added in future releases.")
	case normalized == "gcc" && osName == "macos":
		return newErr(mode, platformString, compiler, "GCC is not officially supported on macOS in toolchainkit", "Use LLVM/Clang (Apple Clang) instead.")
	default:
		return newErr(mode, platformString, compiler, "compiler type is not supported on this platform", "check the platform capability matrix for supported compilers")
	}
}

func newErr(mode Mode, platformString, compiler, reason, suggestion string) error {
	if mode == Bootstrap {
		return &errs.CompatibilityError{Platform: platformString, Compiler: compiler, Reason: reason, Suggestion: suggestion}
	}
	return &errs.CompatibilityWarning{Platform: platformString, Detail: reason + " (" + suggestion + ")"}
}

// ValidateStdlib reports a non-fatal mismatch between a compiler and a
// requested standard library. It never blocks configuration — only the
// compiler/platform check in ValidateCompiler does.
func ValidateStdlib(compiler, stdlib string) *errs.CompatibilityWarning {
	if stdlib == "" {
		return nil
	}
	normalized := NormalizeCompiler(compiler)

	switch normalized {
	case "gcc":
		if stdlib != "libstdc++" {
			return &errs.CompatibilityWarning{Platform: "", Detail: "GCC typically uses libstdc++, not " + stdlib}
		}
	case "llvm":
		if stdlib != "libc++" && stdlib != "libstdc++" {
			return &errs.CompatibilityWarning{Platform: "", Detail: "Clang typically uses libc++ or libstdc++, not " + stdlib}
		}
	case "msvc":
		if stdlib != "msvc" {
			return &errs.CompatibilityWarning{Platform: "", Detail: "MSVC uses its own standard library, not " + stdlib}
		}
	}
	return nil
}

// ValidateGenerator checks that a CMake generator name is legal for the
// given platform string.
func ValidateGenerator(mode Mode, platformString, generator string) error {
	g := strings.ToLower(generator)
	osName := strings.SplitN(platformString, "-", 2)[0]

	requiresWindows := strings.Contains(g, "visual studio") || g == "msbuild"
	requiresMacOS := strings.Contains(g, "xcode")

	switch {
	case requiresWindows && osName != "windows":
		return newErr(mode, platformString, generator, "generator requires Windows", "use Ninja or Make on "+osName)
	case requiresMacOS && osName != "macos":
		return newErr(mode, platformString, generator, "generator requires macOS", "use Ninja or Make on "+osName)
	}
	return nil
}

// ToolchainRef is the minimal shape of a resolved toolchain reference, used
// by ResolveToolchain.
type ToolchainRef struct {
	Name string
	Type string
}

// ResolveToolchain picks the effective toolchain for platformOS by
// inspecting, in order: an explicit dict-shaped override, an explicit
// string name inferring its type from the toolchains list, or the
// defaults[platformOS] entry resolved against toolchains.
func ResolveToolchain(explicit *ToolchainRef, explicitName string, toolchains []ToolchainRef, defaults map[string]string, platformOS string) *ToolchainRef {
	if explicit != nil {
		return explicit
	}
	if explicitName != "" {
		for _, tc := range toolchains {
			if tc.Name == explicitName {
				return &tc
			}
		}
		return &ToolchainRef{Name: explicitName}
	}
	if name, ok := defaults[platformOS]; ok {
		for _, tc := range toolchains {
			if tc.Name == name {
				return &tc
			}
		}
	}
	return nil
}
