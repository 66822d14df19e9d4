package cmakegen

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/toolchainkit/toolchainkit/internal/fsutil"
	"github.com/toolchainkit/toolchainkit/internal/plugins"
)

// CrossCompileTarget carries the cross-compilation fields a generated
// toolchain file sets when present (§4.8 step 4).
type CrossCompileTarget struct {
	SystemName string
	Processor  string
	Sysroot    string
}

// ToolchainFileConfig is everything Generate needs to emit one CMake
// toolchain file.
type ToolchainFileConfig struct {
	ToolchainID        string
	ToolchainPath      string // install dir; empty means "use the system compiler on PATH"
	CompilerType       string // clang, gcc, msvc, zig
	Strategy           plugins.CompilerStrategy
	Stdlib             StdlibConfig
	Linker             string
	CrossCompile       *CrossCompileTarget
	ConanToolchainFile string // present and existing -> included first
	ProjectRoot        string // used to probe for .clang-tidy / .clang-format
}

// compilerExecutableNames maps compiler type to its {c, cxx} executable
// names, used to set CMAKE_C/CXX_COMPILER. ar and ranlib are looked up in
// the same bin/ directory under their own fixed names.
var compilerExecutableNames = map[string][2]string{
	"clang": {"clang", "clang++"},
	"gcc":   {"gcc", "g++"},
	"msvc":  {"cl.exe", "cl.exe"},
	"zig":   {"zig cc", "zig c++"},
}

// Generate writes the CMake toolchain file described by cfg to destPath
// (the orchestrator passes <project>/.toolchainkit/cmake/toolchain.cmake)
// and returns that path.
func Generate(cfg ToolchainFileConfig, destPath string) (string, error) {
	var b strings.Builder

	b.WriteString("# Generated by toolchainkit. Do not edit by hand.\n")
	if cfg.ToolchainID != "" {
		fmt.Fprintf(&b, "# toolchain: %s\n", cfg.ToolchainID)
	}
	b.WriteString("\n")

	// Step 1: include the Conan toolchain file first, if it exists.
	if cfg.ConanToolchainFile != "" {
		fmt.Fprintf(&b, "if(EXISTS \"%s\")\n", cmakePath(cfg.ConanToolchainFile))
		fmt.Fprintf(&b, "  include(\"%s\")\n", cmakePath(cfg.ConanToolchainFile))
		b.WriteString("endif()\n\n")
	}

	// Step 2: compiler, linker, ar, ranlib from the provisioned toolchain.
	writeCompilerSection(&b, cfg)

	// Step 3: strategy + stdlib flags.
	writeFlagsSection(&b, cfg)

	// Step 4: cross compilation.
	if cfg.CrossCompile != nil {
		b.WriteString("\n# Cross compilation\n")
		if cfg.CrossCompile.SystemName != "" {
			fmt.Fprintf(&b, "set(CMAKE_SYSTEM_NAME %s)\n", cfg.CrossCompile.SystemName)
		}
		if cfg.CrossCompile.Processor != "" {
			fmt.Fprintf(&b, "set(CMAKE_SYSTEM_PROCESSOR %s)\n", cfg.CrossCompile.Processor)
		}
		if cfg.CrossCompile.Sysroot != "" {
			fmt.Fprintf(&b, "set(CMAKE_SYSROOT %s)\n", cmakePath(cfg.CrossCompile.Sysroot))
		}
	}

	// Step 5: clang-tidy / clang-format, conditional on both project config
	// files and the tools existing in the toolchain's bin/.
	writeToolingSection(&b, cfg)

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", err
	}
	if err := fsutil.AtomicWrite(destPath, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return destPath, nil
}

func writeCompilerSection(b *strings.Builder, cfg ToolchainFileConfig) {
	names, known := compilerExecutableNames[cfg.CompilerType]
	if !known {
		names = [2]string{cfg.CompilerType, cfg.CompilerType}
	}
	cCompiler, cxxCompiler := names[0], names[1]

	if cfg.ToolchainPath != "" {
		binDir := filepath.Join(cfg.ToolchainPath, "bin")
		cCompiler = filepath.Join(binDir, names[0])
		cxxCompiler = filepath.Join(binDir, names[1])
	}

	b.WriteString("# Compiler\n")
	fmt.Fprintf(b, "set(CMAKE_C_COMPILER \"%s\")\n", cmakePath(cCompiler))
	fmt.Fprintf(b, "set(CMAKE_CXX_COMPILER \"%s\")\n", cmakePath(cxxCompiler))

	if cfg.Linker != "" {
		fmt.Fprintf(b, "set(CMAKE_LINKER \"%s\")\n", cmakePath(cfg.Linker))
	}
	if cfg.ToolchainPath != "" {
		binDir := filepath.Join(cfg.ToolchainPath, "bin")
		if ar := findSibling(binDir, "ar", "llvm-ar"); ar != "" {
			fmt.Fprintf(b, "set(CMAKE_AR \"%s\")\n", cmakePath(ar))
		}
		if ranlib := findSibling(binDir, "ranlib", "llvm-ranlib"); ranlib != "" {
			fmt.Fprintf(b, "set(CMAKE_RANLIB \"%s\")\n", cmakePath(ranlib))
		}
	}
	b.WriteString("\n")
}

func findSibling(binDir string, names ...string) string {
	for _, name := range names {
		candidate := filepath.Join(binDir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func writeFlagsSection(b *strings.Builder, cfg ToolchainFileConfig) {
	var compileFlags, linkFlags []string

	if cfg.Strategy != nil {
		compileFlags = append(compileFlags, cfg.Strategy.GetFlags(nil)...)
	}
	if cfg.Stdlib != nil {
		compileFlags = append(compileFlags, cfg.Stdlib.CompileFlags()...)
		linkFlags = append(linkFlags, cfg.Stdlib.LinkFlags()...)

		vars := cfg.Stdlib.CMakeVariables()
		if len(vars) > 0 {
			b.WriteString("# Standard library CMake variables\n")
			for _, name := range sortedKeys(vars) {
				fmt.Fprintf(b, "set(%s \"%s\")\n", name, vars[name])
			}
			b.WriteString("\n")
		}
	}

	if len(compileFlags) > 0 {
		fmt.Fprintf(b, "string(APPEND CMAKE_CXX_FLAGS_INIT \" %s\")\n", strings.Join(compileFlags, " "))
		fmt.Fprintf(b, "string(APPEND CMAKE_C_FLAGS_INIT \" %s\")\n", strings.Join(compileFlags, " "))
	}
	if len(linkFlags) > 0 {
		joined := strings.Join(linkFlags, " ")
		fmt.Fprintf(b, "string(APPEND CMAKE_EXE_LINKER_FLAGS_INIT \" %s\")\n", joined)
		fmt.Fprintf(b, "string(APPEND CMAKE_SHARED_LINKER_FLAGS_INIT \" %s\")\n", joined)
	}
}

func writeToolingSection(b *strings.Builder, cfg ToolchainFileConfig) {
	if cfg.ProjectRoot == "" || cfg.ToolchainPath == "" {
		return
	}
	binDir := filepath.Join(cfg.ToolchainPath, "bin")

	if fileExists(filepath.Join(cfg.ProjectRoot, ".clang-tidy")) {
		if tidy := findSibling(binDir, "clang-tidy"); tidy != "" {
			fmt.Fprintf(b, "\nset(CMAKE_CXX_CLANG_TIDY \"%s\")\n", cmakePath(tidy))
		}
	}
	if fileExists(filepath.Join(cfg.ProjectRoot, ".clang-format")) {
		if findSibling(binDir, "clang-format") != "" {
			b.WriteString("\n# clang-format available; format target wired by the build system, not CMake itself.\n")
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// cmakePath normalizes a filesystem path to forward slashes, which CMake
// accepts on every platform and which avoids backslash-escaping headaches
// in the generated file.
func cmakePath(path string) string {
	return filepath.ToSlash(path)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
