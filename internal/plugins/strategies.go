package plugins

// ClangStrategy implements CompilerStrategy for LLVM/Clang, the compiler
// supported on every platform in the capability matrix.
type ClangStrategy struct{}

func (ClangStrategy) GetFlags(cfg map[string]any) []string {
	flags := []string{"-Wall", "-Wextra"}
	if stdlib, ok := cfg["stdlib"].(string); ok && stdlib != "" {
		flags = append(flags, "-stdlib="+stdlib)
	}
	return flags
}

func (ClangStrategy) GetPreferredGenerator(platformString string) string {
	return "Ninja"
}

func (ClangStrategy) GetDefaultStdlib(platformString string) string {
	if len(platformString) >= 5 && platformString[:5] == "macos" {
		return "libc++"
	}
	return "libstdc++"
}

// GCCStrategy implements CompilerStrategy for GCC, legal on Linux only.
type GCCStrategy struct{}

func (GCCStrategy) GetFlags(cfg map[string]any) []string {
	return []string{"-Wall", "-Wextra"}
}

func (GCCStrategy) GetPreferredGenerator(platformString string) string {
	return "Ninja"
}

func (GCCStrategy) GetDefaultStdlib(platformString string) string {
	return "libstdc++"
}

// MSVCStrategy implements CompilerStrategy for MSVC, legal on Windows only.
type MSVCStrategy struct{}

func (MSVCStrategy) GetFlags(cfg map[string]any) []string {
	return []string{"/W4", "/EHsc"}
}

func (MSVCStrategy) GetPreferredGenerator(platformString string) string {
	return "Visual Studio 17 2022"
}

func (MSVCStrategy) GetDefaultStdlib(platformString string) string {
	return "msvc"
}

// RegisterBuiltins registers the standard compiler strategies the core
// always ships with. External plugins register additional strategies
// (e.g. zig) on top of this before orchestration begins (§4.7).
func RegisterBuiltins(r *Registry) {
	_ = r.RegisterCompilerStrategy("clang", ClangStrategy{})
	_ = r.RegisterCompilerStrategy("llvm", ClangStrategy{})
	_ = r.RegisterCompilerStrategy("gcc", GCCStrategy{})
	_ = r.RegisterCompilerStrategy("msvc", MSVCStrategy{})
}
