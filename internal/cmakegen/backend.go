package cmakegen

import (
	"os/exec"
	"path/filepath"
	"runtime"
)

// Backend is one CMake generator choice: Ninja, Make, MSBuild, or Xcode.
// There is no NMake backend.
type Backend interface {
	CMakeGenerator() string
	BuildArgs(parallelJobs string) []string
	CMakeVariables() map[string]string
	IsAvailable(customPath string) bool
}

type ninjaBackend struct{}

func (ninjaBackend) CMakeGenerator() string { return "Ninja" }
func (ninjaBackend) BuildArgs(jobs string) []string {
	if jobs == "" {
		return nil
	}
	return []string{"-j", jobs}
}
func (ninjaBackend) CMakeVariables() map[string]string {
	return map[string]string{"CMAKE_EXPORT_COMPILE_COMMANDS": "ON"}
}
func (ninjaBackend) IsAvailable(customPath string) bool { return toolAvailable("ninja", customPath) }

type makeBackend struct{}

func (makeBackend) CMakeGenerator() string { return "Unix Makefiles" }
func (makeBackend) BuildArgs(jobs string) []string {
	if jobs == "" {
		return nil
	}
	return []string{"-j", jobs}
}
func (makeBackend) CMakeVariables() map[string]string  { return nil }
func (makeBackend) IsAvailable(customPath string) bool { return toolAvailable("make", customPath) }

type msbuildBackend struct{}

func (msbuildBackend) CMakeGenerator() string           { return "Visual Studio 17 2022" }
func (msbuildBackend) BuildArgs(jobs string) []string    { return []string{"/m"} }
func (msbuildBackend) CMakeVariables() map[string]string { return nil }
func (msbuildBackend) IsAvailable(customPath string) bool {
	return runtime.GOOS == "windows" && toolAvailable("msbuild", customPath)
}

type xcodeBackend struct{}

func (xcodeBackend) CMakeGenerator() string             { return "Xcode" }
func (xcodeBackend) BuildArgs(jobs string) []string      { return []string{"-parallelizeTargets"} }
func (xcodeBackend) CMakeVariables() map[string]string   { return nil }
func (xcodeBackend) IsAvailable(customPath string) bool {
	return runtime.GOOS == "darwin" && toolAvailable("xcodebuild", customPath)
}

func toolAvailable(name, customPath string) bool {
	if customPath != "" {
		if _, err := exec.LookPath(filepath.Join(customPath, name)); err == nil {
			return true
		}
	}
	_, err := exec.LookPath(name)
	return err == nil
}

// DetectBackend picks a build backend by the §4.8.2 preference order:
// Ninja > platform-native (MSBuild on Windows, Xcode on macOS) > Make.
// customPath, when set, is checked before falling back to PATH (a
// downloaded tool directory, e.g. .toolchainkit/tools/).
func DetectBackend(customPath string) (Backend, bool) {
	candidates := []Backend{ninjaBackend{}}
	switch runtime.GOOS {
	case "windows":
		candidates = append(candidates, msbuildBackend{})
	case "darwin":
		candidates = append(candidates, xcodeBackend{})
	}
	candidates = append(candidates, makeBackend{})

	for _, b := range candidates {
		if b.IsAvailable(customPath) {
			return b, true
		}
	}
	return nil, false
}
