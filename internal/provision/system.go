package provision

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/toolchainkit/toolchainkit/internal/cache"
	"github.com/toolchainkit/toolchainkit/internal/plugins"
)

// SystemToolchainProvider discovers a compiler already installed on the
// host instead of downloading one — the only way MSVC is ever provided,
// since there is no freely redistributable MSVC archive to fetch. Grounded
// on original_source/toolchainkit/toolchain/system_detector.py's
// PathSearcher, StandardLocationSearcher, and RegistrySearcher, merged into
// one provider since all three feed the same CanProvide/ProvideToolchain
// contract.
type SystemToolchainProvider struct {
	registry *cache.Registry
}

// NewSystemToolchainProvider builds a provider that registers discoveries
// into registry so subsequent requests hit the cache fast path.
func NewSystemToolchainProvider(registry *cache.Registry) *SystemToolchainProvider {
	return &SystemToolchainProvider{registry: registry}
}

var versionPattern = regexp.MustCompile(`\b(\d+\.\d+\.\d+(?:\.\d+)?)\b`)
var versionPatternShort = regexp.MustCompile(`\b(\d+\.\d+)\b`)

// compilerExecutables maps toolchain type to the C++ compiler executable
// PathSearcher looks for.
var compilerExecutables = map[string]string{
	"llvm": "clang++",
	"gcc":  "g++",
	"msvc": "cl.exe",
}

func (s *SystemToolchainProvider) CanProvide(toolchainType, version string) bool {
	_, ok := compilerExecutables[toolchainType]
	if !ok {
		return false
	}
	_, found := s.find(toolchainType)
	return found
}

func (s *SystemToolchainProvider) GetToolchainID(toolchainType, version, platformString string) string {
	if found, ok := s.find(toolchainType); ok {
		return fmt.Sprintf("%s-%s-system", toolchainType, found.version)
	}
	return fmt.Sprintf("%s-unknown-system", toolchainType)
}

func (s *SystemToolchainProvider) ProvideToolchain(toolchainType, version, platformString string, progress func(plugins.ProgressFrame)) (string, error) {
	found, ok := s.find(toolchainType)
	if !ok {
		return "", fmt.Errorf("no system %s installation found", toolchainType)
	}

	id := fmt.Sprintf("%s-%s-system", toolchainType, found.version)
	if progress != nil {
		progress(plugins.ProgressFrame{Phase: "complete", Percentage: 100})
	}

	if entry, err := s.registry.GetToolchainInfo(id); err == nil && entry != nil {
		return entry.InstallPath, nil
	}

	now := time.Now()
	if err := s.registry.Register(&cache.CachedToolchain{
		ToolchainID:      id,
		InstallPath:      found.installDir,
		Version:          found.version,
		FirstInstalledAt: now,
		LastAccessedAt:   now,
	}); err != nil {
		return "", err
	}
	return found.installDir, nil
}

type systemToolchain struct {
	version    string
	installDir string
}

// find searches PATH first, then the platform's standard install
// locations, returning the first compiler of toolchainType it discovers.
func (s *SystemToolchainProvider) find(toolchainType string) (systemToolchain, bool) {
	exeName := compilerExecutables[toolchainType]
	if path, err := exec.LookPath(exeName); err == nil {
		if tc, ok := probeCompiler(path); ok {
			return tc, true
		}
	}
	for _, dir := range standardLocations(toolchainType) {
		candidates := []string{filepath.Join(dir, "bin", exeName)}
		if toolchainType == "msvc" {
			candidates = append(candidates,
				filepath.Join(dir, "bin", "Hostx64", "x64", exeName),
				filepath.Join(dir, "bin", "Hostx86", "x86", exeName),
			)
		}
		for _, entry := range candidates {
			if _, err := os.Stat(entry); err != nil {
				continue
			}
			if tc, ok := probeCompiler(entry); ok {
				return tc, true
			}
		}
	}
	return systemToolchain{}, false
}

// probeCompiler runs "<path> --version" and parses the version number out
// of its output, the way CompilerVersionExtractor.extract_version does.
func probeCompiler(path string) (systemToolchain, bool) {
	out, _ := exec.Command(path, "--version").CombinedOutput()
	text := string(out)

	version := ""
	if m := versionPattern.FindStringSubmatch(text); m != nil {
		version = m[1]
	} else if m := versionPatternShort.FindStringSubmatch(text); m != nil {
		version = m[1]
	}
	if version == "" {
		return systemToolchain{}, false
	}

	installDir := filepath.Dir(path)
	if filepath.Base(installDir) == "bin" || filepath.Base(installDir) == "Bin" {
		installDir = filepath.Dir(installDir)
	}
	return systemToolchain{version: version, installDir: installDir}, true
}

// standardLocations returns the platform-specific directories worth
// searching for toolchainType, mirroring StandardLocationSearcher's table.
func standardLocations(toolchainType string) []string {
	switch runtime.GOOS {
	case "windows":
		if toolchainType == "msvc" {
			return vswhereInstallDirs()
		}
		return []string{`C:\Program Files\LLVM`, `C:\mingw64`, `C:\msys64\mingw64`}
	case "darwin":
		return []string{"/usr/local/opt/llvm", "/opt/homebrew/opt/llvm", "/opt/homebrew/opt/gcc"}
	default:
		locations := []string{"/opt/gcc", "/opt/llvm"}
		for i := 20; i > 10; i-- {
			locations = append(locations, fmt.Sprintf("/usr/lib/llvm-%d", i))
		}
		return append(locations, "/usr/lib/gcc", "/usr/local/gcc")
	}
}

// vswhereInstallDirs shells out to vswhere.exe (installed alongside every
// Visual Studio instance since 2017) to find VC/Tools/MSVC roots,
// mirroring RegistrySearcher.
func vswhereInstallDirs() []string {
	vswhere := `C:\Program Files (x86)\Microsoft Visual Studio\Installer\vswhere.exe`
	if _, err := os.Stat(vswhere); err != nil {
		return nil
	}
	out, err := exec.Command(vswhere,
		"-products", "*",
		"-requires", "Microsoft.VisualStudio.Component.VC.Tools.x86.x64",
		"-property", "installationPath",
	).Output()
	if err != nil {
		return nil
	}

	var dirs []string
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		vcTools := filepath.Join(line, "VC", "Tools", "MSVC")
		entries, err := os.ReadDir(vcTools)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				dirs = append(dirs, filepath.Join(vcTools, e.Name()))
			}
		}
	}
	return dirs
}
