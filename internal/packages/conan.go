package packages

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/toolchainkit/toolchainkit/internal/errs"
	"github.com/toolchainkit/toolchainkit/internal/fsutil"
)

var conanOSNames = map[string]string{
	"linux": "Linux", "macos": "Macos", "darwin": "Macos", "windows": "Windows",
	"android": "Android", "ios": "iOS",
}

var conanArchNames = map[string]string{
	"x86_64": "x86_64", "x64": "x86_64", "amd64": "x86_64",
	"arm64": "armv8", "aarch64": "armv8",
	"x86": "x86", "i686": "x86",
	"arm": "armv7", "armv7": "armv7",
	"riscv64": "riscv64",
}

var conanCompilerNames = map[string]string{
	"llvm": "clang", "clang": "clang", "gcc": "gcc", "msvc": "msvc", "apple-clang": "apple-clang",
}

// ConanManager integrates Conan 2.x (§4.9): profile generation from a
// provisioned toolchain, dependency installation, and CMake chaining.
type ConanManager struct {
	ProjectRoot     string
	UseSystemConan  bool
	CustomConanPath string
	ConanHome       string

	conanExe string
}

// NewConanManager builds a ConanManager defaulting to system Conan.
func NewConanManager(projectRoot string) *ConanManager {
	return &ConanManager{ProjectRoot: projectRoot, UseSystemConan: true}
}

func (c *ConanManager) GetName() string { return "conan" }

// Detect reports whether projectRoot declares Conan dependencies.
func (c *ConanManager) Detect(projectRoot string) bool {
	if _, err := os.Stat(filepath.Join(projectRoot, "conanfile.txt")); err == nil {
		return true
	}
	_, err := os.Stat(filepath.Join(projectRoot, "conanfile.py"))
	return err == nil
}

// GenerateProfile writes .toolchainkit/conan/profiles/default for toolchain
// on platform. On Windows it deliberately writes an msvc-flavoured profile
// independent of the project's actual toolchain, to keep prebuilt Conan
// packages ABI-compatible; isDebug controls runtime_type in that case.
func (c *ConanManager) GenerateProfile(toolchain ToolchainRef, platform Platform, isDebug bool) (string, error) {
	profileDir := filepath.Join(c.ProjectRoot, ".toolchainkit", "conan", "profiles")
	profilePath := filepath.Join(profileDir, "default")

	var content string
	if strings.EqualFold(platform.OS, "windows") {
		runtimeType := "Release"
		if isDebug {
			runtimeType = "Debug"
		}
		content = fmt.Sprintf(`[settings]
os=Windows
arch=%s
compiler=msvc
compiler.version=193
compiler.runtime=dynamic
compiler.runtime_type=%s
compiler.cppstd=17
build_type=Release
`, conanArch(platform.Architecture), runtimeType)
	} else {
		compiler := conanCompiler(toolchain.Type)
		libcxx := "libstdc++11"
		if compiler == "clang" || compiler == "apple-clang" {
			libcxx = "libc++"
		}
		content = fmt.Sprintf(`[settings]
os=%s
arch=%s
compiler=%s
compiler.version=%s
compiler.libcxx=%s
compiler.cppstd=17
build_type=Release
`, conanOS(platform.OS), conanArch(platform.Architecture), compiler, majorVersion(toolchain.Version), libcxx)
	}

	if err := fsutil.AtomicWrite(profilePath, []byte(content), 0o644); err != nil {
		return "", &errs.PackageManagerError{Manager: "conan", Err: err}
	}
	return profilePath, nil
}

// GetConanExecutable resolves the Conan binary by custom path first. With
// UseSystemConan it then looks only on PATH, and a miss is an error; without
// it, Conan is downloaded on demand into the global tools directory.
func (c *ConanManager) GetConanExecutable() (string, error) {
	if c.conanExe != "" {
		return c.conanExe, nil
	}

	if c.CustomConanPath != "" {
		if _, err := os.Stat(c.CustomConanPath); err != nil {
			return "", &errs.PackageManagerNotFoundError{Manager: "conan"}
		}
		c.conanExe = c.CustomConanPath
		return c.conanExe, nil
	}

	if c.UseSystemConan {
		if path, err := lookPath("conan"); err == nil {
			c.conanExe = path
			return c.conanExe, nil
		}
		return "", &errs.PackageManagerNotFoundError{Manager: "conan"}
	}

	layout, err := fsutil.NewGlobalLayout()
	if err != nil {
		return "", &errs.PackageManagerError{Manager: "conan", Err: err}
	}
	path, err := downloadOnDemand("conan", layout.Tools)
	if err != nil {
		return "", err
	}
	c.conanExe = path
	return c.conanExe, nil
}

// GetEnvironment returns the environment conan install runs under. CONAN_HOME
// is set explicitly when configured, or implicitly next to the global tools
// directory when using a downloaded (not system) Conan.
func (c *ConanManager) GetEnvironment() (map[string]string, error) {
	env := map[string]string{}
	switch {
	case c.ConanHome != "":
		env["CONAN_HOME"] = c.ConanHome
	case !c.UseSystemConan:
		layout, err := fsutil.NewGlobalLayout()
		if err != nil {
			return nil, &errs.PackageManagerError{Manager: "conan", Err: err}
		}
		home := filepath.Join(layout.Root, "conan_home")
		if err := os.MkdirAll(home, 0o755); err != nil {
			return nil, &errs.PackageManagerError{Manager: "conan", Err: err}
		}
		env["CONAN_HOME"] = home
	}
	return env, nil
}

// InstallDependencies runs `conan install` against opts (build_type,
// profile_path, generator, user_toolchain, env as map[string]string).
func (c *ConanManager) InstallDependencies(opts map[string]any) error {
	conanExe, err := c.GetConanExecutable()
	if err != nil {
		return err
	}
	env, err := c.GetEnvironment()
	if err != nil {
		return err
	}
	if extra, ok := opts["env"].(map[string]string); ok {
		for k, v := range extra {
			env[k] = v
		}
	}

	buildType, _ := opts["build_type"].(string)
	if buildType == "" {
		buildType = "Release"
	}
	buildDir := filepath.Join(c.ProjectRoot, "build")
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return &errs.PackageManagerError{Manager: "conan", Err: err}
	}

	args := []string{
		"install", c.ProjectRoot,
		"--build=missing",
		"--output-folder", buildDir,
		"-s", "build_type=" + buildType,
		"-c", "tools.cmake.cmake_layout:build_folder=",
	}
	if profilePath, ok := opts["profile_path"].(string); ok && profilePath != "" {
		args = append(args, "--profile:all", profilePath)
	}
	if generator, ok := opts["generator"].(string); ok && generator != "" {
		args = append(args, "-c", "tools.cmake.cmaketoolchain:generator="+generator)
	}
	if userToolchain, ok := opts["user_toolchain"].(string); ok && userToolchain != "" {
		forward := filepath.ToSlash(userToolchain)
		args = append(args, "-c", fmt.Sprintf("tools.cmake.cmaketoolchain:user_toolchain=['%s']", forward))
	}

	cmd := exec.Command(conanExe, args...)
	cmd.Dir = c.ProjectRoot
	cmd.Env = mergeEnv(env)
	out, err := cmd.CombinedOutput()
	if err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return &errs.PackageManagerInstallError{Manager: "conan", ExitCode: exitCode, Stderr: string(out)}
	}
	return nil
}

// GenerateToolchainIntegration writes conan-integration.cmake alongside
// toolchainFile, including the Conan-generated toolchain file when present.
func (c *ConanManager) GenerateToolchainIntegration(toolchainFile string) (string, error) {
	integrationFile := filepath.Join(filepath.Dir(toolchainFile), "conan-integration.cmake")
	content := `# Conan Integration
# This file is auto-generated by toolchainkit. Do not modify manually.

set(CONAN_TOOLCHAIN_FILE "${CMAKE_CURRENT_LIST_DIR}/../../build/conan_toolchain.cmake")

if(EXISTS "${CONAN_TOOLCHAIN_FILE}")
    include("${CONAN_TOOLCHAIN_FILE}")
    message(STATUS "Conan: Using Conan-generated toolchain")
else()
    message(WARNING "Conan: toolchain file not found at ${CONAN_TOOLCHAIN_FILE}")
    message(WARNING "Conan: Run 'conan install' to generate toolchain file")
endif()
`
	if err := fsutil.AtomicWrite(integrationFile, []byte(content), 0o644); err != nil {
		return "", &errs.PackageManagerError{Manager: "conan", Err: err}
	}
	return integrationFile, nil
}

func conanOS(os string) string {
	if v, ok := conanOSNames[strings.ToLower(os)]; ok {
		return v
	}
	return "Linux"
}

func conanArch(arch string) string {
	if v, ok := conanArchNames[strings.ToLower(arch)]; ok {
		return v
	}
	return "x86_64"
}

func conanCompiler(compilerType string) string {
	if v, ok := conanCompilerNames[strings.ToLower(compilerType)]; ok {
		return v
	}
	return "gcc"
}

func mergeEnv(overrides map[string]string) []string {
	base := os.Environ()
	seen := make(map[string]bool, len(overrides))
	for k, v := range overrides {
		base = append(base, k+"="+v)
		seen[k] = true
	}
	return base
}
