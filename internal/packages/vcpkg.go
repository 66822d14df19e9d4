package packages

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/toolchainkit/toolchainkit/internal/errs"
	"github.com/toolchainkit/toolchainkit/internal/fsutil"
)

var vcpkgArchNames = map[string]string{
	"x86_64": "x64", "x64": "x64", "amd64": "x64",
	"arm64": "arm64", "aarch64": "arm64",
	"x86": "x86", "i686": "x86",
	"arm": "arm", "armv7": "arm",
}

var vcpkgOSNames = map[string]string{
	"linux": "linux", "macos": "osx", "darwin": "osx", "windows": "windows",
	"android": "android", "ios": "ios",
}

// VcpkgManager integrates Microsoft's vcpkg (§4.9): triplet selection,
// manifest-mode installs, and toolchain chaining.
type VcpkgManager struct {
	ProjectRoot     string
	UseSystemVcpkg  bool
	CustomVcpkgPath string

	root string
}

// NewVcpkgManager builds a VcpkgManager defaulting to an auto-discovered
// system vcpkg installation.
func NewVcpkgManager(projectRoot string) *VcpkgManager {
	return &VcpkgManager{ProjectRoot: projectRoot, UseSystemVcpkg: true}
}

func (v *VcpkgManager) GetName() string { return "vcpkg" }

// Detect reports whether projectRoot declares a vcpkg manifest.
func (v *VcpkgManager) Detect(projectRoot string) bool {
	_, err := os.Stat(filepath.Join(projectRoot, "vcpkg.json"))
	return err == nil
}

// Root resolves the vcpkg installation directory by custom path first. With
// UseSystemVcpkg it then tries VCPKG_ROOT, PATH and common locations, and a
// miss is an error; without it, only an existing copy under the global tools
// directory is used. vcpkg is never downloaded here.
func (v *VcpkgManager) Root() (string, error) {
	if v.root != "" {
		return v.root, nil
	}

	if v.CustomVcpkgPath != "" {
		if _, err := os.Stat(v.CustomVcpkgPath); err != nil {
			return "", &errs.PackageManagerNotFoundError{Manager: "vcpkg"}
		}
		v.root = v.CustomVcpkgPath
		return v.root, nil
	}

	if v.UseSystemVcpkg {
		if root := os.Getenv("VCPKG_ROOT"); root != "" {
			if _, err := os.Stat(root); err == nil {
				v.root = root
				return v.root, nil
			}
		}
		if path, err := lookPath(vcpkgExeName()); err == nil {
			v.root = filepath.Dir(path)
			return v.root, nil
		}
		for _, candidate := range commonVcpkgLocations() {
			if vcpkgExecutableExists(candidate) {
				v.root = candidate
				return v.root, nil
			}
		}
		return "", &errs.PackageManagerNotFoundError{Manager: "vcpkg"}
	}

	layout, err := fsutil.NewGlobalLayout()
	if err != nil {
		return "", &errs.PackageManagerError{Manager: "vcpkg", Err: err}
	}
	root := filepath.Join(layout.Tools, "vcpkg")
	if vcpkgExecutableExists(root) {
		v.root = root
		return v.root, nil
	}
	return "", &errs.PackageManagerNotFoundError{Manager: "vcpkg"}
}

func commonVcpkgLocations() []string {
	locations := []string{}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(home, "vcpkg"))
	}
	if runtime.GOOS == "windows" {
		locations = append(locations, `C:\vcpkg`)
	} else {
		locations = append(locations, "/usr/local/vcpkg", "/opt/vcpkg")
	}
	return locations
}

func vcpkgExeName() string {
	if runtime.GOOS == "windows" {
		return "vcpkg.exe"
	}
	return "vcpkg"
}

func vcpkgExecutableExists(root string) bool {
	_, err := os.Stat(filepath.Join(root, vcpkgExeName()))
	return err == nil
}

// GetTriplet maps platform to vcpkg's "<arch>-<os>" triplet naming.
func (v *VcpkgManager) GetTriplet(platform Platform) string {
	arch, ok := vcpkgArchNames[strings.ToLower(platform.Architecture)]
	if !ok {
		arch = "x64"
	}
	osName, ok := vcpkgOSNames[strings.ToLower(platform.OS)]
	if !ok {
		osName = "linux"
	}
	return fmt.Sprintf("%s-%s", arch, osName)
}

// InstallDependencies runs `vcpkg install` in manifest mode. opts["platform"]
// must be a Platform (falls back to the empty Platform, which maps to
// x64-linux).
func (v *VcpkgManager) InstallDependencies(opts map[string]any) error {
	root, err := v.Root()
	if err != nil {
		return err
	}
	vcpkgExe := filepath.Join(root, vcpkgExeName())
	if _, err := os.Stat(vcpkgExe); err != nil {
		return &errs.PackageManagerNotFoundError{Manager: "vcpkg"}
	}

	platform, _ := opts["platform"].(Platform)
	triplet := v.GetTriplet(platform)

	cmd := exec.Command(vcpkgExe, "install", "--triplet", triplet, "--x-manifest-root", v.ProjectRoot)
	cmd.Dir = v.ProjectRoot
	out, err := cmd.CombinedOutput()
	if err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return &errs.PackageManagerInstallError{Manager: "vcpkg", ExitCode: exitCode, Stderr: string(out)}
	}
	return nil
}

// GenerateToolchainIntegration writes vcpkg-integration.cmake alongside
// toolchainFile, chaining toolchainkit's file through vcpkg's own toolchain
// via VCPKG_CHAINLOAD_TOOLCHAIN_FILE.
func (v *VcpkgManager) GenerateToolchainIntegration(toolchainFile string) (string, error) {
	root, err := v.Root()
	if err != nil {
		return "", err
	}
	vcpkgToolchain := filepath.ToSlash(filepath.Join(root, "scripts", "buildsystems", "vcpkg.cmake"))
	integrationFile := filepath.Join(filepath.Dir(toolchainFile), "vcpkg-integration.cmake")

	content := fmt.Sprintf(`# vcpkg Integration
# This file is auto-generated by toolchainkit. Do not modify manually.

# Chain toolchainkit's toolchain; vcpkg loads it via VCPKG_CHAINLOAD_TOOLCHAIN_FILE.
set(VCPKG_CHAINLOAD_TOOLCHAIN_FILE "${CMAKE_CURRENT_LIST_DIR}/%s")

set(CMAKE_TOOLCHAIN_FILE "%s")

if(EXISTS "${CMAKE_TOOLCHAIN_FILE}")
    include("${CMAKE_TOOLCHAIN_FILE}")
    message(STATUS "vcpkg: Using vcpkg toolchain with toolchainkit chainloading")
else()
    message(WARNING "vcpkg: Toolchain file not found at ${CMAKE_TOOLCHAIN_FILE}")
endif()
`, filepath.Base(toolchainFile), vcpkgToolchain)

	if err := fsutil.AtomicWrite(integrationFile, []byte(content), 0o644); err != nil {
		return "", &errs.PackageManagerError{Manager: "vcpkg", Err: err}
	}
	return integrationFile, nil
}
