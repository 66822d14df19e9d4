package packages

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/toolchainkit/toolchainkit/internal/plugins"
)

func TestConanManager_Detect(t *testing.T) {
	dir := t.TempDir()
	c := NewConanManager(dir)
	if c.Detect(dir) {
		t.Fatal("expected no detection without a conanfile")
	}
	os.WriteFile(filepath.Join(dir, "conanfile.txt"), []byte("[requires]\n"), 0o644)
	if !c.Detect(dir) {
		t.Fatal("expected detection with conanfile.txt present")
	}
}

func TestConanManager_GenerateProfile_Linux(t *testing.T) {
	dir := t.TempDir()
	c := NewConanManager(dir)
	path, err := c.GenerateProfile(
		ToolchainRef{Type: "llvm", Version: "18.1.8"},
		Platform{OS: "linux", Architecture: "x86_64"},
		false,
	)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	content := string(data)
	if !strings.Contains(content, "os=Linux") {
		t.Errorf("expected os=Linux, got %s", content)
	}
	if !strings.Contains(content, "compiler=clang") {
		t.Errorf("expected compiler=clang, got %s", content)
	}
	if !strings.Contains(content, "compiler.libcxx=libc++") {
		t.Errorf("expected libc++ for clang, got %s", content)
	}
}

func TestConanManager_GenerateProfile_GCCUsesLibStdCxx11(t *testing.T) {
	dir := t.TempDir()
	c := NewConanManager(dir)
	path, err := c.GenerateProfile(
		ToolchainRef{Type: "gcc", Version: "13.2.0"},
		Platform{OS: "linux", Architecture: "x86_64"},
		false,
	)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "compiler.libcxx=libstdc++11") {
		t.Errorf("expected libstdc++11 for gcc, got %s", data)
	}
}

func TestConanManager_GenerateProfile_WindowsIsMSVCFlavoured(t *testing.T) {
	dir := t.TempDir()
	c := NewConanManager(dir)
	path, err := c.GenerateProfile(
		ToolchainRef{Type: "llvm", Version: "18.1.8"},
		Platform{OS: "windows", Architecture: "x86_64"},
		true,
	)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	content := string(data)
	if !strings.Contains(content, "compiler=msvc") {
		t.Errorf("expected an msvc profile on Windows regardless of toolchain type, got %s", content)
	}
	if !strings.Contains(content, "compiler.runtime_type=Debug") {
		t.Errorf("expected runtime_type=Debug when isDebug is set, got %s", content)
	}
}

func TestConanManager_GetConanExecutable_NotFoundWithoutSystemConan(t *testing.T) {
	oldLookPath := lookPath
	lookPath = func(string) (string, error) { return "", os.ErrNotExist }
	defer func() { lookPath = oldLookPath }()

	dir := t.TempDir()
	c := NewConanManager(dir)
	if _, err := c.GetConanExecutable(); err == nil {
		t.Fatal("expected an error when conan is absent from PATH")
	}
}

func TestConanManager_GenerateToolchainIntegration(t *testing.T) {
	dir := t.TempDir()
	c := NewConanManager(dir)
	toolchainFile := filepath.Join(dir, "cmake", "toolchain.cmake")
	path, err := c.GenerateToolchainIntegration(toolchainFile)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "CONAN_TOOLCHAIN_FILE") {
		t.Error("expected the integration file to reference CONAN_TOOLCHAIN_FILE")
	}
}

func TestVcpkgManager_Detect(t *testing.T) {
	dir := t.TempDir()
	v := NewVcpkgManager(dir)
	if v.Detect(dir) {
		t.Fatal("expected no detection without vcpkg.json")
	}
	os.WriteFile(filepath.Join(dir, "vcpkg.json"), []byte("{}"), 0o644)
	if !v.Detect(dir) {
		t.Fatal("expected detection with vcpkg.json present")
	}
}

func TestVcpkgManager_GetTriplet(t *testing.T) {
	v := NewVcpkgManager(t.TempDir())
	cases := []struct {
		platform Platform
		want     string
	}{
		{Platform{OS: "linux", Architecture: "x86_64"}, "x64-linux"},
		{Platform{OS: "macos", Architecture: "arm64"}, "arm64-osx"},
		{Platform{OS: "windows", Architecture: "x86_64"}, "x64-windows"},
		{Platform{OS: "unknown", Architecture: "unknown"}, "x64-linux"},
	}
	for _, tc := range cases {
		if got := v.GetTriplet(tc.platform); got != tc.want {
			t.Errorf("GetTriplet(%+v) = %q, want %q", tc.platform, got, tc.want)
		}
	}
}

func TestVcpkgManager_RootNotFoundWithoutInstallation(t *testing.T) {
	oldLookPath := lookPath
	lookPath = func(string) (string, error) { return "", os.ErrNotExist }
	defer func() { lookPath = oldLookPath }()

	t.Setenv("VCPKG_ROOT", "")
	v := &VcpkgManager{ProjectRoot: t.TempDir(), UseSystemVcpkg: true}
	if _, err := v.Root(); err == nil {
		t.Fatal("expected an error when no vcpkg installation can be found")
	}
}

func TestVcpkgManager_GenerateToolchainIntegration(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "vcpkg-root")
	os.MkdirAll(filepath.Join(root, "scripts", "buildsystems"), 0o755)

	v := &VcpkgManager{ProjectRoot: dir, CustomVcpkgPath: root}
	toolchainFile := filepath.Join(dir, "cmake", "toolchain.cmake")
	path, err := v.GenerateToolchainIntegration(toolchainFile)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "VCPKG_CHAINLOAD_TOOLCHAIN_FILE") {
		t.Error("expected the integration file to set VCPKG_CHAINLOAD_TOOLCHAIN_FILE")
	}
}

func TestConanManagerSatisfiesPackageManagerInterface(t *testing.T) {
	var _ plugins.PackageManager = NewConanManager(t.TempDir())
	var _ plugins.PackageManager = NewVcpkgManager(t.TempDir())
}
