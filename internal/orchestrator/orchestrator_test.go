package orchestrator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/toolchainkit/toolchainkit/internal/config"
	"github.com/toolchainkit/toolchainkit/internal/fsutil"
	"github.com/toolchainkit/toolchainkit/internal/platform"
	"github.com/toolchainkit/toolchainkit/internal/plugins"
	"github.com/toolchainkit/toolchainkit/internal/state"
)

// fakePackageManager records every InstallDependencies call it receives, so
// tests can assert on call count and the exact opts each one carried
// without shelling out to a real Conan/vcpkg binary.
type fakePackageManager struct {
	name      string
	detected  bool
	installed []map[string]any
	failNext  bool
}

func (f *fakePackageManager) GetName() string             { return f.name }
func (f *fakePackageManager) Detect(string) bool          { return f.detected }
func (f *fakePackageManager) GenerateToolchainIntegration(string) (string, error) {
	return "", nil
}
func (f *fakePackageManager) InstallDependencies(opts map[string]any) error {
	f.installed = append(f.installed, opts)
	if f.failNext {
		f.failNext = false
		return os.ErrInvalid
	}
	return nil
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "", "fallback"); got != "fallback" {
		t.Errorf("firstNonEmpty = %q, want %q", got, "fallback")
	}
	if got := firstNonEmpty("explicit", "fallback"); got != "explicit" {
		t.Errorf("firstNonEmpty = %q, want %q", got, "explicit")
	}
}

func TestResolvePackageManager_PrefersConfiguredWhenDetected(t *testing.T) {
	registry := plugins.New()
	conan := &fakePackageManager{name: "conan", detected: true}
	vcpkg := &fakePackageManager{name: "vcpkg", detected: true}
	_ = registry.RegisterPackageManager("conan", conan)
	_ = registry.RegisterPackageManager("vcpkg", vcpkg)

	o := New(registry)
	if got := o.resolvePackageManager(t.TempDir(), "vcpkg"); got != "vcpkg" {
		t.Errorf("resolvePackageManager = %q, want vcpkg", got)
	}
}

func TestResolvePackageManager_FallsBackWhenConfiguredNotDetected(t *testing.T) {
	registry := plugins.New()
	conan := &fakePackageManager{name: "conan", detected: false}
	vcpkg := &fakePackageManager{name: "vcpkg", detected: true}
	_ = registry.RegisterPackageManager("conan", conan)
	_ = registry.RegisterPackageManager("vcpkg", vcpkg)

	o := New(registry)
	if got := o.resolvePackageManager(t.TempDir(), "conan"); got != "vcpkg" {
		t.Errorf("resolvePackageManager = %q, want vcpkg (auto-detected fallback)", got)
	}
}

func TestResolvePackageManager_NoneDetected(t *testing.T) {
	registry := plugins.New()
	_ = registry.RegisterPackageManager("conan", &fakePackageManager{name: "conan", detected: false})

	o := New(registry)
	if got := o.resolvePackageManager(t.TempDir(), ""); got != "" {
		t.Errorf("resolvePackageManager = %q, want empty", got)
	}
}

func TestPreferredGenerator_ConfigDefaultWins(t *testing.T) {
	registry := plugins.New()
	plugins.RegisterBuiltins(registry)
	o := New(registry)

	ctx := bootstrapContext{
		cfg:           &config.ToolchainKitConfig{Defaults: map[string]string{"generator": "Unix Makefiles"}},
		toolchainType: "llvm",
		info:          platform.Info{OS: "linux", Arch: "x86_64"},
	}
	if got := o.preferredGenerator(ctx); got != "Unix Makefiles" {
		t.Errorf("preferredGenerator = %q, want Unix Makefiles", got)
	}
}

func TestPreferredGenerator_FallsBackToStrategy(t *testing.T) {
	registry := plugins.New()
	plugins.RegisterBuiltins(registry)
	o := New(registry)

	ctx := bootstrapContext{
		cfg:           &config.ToolchainKitConfig{},
		toolchainType: "llvm",
		info:          platform.Info{OS: "linux", Arch: "x86_64"},
	}
	if got := o.preferredGenerator(ctx); got != "Ninja" {
		t.Errorf("preferredGenerator = %q, want Ninja (clang strategy default)", got)
	}
}

func TestInstallDependencies_WindowsNinjaRunsConanTwice(t *testing.T) {
	registry := plugins.New()
	conan := &fakePackageManager{name: "conan", detected: true}
	_ = registry.RegisterPackageManager("conan", conan)

	o := New(registry)
	dir := t.TempDir()
	ctx := bootstrapContext{
		projectRoot: dir,
		layout:      fsutil.NewProjectLayout(dir),
		cfg:         &config.ToolchainKitConfig{},
		info:        platform.Info{OS: "windows", Arch: "x86_64"},
		buildType:   "Release",
		pmName:      "conan",
	}

	if err := o.installDependencies(ctx, true); err != nil {
		t.Fatal(err)
	}
	if len(conan.installed) != 2 {
		t.Fatalf("expected 2 conan install calls on windows+ninja, got %d", len(conan.installed))
	}
	if _, ok := conan.installed[0]["generator"]; ok {
		t.Error("first pass should not set generator (default VS generator for ABI-compatible builds)")
	}
	if gen, ok := conan.installed[1]["generator"]; !ok || gen != "Ninja" {
		t.Errorf("second pass should set generator=Ninja, got %v", conan.installed[1]["generator"])
	}
}

func TestInstallDependencies_NonWindowsRunsConanOnce(t *testing.T) {
	registry := plugins.New()
	conan := &fakePackageManager{name: "conan", detected: true}
	_ = registry.RegisterPackageManager("conan", conan)

	o := New(registry)
	dir := t.TempDir()
	ctx := bootstrapContext{
		projectRoot: dir,
		layout:      fsutil.NewProjectLayout(dir),
		cfg:         &config.ToolchainKitConfig{},
		info:        platform.Info{OS: "linux", Arch: "x86_64"},
		buildType:   "Release",
		pmName:      "conan",
	}

	if err := o.installDependencies(ctx, true); err != nil {
		t.Fatal(err)
	}
	if len(conan.installed) != 1 {
		t.Fatalf("expected exactly 1 conan install call on linux+ninja, got %d", len(conan.installed))
	}
	if gen, ok := conan.installed[0]["generator"]; !ok || gen != "Ninja" {
		t.Errorf("expected generator=Ninja on the single pass, got %v", conan.installed[0]["generator"])
	}
}

func TestInstallDependencies_SkipsWhenNotDetected(t *testing.T) {
	registry := plugins.New()
	conan := &fakePackageManager{name: "conan", detected: false}
	_ = registry.RegisterPackageManager("conan", conan)

	o := New(registry)
	dir := t.TempDir()
	ctx := bootstrapContext{
		projectRoot: dir,
		layout:      fsutil.NewProjectLayout(dir),
		cfg:         &config.ToolchainKitConfig{},
		info:        platform.Info{OS: "linux", Arch: "x86_64"},
		pmName:      "conan",
	}
	if err := o.installDependencies(ctx, false); err != nil {
		t.Fatal(err)
	}
	if len(conan.installed) != 0 {
		t.Errorf("expected no install calls when manifest is not detected, got %d", len(conan.installed))
	}
}

func TestFindToolchainConfig(t *testing.T) {
	cfg := &config.ToolchainKitConfig{
		Toolchains: []config.ToolchainConfig{
			{Name: "primary", Type: "llvm", Version: "18.1.8"},
		},
	}
	if got := findToolchainConfig(cfg, "primary"); got == nil || got.Version != "18.1.8" {
		t.Fatalf("findToolchainConfig did not find the expected entry: %+v", got)
	}
	if got := findToolchainConfig(cfg, "missing"); got != nil {
		t.Errorf("findToolchainConfig(missing) = %+v, want nil", got)
	}
}

func TestConfigure_NonBootstrapUpdatesState(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "toolchainkit.yaml")
	cfgYAML := `version: 1
toolchains:
  - name: primary
    type: gcc
    version: "13.2.0"
defaults:
  linux: primary
`
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	registry := plugins.New()
	plugins.RegisterBuiltins(registry)

	o := New(registry)
	err := o.Configure(Options{ProjectRoot: dir, ConfigPath: cfgPath, BuildType: "Release", BuildDir: "build"})
	if err != nil {
		t.Fatalf("Configure returned an error: %v", err)
	}

	st := state.NewManager(dir).Load()
	if st.BuildDirectory != "build" {
		t.Errorf("state.BuildDirectory = %q, want build", st.BuildDirectory)
	}
}

// TestConfigure_SkipsWhenUpToDate and TestConfigure_ForceOverridesSkip probe
// the skip decision through an observable side effect (--clean) rather than
// through state fields that non-bootstrap runs never touch: if Configure
// actually skips, it returns before step 8 and never removes the build
// directory; if it proceeds, --clean empties it regardless.
func setupUpToDateProject(t *testing.T) (dir, cfgPath, markerPath string) {
	t.Helper()
	dir = t.TempDir()
	cfgPath = filepath.Join(dir, "toolchainkit.yaml")
	cfgYAML := `version: 1
toolchains:
  - name: primary
    type: gcc
    version: "13.2.0"
defaults:
  linux: primary
`
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	registry := plugins.New()
	plugins.RegisterBuiltins(registry)
	o := New(registry)
	if err := o.Configure(Options{ProjectRoot: dir, ConfigPath: cfgPath, BuildType: "Release", BuildDir: "build"}); err != nil {
		t.Fatalf("initial Configure returned an error: %v", err)
	}

	buildDir := filepath.Join(dir, "build")
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		t.Fatal(err)
	}
	markerPath = filepath.Join(buildDir, "marker")
	if err := os.WriteFile(markerPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := state.NewManager(dir).MarkCMakeConfigured("build"); err != nil {
		t.Fatal(err)
	}
	return dir, cfgPath, markerPath
}

func TestConfigure_SkipsWhenUpToDate(t *testing.T) {
	dir, cfgPath, markerPath := setupUpToDateProject(t)

	registry := plugins.New()
	plugins.RegisterBuiltins(registry)
	o := New(registry)
	err := o.Configure(Options{ProjectRoot: dir, ConfigPath: cfgPath, BuildType: "Release", BuildDir: "build", Clean: true})
	if err != nil {
		t.Fatalf("Configure returned an error: %v", err)
	}
	if _, statErr := os.Stat(markerPath); statErr != nil {
		t.Errorf("expected the up-to-date run to skip --clean and leave the marker file in place, got %v", statErr)
	}
}

func TestConfigure_ForceOverridesSkip(t *testing.T) {
	dir, cfgPath, markerPath := setupUpToDateProject(t)

	registry := plugins.New()
	plugins.RegisterBuiltins(registry)
	o := New(registry)
	err := o.Configure(Options{ProjectRoot: dir, ConfigPath: cfgPath, BuildType: "Release", BuildDir: "build", Clean: true, Force: true})
	if err != nil {
		t.Fatalf("Configure returned an error: %v", err)
	}
	if _, statErr := os.Stat(markerPath); !os.IsNotExist(statErr) {
		t.Errorf("expected --force to re-run --clean and remove the marker file, got err=%v", statErr)
	}
}
