package state

import (
	"os"
	"path/filepath"
	"testing"
)

func TestManager_LoadDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	s := m.Load()
	if s.Version != 1 {
		t.Errorf("Version = %d, want 1", s.Version)
	}
	if s.BuildDirectory != "build" {
		t.Errorf("BuildDirectory = %q, want %q", s.BuildDirectory, "build")
	}
}

func TestManager_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	if err := m.UpdateToolchain("llvm-18-linux-x64", "sha256:abc"); err != nil {
		t.Fatal(err)
	}

	m2 := NewManager(dir)
	s := m2.Load()
	if s.ActiveToolchain != "llvm-18-linux-x64" {
		t.Errorf("ActiveToolchain = %q", s.ActiveToolchain)
	}
	if s.ToolchainHash != "sha256:abc" {
		t.Errorf("ToolchainHash = %q", s.ToolchainHash)
	}
}

func TestManager_CorruptStateReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, ".toolchainkit"), 0o755)
	os.WriteFile(filepath.Join(dir, ".toolchainkit", "state.json"), []byte("{not json"), 0o644)

	m := NewManager(dir)
	s := m.Load()
	if s.Version != 1 || s.BuildDirectory != "build" {
		t.Errorf("expected defaults for corrupt state, got %+v", s)
	}
}

func TestManager_NeedsReconfigure(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)

	if !m.NeedsReconfigure("sha256:A") {
		t.Error("fresh project should need reconfigure")
	}

	if err := m.UpdateConfigHash("sha256:A"); err != nil {
		t.Fatal(err)
	}
	buildDir := filepath.Join(dir, "build")
	os.MkdirAll(buildDir, 0o755)
	if err := m.MarkCMakeConfigured("build"); err != nil {
		t.Fatal(err)
	}

	if m.NeedsReconfigure("sha256:A") {
		t.Error("should not need reconfigure: hash matches, configured, build dir exists")
	}

	if !m.NeedsReconfigure("sha256:B") {
		t.Error("changed config hash should require reconfigure")
	}

	os.RemoveAll(buildDir)
	if !m.NeedsReconfigure("sha256:A") {
		t.Error("missing build directory should require reconfigure")
	}
}

func TestManager_NeedsReconfigure_HashPrefixIndifferent(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	m.UpdateConfigHash("sha256:A")
	buildDir := filepath.Join(dir, "build")
	os.MkdirAll(buildDir, 0o755)
	m.MarkCMakeConfigured("build")

	if m.NeedsReconfigure("A") {
		t.Error("bare hex and sha256:-prefixed hash should compare equal")
	}
}

func TestManager_Clear(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	m.UpdateToolchain("llvm-18-linux-x64", "sha256:abc")
	if err := m.Clear(); err != nil {
		t.Fatal(err)
	}
	s := m.Load()
	if s.ActiveToolchain != "" {
		t.Errorf("expected cleared state, got ActiveToolchain=%q", s.ActiveToolchain)
	}
}

func TestManager_Validate(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	m.UpdateToolchain("llvm-18-linux-x64", "sha256:abc")
	m.MarkCMakeConfigured("build") // build dir deliberately not created

	issues := m.Validate(map[string]bool{})
	if len(issues) == 0 {
		t.Error("expected validation issues: unknown toolchain + missing build dir")
	}
}
