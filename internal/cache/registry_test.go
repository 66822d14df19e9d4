package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	dir := t.TempDir()
	return NewAt(filepath.Join(dir, "registry.json"), filepath.Join(dir, "lock", "registry.lock"))
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := newTestRegistry(t)
	entry := &CachedToolchain{
		ToolchainID: "llvm-18.1.8-linux-x64",
		InstallPath: "/tmp/whatever",
		SHA256:      "abc123",
		SizeBytes:   42,
		Version:     "18.1.8",
	}
	if err := r.Register(entry); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := r.GetToolchainInfo("llvm-18.1.8-linux-x64")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected entry, got nil")
	}
	if got.SHA256 != "abc123" {
		t.Errorf("SHA256 = %q, want abc123", got.SHA256)
	}
	if got.FirstInstalledAt.IsZero() {
		t.Error("FirstInstalledAt should be stamped on register")
	}
}

func TestRegistry_GetMissingReturnsNilNoError(t *testing.T) {
	r := newTestRegistry(t)
	got, err := r.GetToolchainInfo("does-not-exist")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected nil for missing entry, got %+v", got)
	}
}

func TestRegistry_CorruptFileTreatedAsEmpty(t *testing.T) {
	r := newTestRegistry(t)
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(r.path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := r.GetToolchainInfo("anything")
	if err != nil {
		t.Fatalf("corrupt registry should be a recoverable empty view, got error: %v", err)
	}
	if got != nil {
		t.Error("expected nil lookup against corrupt/empty registry")
	}

	all, err := r.IterToolchains()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Errorf("expected 0 entries from corrupt registry, got %d", len(all))
	}
}

func TestRegistry_IterToolchainsSortedByID(t *testing.T) {
	r := newTestRegistry(t)
	for _, id := range []string{"gcc-13-linux-x64", "llvm-18-linux-x64", "msvc-2022-windows-x64"} {
		r.Register(&CachedToolchain{ToolchainID: id, InstallPath: "/x"})
	}
	all, err := r.IterToolchains()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ToolchainID > all[i].ToolchainID {
			t.Errorf("not sorted: %s before %s", all[i-1].ToolchainID, all[i].ToolchainID)
		}
	}
}

func TestRegistry_IncDecRef(t *testing.T) {
	r := newTestRegistry(t)
	r.Register(&CachedToolchain{ToolchainID: "llvm-18-linux-x64", InstallPath: "/x"})

	if err := r.IncRef("llvm-18-linux-x64"); err != nil {
		t.Fatal(err)
	}
	if err := r.IncRef("llvm-18-linux-x64"); err != nil {
		t.Fatal(err)
	}
	got, _ := r.GetToolchainInfo("llvm-18-linux-x64")
	if got.RefCount != 2 {
		t.Errorf("RefCount = %d, want 2", got.RefCount)
	}

	r.DecRef("llvm-18-linux-x64")
	r.DecRef("llvm-18-linux-x64")
	r.DecRef("llvm-18-linux-x64") // should clamp at 0, not go negative
	got, _ = r.GetToolchainInfo("llvm-18-linux-x64")
	if got.RefCount != 0 {
		t.Errorf("RefCount = %d, want 0 (clamped)", got.RefCount)
	}
}

func TestRegistry_RemoveThenInstallPathGoneInvariant(t *testing.T) {
	r := newTestRegistry(t)
	dir := t.TempDir()
	installPath := filepath.Join(dir, "install")
	os.MkdirAll(installPath, 0o755)

	r.Register(&CachedToolchain{ToolchainID: "llvm-18-linux-x64", InstallPath: installPath})

	// Registry entry must disappear before the directory is removed.
	if err := r.Remove("llvm-18-linux-x64"); err != nil {
		t.Fatal(err)
	}
	got, _ := r.GetToolchainInfo("llvm-18-linux-x64")
	if got != nil {
		t.Fatal("entry should be gone from the registry")
	}
	if err := os.RemoveAll(installPath); err != nil {
		t.Fatal(err)
	}
}
