package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAtomicWrite_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "state.json")

	if err := AtomicWrite(path, []byte(`{"a":1}`), 0o644); err != nil {
		t.Fatalf("AtomicWrite: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Errorf("got %q, want %q", data, `{"a":1}`)
	}
}

func TestAtomicWrite_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	if err := AtomicWrite(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("AtomicWrite: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly 1 entry in %s, got %d: %v", dir, len(entries), entries)
	}
}

func TestSHA256File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := SHA256File(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != want {
		t.Errorf("SHA256File() = %s, want %s", got, want)
	}
}

func TestHashesEqual_PrefixNormalization(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"sha256:abc123", "abc123", true},
		{"abc123", "sha256:abc123", true},
		{"sha256:abc123", "sha256:abc123", true},
		{"abc123", "def456", false},
	}
	for _, c := range cases {
		if got := HashesEqual(c.a, c.b); got != c.want {
			t.Errorf("HashesEqual(%q, %q) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestCreateLink_ResolveLink_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	if err := os.MkdirAll(target, 0o755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link")

	if err := CreateLink(link, target, false); err != nil {
		t.Fatalf("CreateLink: %v", err)
	}

	resolved, err := ResolveLink(link)
	if err != nil {
		t.Fatalf("ResolveLink: %v", err)
	}
	absTarget, _ := filepath.Abs(target)
	if resolved != absTarget {
		t.Errorf("ResolveLink() = %q, want %q", resolved, absTarget)
	}
	if !IsValidLink(link) {
		t.Error("expected link to be valid")
	}
}

func TestCreateLink_ForceOverwritesBrokenLink(t *testing.T) {
	dir := t.TempDir()
	target1 := filepath.Join(dir, "t1")
	target2 := filepath.Join(dir, "t2")
	os.MkdirAll(target1, 0o755)
	os.MkdirAll(target2, 0o755)
	link := filepath.Join(dir, "link")

	if err := CreateLink(link, target1, false); err != nil {
		t.Fatal(err)
	}
	os.RemoveAll(target1) // break it

	if !IsBrokenLink(link) {
		t.Fatal("expected link to be broken after removing target")
	}

	if err := CreateLink(link, target2, true); err != nil {
		t.Fatalf("CreateLink with force: %v", err)
	}
	if !IsValidLink(link) {
		t.Error("expected link to be valid after force re-creation")
	}
}

func TestRemoveLink_NeverTouchesTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	os.MkdirAll(target, 0o755)
	os.WriteFile(filepath.Join(target, "file.txt"), []byte("keep me"), 0o644)
	link := filepath.Join(dir, "link")
	if err := CreateLink(link, target, false); err != nil {
		t.Fatal(err)
	}

	if err := RemoveLink(link); err != nil {
		t.Fatalf("RemoveLink: %v", err)
	}
	if _, err := os.Stat(link); !os.IsNotExist(err) {
		t.Error("expected link to be gone")
	}
	if _, err := os.Stat(filepath.Join(target, "file.txt")); err != nil {
		t.Error("target contents must survive RemoveLink")
	}
}

func TestCleanupBrokenLinks_DryRunDoesNotRemove(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	os.MkdirAll(target, 0o755)
	link := filepath.Join(dir, "link")
	CreateLink(link, target, false)
	os.RemoveAll(target)

	removed, err := CleanupBrokenLinks(dir, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 1 {
		t.Fatalf("expected 1 broken link reported, got %d", len(removed))
	}
	if _, err := os.Lstat(link); err != nil {
		t.Error("dry run must not remove the broken link")
	}
}

func TestWithLock_NestedDistinctLocksRunInOrder(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "x.lock")

	var order []int
	err := WithLock(lockPath, func() error {
		order = append(order, 1)
		return WithLock(lockPath+".other", func() error {
			order = append(order, 2)
			return nil
		})
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("unexpected order: %v", order)
	}
}

func TestUpdateGitignore_Idempotent(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("node_modules/\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := UpdateGitignore(dir); err != nil {
			t.Fatalf("UpdateGitignore call %d: %v", i, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for _, line := range splitLines(string(data)) {
		if trimRight(line) == ".toolchainkit/" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one .toolchainkit/ entry, got %d in %q", count, data)
	}
}
