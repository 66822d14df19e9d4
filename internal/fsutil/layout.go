package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
)

// GlobalCacheRoot returns $HOME/.toolchainkit (POSIX) or
// %USERPROFILE%\.toolchainkit (Windows), per §3 DirectoryLayout.
func GlobalCacheRoot() (string, error) {
	var home string
	if runtime.GOOS == "windows" {
		home = os.Getenv("USERPROFILE")
	} else {
		home = os.Getenv("HOME")
	}
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(home, ".toolchainkit"), nil
}

// GlobalLayout is the set of subdirectories under the global cache root.
type GlobalLayout struct {
	Root        string
	Toolchains  string
	Locks       string
	Tools       string
	RegistryLog string // registry.json path
}

// NewGlobalLayout resolves and ensures the global cache directory tree
// exists.
func NewGlobalLayout() (*GlobalLayout, error) {
	root, err := GlobalCacheRoot()
	if err != nil {
		return nil, err
	}
	return NewGlobalLayoutAt(root)
}

// NewGlobalLayoutAt ensures the global cache directory tree exists rooted
// at an explicit directory, bypassing GlobalCacheRoot's HOME-based default.
// Used by the orchestrator's --cache override (§6).
func NewGlobalLayoutAt(root string) (*GlobalLayout, error) {
	l := &GlobalLayout{
		Root:        root,
		Toolchains:  filepath.Join(root, "toolchains"),
		Locks:       filepath.Join(root, "lock"),
		Tools:       filepath.Join(root, "tools"),
		RegistryLog: filepath.Join(root, "registry.json"),
	}
	for _, d := range []string{l.Root, l.Toolchains, l.Locks, l.Tools} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// ProjectLayout is the set of subdirectories under a project's
// .toolchainkit/ directory.
type ProjectLayout struct {
	Root           string // <project>/.toolchainkit
	Packages       string
	CMake          string // cmake/toolchainkit
	ConanProfiles  string // conan/profiles
	Tools          string
	StatePath      string // state.json
	LockFilePath   string // <project>/toolchainkit.lock (project root, not .toolchainkit/)
	ConfigPath     string // <project>/toolchainkit.yaml
	ToolchainCMake string // cmake/toolchain.cmake
}

// NewProjectLayout computes (without creating) the project-local layout
// rooted at projectRoot.
func NewProjectLayout(projectRoot string) *ProjectLayout {
	tkRoot := filepath.Join(projectRoot, ".toolchainkit")
	cmakeDir := filepath.Join(tkRoot, "cmake", "toolchainkit")
	return &ProjectLayout{
		Root:           tkRoot,
		Packages:       filepath.Join(tkRoot, "packages"),
		CMake:          cmakeDir,
		ConanProfiles:  filepath.Join(tkRoot, "conan", "profiles"),
		Tools:          filepath.Join(tkRoot, "tools"),
		StatePath:      filepath.Join(tkRoot, "state.json"),
		LockFilePath:   filepath.Join(projectRoot, "toolchainkit.lock"),
		ConfigPath:     filepath.Join(projectRoot, "toolchainkit.yaml"),
		ToolchainCMake: filepath.Join(tkRoot, "cmake", "toolchain.cmake"),
	}
}

// EnsureProjectStructure creates every directory the project layout names.
// A read-only project root surfaces as a *errs.DirectoryError /
// *errs.PermissionError from the orchestrator, not as an opaque mkdir
// failure — see internal/orchestrator.
func (p *ProjectLayout) EnsureProjectStructure() error {
	for _, d := range []string{p.Root, p.Packages, p.CMake, p.ConanProfiles, p.Tools} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// UpdateGitignore appends ".toolchainkit/" to <projectRoot>/.gitignore,
// exactly once, preserving any existing content and trailing newline
// behavior. Idempotent: calling it any number of times leaves exactly one
// matching line.
func UpdateGitignore(projectRoot string) error {
	path := filepath.Join(projectRoot, ".gitignore")
	const entry = ".toolchainkit/"

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return AtomicWrite(path, []byte(entry+"\n"), 0o644)
		}
		return err
	}

	content := string(data)
	for _, line := range splitLines(content) {
		if trimRight(line) == entry || trimRight(line) == ".toolchainkit" {
			return nil // already present
		}
	}

	if len(content) > 0 && content[len(content)-1] != '\n' {
		content += "\n"
	}
	content += entry + "\n"
	return AtomicWrite(path, []byte(content), 0o644)
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func trimRight(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\r' || s[len(s)-1] == ' ' || s[len(s)-1] == '\t') {
		s = s[:len(s)-1]
	}
	return s
}
