// Package lockfile generates, saves, loads, verifies, and diffs
// toolchainkit.lock — the exact URL/hash/size/version record of every
// component (§4.5). Modeled on
// original_source/toolchainkit/config/lockfile.py.
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/toolchainkit/toolchainkit/internal/errs"
	"github.com/toolchainkit/toolchainkit/internal/fsutil"
	"github.com/toolchainkit/toolchainkit/internal/platform"
)

// LockedComponent is one exact, hash-verified dependency record.
type LockedComponent struct {
	URL              string `yaml:"url"`
	SHA256           string `yaml:"sha256"`
	SizeBytes        int64  `yaml:"size_bytes"`
	Version          string `yaml:"version,omitempty"`
	Verified         bool   `yaml:"verified,omitempty"`
	VerificationDate string `yaml:"verification_date,omitempty"`
}

// Metadata carries generator provenance and the config hash it was produced
// from, plus a language-runtime fingerprint (the teacher's PURL-adjacent
// "this is how it was built" note).
type Metadata struct {
	Generator  string `yaml:"generator,omitempty"`
	ConfigHash string `yaml:"config_hash,omitempty"`
	RuntimeID  string `yaml:"runtime_id,omitempty"`
}

// LockFile is the full toolchainkit.lock shape.
type LockFile struct {
	Version    int                        `yaml:"version"`
	Generated  string                     `yaml:"generated"`
	Platform   string                     `yaml:"platform"`
	Toolchains map[string]LockedComponent `yaml:"toolchains"`
	BuildTools map[string]LockedComponent `yaml:"build_tools"`
	Packages   map[string]map[string]any  `yaml:"packages"`
	Metadata   Metadata                   `yaml:"metadata"`
}

// ComponentInfo is the input shape generate() expects per toolchain/tool:
// url, sha256, size_bytes, version.
type ComponentInfo struct {
	URL       string
	SHA256    string
	SizeBytes int64
	Version   string
}

// Manager is a LockFileEngine bound to one project.
type Manager struct {
	projectRoot  string
	path         string
	projectTools string
	globalTools  string
}

// NewManager returns a Manager rooted at projectRoot. projectRoot must
// already exist and be a directory.
func NewManager(projectRoot string) (*Manager, error) {
	info, err := os.Stat(projectRoot)
	if err != nil {
		return nil, &errs.LockFileError{Path: projectRoot, Err: fmt.Errorf("project root does not exist: %w", err)}
	}
	if !info.IsDir() {
		return nil, &errs.LockFileError{Path: projectRoot, Err: fmt.Errorf("project root is not a directory")}
	}
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, err
	}
	layout := fsutil.NewProjectLayout(abs)
	globalRoot, err := fsutil.GlobalCacheRoot()
	if err != nil {
		return nil, err
	}
	return &Manager{
		projectRoot:  abs,
		path:         layout.LockFilePath,
		projectTools: layout.Tools,
		globalTools:  filepath.Join(globalRoot, "tools"),
	}, nil
}

// Generate stamps a new LockFile from the given toolchain/build-tool info.
func Generate(platformInfo platform.Info, toolchainInfo map[string]ComponentInfo, buildToolsInfo map[string]ComponentInfo, configHash string) *LockFile {
	now := time.Now().UTC().Format(time.RFC3339)

	lf := &LockFile{
		Version:    1,
		Generated:  now,
		Platform:   platformInfo.PlatformString(),
		Toolchains: map[string]LockedComponent{},
		BuildTools: map[string]LockedComponent{},
		Packages:   map[string]map[string]any{},
		Metadata: Metadata{
			Generator:  "toolchainkit",
			ConfigHash: configHash,
			RuntimeID:  "go",
		},
	}

	for id, info := range toolchainInfo {
		lf.Toolchains[id] = LockedComponent{
			URL:              info.URL,
			SHA256:           info.SHA256,
			SizeBytes:        info.SizeBytes,
			Version:          info.Version,
			Verified:         true,
			VerificationDate: now,
		}
	}
	for name, info := range buildToolsInfo {
		lf.BuildTools[name] = LockedComponent{
			URL:              info.URL,
			SHA256:           info.SHA256,
			SizeBytes:        info.SizeBytes,
			Version:          info.Version,
			Verified:         true,
			VerificationDate: now,
		}
	}
	return lf
}

// Save writes the lock file as YAML, atomically.
func (m *Manager) Save(lf *LockFile) error {
	data, err := yaml.Marshal(lf)
	if err != nil {
		return &errs.LockFileError{Path: m.path, Err: err}
	}
	if err := fsutil.AtomicWrite(m.path, data, 0o644); err != nil {
		return &errs.LockFileError{Path: m.path, Err: err}
	}
	return nil
}

// Load reads toolchainkit.lock. Returns (nil, nil) if it does not exist, and
// a *errs.LockFileError on malformed YAML (the loader refuses rather than
// guessing).
func (m *Manager) Load() (*LockFile, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &errs.LockFileError{Path: m.path, Err: err}
	}
	var lf LockFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, &errs.LockFileError{Path: m.path, Err: fmt.Errorf("malformed lock file: %w", err)}
	}
	return &lf, nil
}

// RegistryLookup abstracts the cache registry for verification purposes
// (avoids an import cycle between internal/lockfile and internal/cache).
type RegistryLookup interface {
	InstalledHash(toolchainID string) (string, bool)
}

// Verify checks that every locked toolchain is present in the registry with
// a matching hash, and that every locked build tool can be found (project
// tools dir, then global tools dir) with a matching hash. It never panics on
// a dangling reference — a missing entry is reported as an issue, not an
// error.
func (m *Manager) Verify(lf *LockFile, registry RegistryLookup) (bool, []string) {
	var issues []string

	for id, comp := range lf.Toolchains {
		installedHash, ok := registry.InstalledHash(id)
		if !ok {
			issues = append(issues, fmt.Sprintf("toolchain %s is locked but not present in the cache registry", id))
			continue
		}
		if !fsutil.HashesEqual(installedHash, comp.SHA256) {
			issues = append(issues, fmt.Sprintf("toolchain %s hash mismatch: locked %s, installed %s", id, comp.SHA256, installedHash))
		}
	}

	for name, comp := range lf.BuildTools {
		path := m.findTool(name)
		if path == "" {
			issues = append(issues, fmt.Sprintf("build tool %s is locked but was not found in project or global tools directories", name))
			continue
		}
		actual, err := fsutil.SHA256File(path)
		if err != nil {
			issues = append(issues, fmt.Sprintf("build tool %s: failed to hash %s: %v", name, path, err))
			continue
		}
		if !fsutil.HashesEqual(actual, comp.SHA256) {
			issues = append(issues, fmt.Sprintf("build tool %s hash mismatch: locked %s, found %s", name, comp.SHA256, actual))
		}
	}

	return len(issues) == 0, issues
}

func (m *Manager) findTool(name string) string {
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	candidates := []string{
		filepath.Join(m.projectTools, name),
		filepath.Join(m.globalTools, name),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

// Diff describes what changed between two lock files, keyed by id/name.
type Diff struct {
	Toolchains ComponentDiff
	BuildTools ComponentDiff
}

// ComponentDiff lists added, removed, and modified entries for one section
// of the lock file.
type ComponentDiff struct {
	Added    []string
	Removed  []string
	Modified []ModifiedComponent
}

// ModifiedComponent records the before/after of a changed locked component.
type ModifiedComponent struct {
	Name       string
	OldVersion string
	NewVersion string
	OldHash    string
	NewHash    string
}

// DiffLockFiles computes the component-level delta between old and new.
func DiffLockFiles(old, new *LockFile) Diff {
	return Diff{
		Toolchains: diffSection(old.Toolchains, new.Toolchains),
		BuildTools: diffSection(old.BuildTools, new.BuildTools),
	}
}

func diffSection(oldMap, newMap map[string]LockedComponent) ComponentDiff {
	var d ComponentDiff
	for name, oldComp := range oldMap {
		newComp, ok := newMap[name]
		if !ok {
			d.Removed = append(d.Removed, name)
			continue
		}
		if oldComp.Version != newComp.Version || !fsutil.HashesEqual(oldComp.SHA256, newComp.SHA256) {
			d.Modified = append(d.Modified, ModifiedComponent{
				Name:       name,
				OldVersion: oldComp.Version,
				NewVersion: newComp.Version,
				OldHash:    oldComp.SHA256,
				NewHash:    newComp.SHA256,
			})
		}
	}
	for name := range newMap {
		if _, ok := oldMap[name]; !ok {
			d.Added = append(d.Added, name)
		}
	}
	return d
}
