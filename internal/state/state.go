// Package state persists per-project ToolchainKit state to
// .toolchainkit/state.json and answers the "does this project need
// reconfiguring" question (§4.4). Field-for-field modeled on
// original_source/toolchainkit/core/state.py.
package state

import (
	"os"
	"path/filepath"
	"time"

	gojson "github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"

	"github.com/toolchainkit/toolchainkit/internal/errs"
	"github.com/toolchainkit/toolchainkit/internal/fsutil"
)

const schemaVersion = 1

// Caching mirrors the build-caching status embedded in ProjectState.
type Caching struct {
	Enabled    bool   `json:"enabled"`
	Tool       string `json:"tool,omitempty"`
	Configured bool   `json:"configured"`
}

// ProjectState is the persisted shape of .toolchainkit/state.json (§3).
type ProjectState struct {
	Version                  int      `json:"version"`
	ActiveToolchain          string   `json:"active_toolchain,omitempty"`
	ToolchainHash            string   `json:"toolchain_hash,omitempty"`
	ConfigHash               string   `json:"config_hash,omitempty"`
	CMakeConfigured          bool     `json:"cmake_configured"`
	BuildDirectory           string   `json:"build_directory"`
	LastBootstrap            string   `json:"last_bootstrap,omitempty"`
	LastConfigure            string   `json:"last_configure,omitempty"`
	PackageManager           string   `json:"package_manager,omitempty"`
	PackageManagerConfigured bool     `json:"package_manager_configured"`
	Caching                  Caching  `json:"caching"`
	Modules                  []string `json:"modules"`
}

func defaultState() *ProjectState {
	return &ProjectState{
		Version:        schemaVersion,
		BuildDirectory: "build",
		Modules:        []string{"core", "cmake"},
	}
}

// Manager loads, mutates, and persists one project's state. A Manager
// memoizes the loaded state per instance, mirroring StateManager in the
// Python original.
type Manager struct {
	projectRoot string
	statePath   string
	loaded      *ProjectState
}

// NewManager returns a Manager for the project rooted at projectRoot.
func NewManager(projectRoot string) *Manager {
	layout := fsutil.NewProjectLayout(projectRoot)
	return &Manager{projectRoot: projectRoot, statePath: layout.StatePath}
}

// Load reads state.json, memoizing the result. Load never returns an error:
// a missing file yields defaults, and an unreadable or corrupt file yields
// defaults with a logged warning.
func (m *Manager) Load() *ProjectState {
	if m.loaded != nil {
		return m.loaded
	}

	data, err := os.ReadFile(m.statePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).WithField("path", m.statePath).Warn("state: failed to read state.json, using defaults")
		}
		m.loaded = defaultState()
		return m.loaded
	}

	var s ProjectState
	if err := gojson.Unmarshal(data, &s); err != nil {
		log.WithError(err).WithField("path", m.statePath).Warn("state: state.json is corrupt, using defaults")
		m.loaded = defaultState()
		return m.loaded
	}

	applyDefaults(&s)
	m.loaded = &s
	return m.loaded
}

// applyDefaults fills in zero-value optional fields and migrates unknown
// future schema versions by treating them as v1 with a warning.
func applyDefaults(s *ProjectState) {
	if s.Version != schemaVersion {
		log.WithField("found_version", s.Version).Warn("state: unknown state schema version, treating as v1")
		s.Version = schemaVersion
	}
	if s.BuildDirectory == "" {
		s.BuildDirectory = "build"
	}
	if len(s.Modules) == 0 {
		s.Modules = []string{"core", "cmake"}
	}
}

// Save persists the current (or given) state atomically, creating the
// parent directory if needed.
func (m *Manager) Save(s *ProjectState) error {
	if s == nil {
		s = m.Load()
	}
	data, err := gojson.MarshalIndent(s, "", "  ")
	if err != nil {
		return &errs.StateError{Path: m.statePath, Err: err}
	}
	if err := fsutil.AtomicWrite(m.statePath, data, 0o644); err != nil {
		return &errs.StateError{Path: m.statePath, Err: err}
	}
	m.loaded = s
	return nil
}

func (m *Manager) mutate(fn func(*ProjectState)) error {
	s := m.Load()
	fn(s)
	return m.Save(s)
}

// UpdateToolchain sets the active toolchain id and its archive hash.
func (m *Manager) UpdateToolchain(id, hash string) error {
	return m.mutate(func(s *ProjectState) {
		s.ActiveToolchain = id
		s.ToolchainHash = hash
	})
}

// UpdateConfigHash records the sha256 of the last-seen toolchainkit.yaml.
func (m *Manager) UpdateConfigHash(hash string) error {
	return m.mutate(func(s *ProjectState) { s.ConfigHash = hash })
}

// UpdateBuildConfig records the build directory and marks it not-yet-CMake-
// configured (a directory/type change always requires reconfiguration).
func (m *Manager) UpdateBuildConfig(dir string) error {
	return m.mutate(func(s *ProjectState) {
		s.BuildDirectory = dir
		s.CMakeConfigured = false
	})
}

// MarkBootstrapComplete stamps LastBootstrap with the current time.
func (m *Manager) MarkBootstrapComplete() error {
	return m.mutate(func(s *ProjectState) { s.LastBootstrap = nowISO() })
}

// MarkCMakeConfigured records that CMake successfully configured dir.
func (m *Manager) MarkCMakeConfigured(dir string) error {
	return m.mutate(func(s *ProjectState) {
		s.BuildDirectory = dir
		s.CMakeConfigured = true
		s.LastConfigure = nowISO()
	})
}

// MarkPackageManagerConfigured records that name's profile/toolchain
// integration was generated successfully.
func (m *Manager) MarkPackageManagerConfigured(name string) error {
	return m.mutate(func(s *ProjectState) {
		s.PackageManager = name
		s.PackageManagerConfigured = true
	})
}

// UpdateCaching records the build-cache tool selection.
func (m *Manager) UpdateCaching(enabled bool, tool string) error {
	return m.mutate(func(s *ProjectState) {
		s.Caching.Enabled = enabled
		s.Caching.Tool = tool
	})
}

// Clear resets the project to a fresh default state (used by --clean).
func (m *Manager) Clear() error {
	return m.Save(defaultState())
}

// NeedsReconfigure reports whether CMake must be re-run: true iff any of —
// no prior config hash recorded, the hash differs from currentConfigHash,
// cmake_configured is false, or the configured build directory no longer
// exists.
func (m *Manager) NeedsReconfigure(currentConfigHash string) bool {
	s := m.Load()
	if s.ConfigHash == "" {
		return true
	}
	if !fsutil.HashesEqual(s.ConfigHash, currentConfigHash) {
		return true
	}
	if !s.CMakeConfigured {
		return true
	}
	buildDir := s.BuildDirectory
	if !filepath.IsAbs(buildDir) {
		buildDir = filepath.Join(m.projectRoot, buildDir)
	}
	if info, err := os.Stat(buildDir); err != nil || !info.IsDir() {
		return true
	}
	return false
}

// Validate runs non-fatal consistency checks: that the active toolchain (if
// any) is plausible and that a configured build directory exists. It never
// returns an error itself — only the list of issue strings.
func (m *Manager) Validate(registeredToolchainIDs map[string]bool) []string {
	s := m.Load()
	var issues []string

	if s.ActiveToolchain != "" && registeredToolchainIDs != nil && !registeredToolchainIDs[s.ActiveToolchain] {
		issues = append(issues, "active_toolchain "+s.ActiveToolchain+" is not present in the global cache registry")
	}
	if s.CMakeConfigured {
		buildDir := s.BuildDirectory
		if !filepath.IsAbs(buildDir) {
			buildDir = filepath.Join(m.projectRoot, buildDir)
		}
		if info, err := os.Stat(buildDir); err != nil || !info.IsDir() {
			issues = append(issues, "cmake_configured is true but build_directory "+s.BuildDirectory+" does not exist")
		}
	}
	return issues
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
