// Package plugins implements the process-singleton registries for the four
// plugin kinds ToolchainKit supports: compiler strategies, toolchain
// providers, package managers, and build backends (§4.7). Modeled on
// original_source/toolchainkit/plugins/registry.py.
package plugins

import (
	"fmt"
	"sort"
	"sync"
)

// CompilerStrategy answers compiler-specific questions the CMake generator
// and orchestrator need: flags, preferred generator, default stdlib.
type CompilerStrategy interface {
	// GetFlags returns the compiler-specific flags implied by cfg (an
	// opaque map so callers don't need an import cycle on internal/config).
	GetFlags(cfg map[string]any) []string
	// GetPreferredGenerator returns this strategy's preferred CMake
	// generator for platformString, or "" if it has no opinion.
	GetPreferredGenerator(platformString string) string
	// GetDefaultStdlib returns the standard library this compiler defaults
	// to on platformString, or "" if it has no opinion.
	GetDefaultStdlib(platformString string) string
}

// ToolchainProvider resolves a (type, version, platform) request into an
// installed toolchain (§4.1).
type ToolchainProvider interface {
	CanProvide(toolchainType, version string) bool
	ProvideToolchain(toolchainType, version, platformString string, progress func(ProgressFrame)) (string, error)
	GetToolchainID(toolchainType, version, platformString string) string
}

// ProgressFrame is one observable interim state emitted during provisioning
// or dependency installation (§5).
type ProgressFrame struct {
	Phase      string
	Bytes      int64
	Total      int64
	Percentage float64
	SpeedBps   float64
	ETASeconds float64
}

// PackageManager is the common contract both Conan and vcpkg satisfy
// (§4.9).
type PackageManager interface {
	Detect(projectRoot string) bool
	InstallDependencies(opts map[string]any) error
	GenerateToolchainIntegration(toolchainFile string) (string, error)
	GetName() string
}

// BuildBackend wraps a CMake generator with its parallelism flag and CMake
// variables.
type BuildBackend interface {
	GeneratorName() string
	ParallelFlag(jobs string) []string
	CMakeVariables() map[string]string
}

// Registry is the process-singleton plugin registry. The zero value is
// usable; Default() returns the process-wide instance.
type Registry struct {
	mu                 sync.RWMutex
	compilers          map[string]CompilerStrategy
	toolchainProviders []ToolchainProvider
	packageManagers    map[string]PackageManager
	backends           map[string]BuildBackend
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		compilers:       map[string]CompilerStrategy{},
		packageManagers: map[string]PackageManager{},
		backends:        map[string]BuildBackend{},
	}
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry, creating it on first use.
func Default() *Registry {
	defaultOnce.Do(func() { defaultReg = New() })
	return defaultReg
}

// RegisterCompilerStrategy registers strategy under name (e.g. "clang",
// "gcc", "msvc", or a plugin-contributed compiler like "zig"). Registering
// an already-used name is an error.
func (r *Registry) RegisterCompilerStrategy(name string, strategy CompilerStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.compilers[name]; ok {
		return fmt.Errorf("compiler strategy %q is already registered", name)
	}
	r.compilers[name] = strategy
	return nil
}

// GetCompilerStrategy returns the registered strategy for name, erroring if
// none was registered.
func (r *Registry) GetCompilerStrategy(name string) (CompilerStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.compilers[name]
	if !ok {
		return nil, fmt.Errorf("compiler strategy %q not found in registry", name)
	}
	return s, nil
}

func (r *Registry) HasCompilerStrategy(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.compilers[name]
	return ok
}

// ListCompilerStrategies returns registered names, sorted.
func (r *Registry) ListCompilerStrategies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.compilers)
}

// RegisterToolchainProvider appends provider to the ordered list the
// provisioning pipeline asks in turn (§4.1's "providers are ordered").
func (r *Registry) RegisterToolchainProvider(provider ToolchainProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toolchainProviders = append(r.toolchainProviders, provider)
}

// ToolchainProviders returns a snapshot of the registered providers in
// registration order.
func (r *Registry) ToolchainProviders() []ToolchainProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolchainProvider, len(r.toolchainProviders))
	copy(out, r.toolchainProviders)
	return out
}

func (r *Registry) RegisterPackageManager(name string, manager PackageManager) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.packageManagers[name]; ok {
		return fmt.Errorf("package manager %q is already registered", name)
	}
	r.packageManagers[name] = manager
	return nil
}

func (r *Registry) GetPackageManager(name string) (PackageManager, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.packageManagers[name]
	if !ok {
		return nil, fmt.Errorf("package manager %q not found in registry", name)
	}
	return m, nil
}

func (r *Registry) HasPackageManager(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.packageManagers[name]
	return ok
}

func (r *Registry) ListPackageManagers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.packageManagers)
}

func (r *Registry) RegisterBuildBackend(name string, backend BuildBackend) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.backends[name]; ok {
		return fmt.Errorf("build backend %q is already registered", name)
	}
	r.backends[name] = backend
	return nil
}

func (r *Registry) GetBuildBackend(name string) (BuildBackend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("build backend %q not found in registry", name)
	}
	return b, nil
}

func (r *Registry) HasBuildBackend(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.backends[name]
	return ok
}

func (r *Registry) ListBuildBackends() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.backends)
}

// Clear removes every registered plugin. Useful for tests and
// reinitialization.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compilers = map[string]CompilerStrategy{}
	r.toolchainProviders = nil
	r.packageManagers = map[string]PackageManager{}
	r.backends = map[string]BuildBackend{}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
