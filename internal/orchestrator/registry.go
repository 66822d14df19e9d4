package orchestrator

import (
	"github.com/toolchainkit/toolchainkit/internal/cache"
	"github.com/toolchainkit/toolchainkit/internal/fsutil"
	"github.com/toolchainkit/toolchainkit/internal/packages"
	"github.com/toolchainkit/toolchainkit/internal/plugins"
	"github.com/toolchainkit/toolchainkit/internal/provision"
)

// DefaultRegistry builds the process-wide plugin registry with every
// built-in compiler strategy, toolchain provider, and package manager
// wired in (§4.7, §4.9). This is the Go equivalent of the registration
// original_source does at CLI startup (plugins/registry.py's module-level
// singleton plus each command importing the concrete implementations it
// needs). cacheDir overrides the global cache root (§6 --cache); pass ""
// to use the HOME-based default.
func DefaultRegistry(projectRoot, cacheDir string) (*plugins.Registry, error) {
	registry := plugins.New()
	plugins.RegisterBuiltins(registry)

	var layout *fsutil.GlobalLayout
	var err error
	if cacheDir != "" {
		layout, err = fsutil.NewGlobalLayoutAt(cacheDir)
	} else {
		layout, err = fsutil.NewGlobalLayout()
	}
	if err != nil {
		return nil, err
	}
	cacheRegistry := cache.New(layout)
	pipeline := provision.NewPipeline(cacheRegistry, layout)

	registry.RegisterToolchainProvider(provision.NewLLVMProvider(pipeline, provision.DefaultLLVMTable()))
	registry.RegisterToolchainProvider(provision.NewGCCProvider(pipeline, provision.DefaultGCCTable()))
	registry.RegisterToolchainProvider(provision.NewZigProvider(pipeline, provision.DefaultZigTable()))
	registry.RegisterToolchainProvider(provision.NewSystemToolchainProvider(cacheRegistry))

	_ = registry.RegisterPackageManager("conan", packages.NewConanManager(projectRoot))
	_ = registry.RegisterPackageManager("vcpkg", packages.NewVcpkgManager(projectRoot))

	return registry, nil
}
