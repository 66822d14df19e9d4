// Package orchestrator implements the `configure` command end-to-end
// (§4.10): project initialization, config loading, compatibility
// validation, package-manager auto-detection, toolchain provisioning,
// CMake toolchain file generation, and — in bootstrap mode — build-backend
// setup, dependency installation, and the actual CMake invocation. Modeled
// on original_source/toolchainkit/cli/commands/configure.py, generalizing
// its single long `run()` function into named steps.
package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"

	"github.com/toolchainkit/toolchainkit/internal/compat"
	"github.com/toolchainkit/toolchainkit/internal/config"
	"github.com/toolchainkit/toolchainkit/internal/errs"
	"github.com/toolchainkit/toolchainkit/internal/fsutil"
	"github.com/toolchainkit/toolchainkit/internal/packages"
	"github.com/toolchainkit/toolchainkit/internal/platform"
	"github.com/toolchainkit/toolchainkit/internal/plugins"
	"github.com/toolchainkit/toolchainkit/internal/state"
)

// Options is the merged shape of the configure CLI flags (§6).
type Options struct {
	ProjectRoot   string
	ConfigPath    string
	ToolchainName string
	BuildType     string
	BuildDir      string
	Target        string // cross-compile triple, e.g. "aarch64-linux"
	Stdlib        string
	Clean         bool
	Bootstrap     bool
	Env           map[string]string
	CMakeArgs     []string
	Force         bool
}

// Orchestrator runs the configure control flow against one plugin registry.
type Orchestrator struct {
	Registry *plugins.Registry
}

// New returns an Orchestrator backed by registry.
func New(registry *plugins.Registry) *Orchestrator {
	return &Orchestrator{Registry: registry}
}

// Configure runs the full §4.10 control flow and returns a non-nil error on
// any step that should translate to exit code 1.
func (o *Orchestrator) Configure(opts Options) error {
	// Step 0: apply --env overrides to this process's environment.
	for k, v := range opts.Env {
		os.Setenv(k, v)
	}

	projectRoot, err := filepath.Abs(opts.ProjectRoot)
	if err != nil {
		return err
	}
	layout := fsutil.NewProjectLayout(projectRoot)

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = layout.ConfigPath
	}

	// Step 1: project directory structure must exist before anything else
	// touches .toolchainkit/.
	if err := layout.EnsureProjectStructure(); err != nil {
		if os.IsPermission(err) {
			return &errs.PermissionError{Path: layout.Root, Err: err}
		}
		return &errs.DirectoryError{Path: layout.Root, Err: err}
	}
	if err := fsutil.UpdateGitignore(projectRoot); err != nil {
		log.WithError(err).Warn("configure: failed to update .gitignore")
	}

	// Step 2: parse + validate config.
	cfg, err := config.Parse(configPath)
	if err != nil {
		return err
	}
	info, err := platform.Detect()
	if err != nil {
		return err
	}
	if !platform.IsSupportedPlatform(info.PlatformString()) {
		return fmt.Errorf("unsupported platform %q", info.PlatformString())
	}
	result := config.Validate(cfg, info)
	if result.HasErrors() {
		return result
	}

	mode := compat.Advisory
	if opts.Bootstrap {
		mode = compat.Bootstrap
	}

	stateMgr := state.NewManager(projectRoot)
	configHash, hashErr := fsutil.SHA256File(configPath)
	if hashErr != nil {
		log.WithError(hashErr).Warn("configure: failed to hash config file, assuming reconfigure is required")
		configHash = ""
	}
	if !opts.Force && configHash != "" && !stateMgr.Load().NeedsReconfigure(configHash) {
		fmt.Println("Nothing to do: toolchain and build directory already match toolchainkit.yaml.")
		fmt.Println("Use --force to reconfigure anyway.")
		return nil
	}

	// Step 3: package manager auto-detection / verification.
	pmName := ""
	if cfg.Packages != nil {
		pmName = cfg.Packages.Manager
	}
	pmName = o.resolvePackageManager(projectRoot, pmName)

	// Step 4: merge CLI args onto config (CLI wins).
	buildType := firstNonEmpty(opts.BuildType, "Release")
	buildDir := firstNonEmpty(opts.BuildDir, "build")
	toolchainRef := o.resolveToolchain(cfg, opts, info)
	if toolchainRef == nil {
		return fmt.Errorf("no toolchain configured and no default for platform %q", info.OS)
	}

	toolchainCfg := findToolchainConfig(cfg, toolchainRef.Name)
	toolchainType := compat.NormalizeCompiler(toolchainRef.Type)
	version := "latest"
	stdlib := opts.Stdlib
	if toolchainCfg != nil {
		version = firstNonEmpty(toolchainCfg.Version, version)
		if stdlib == "" {
			stdlib = toolchainCfg.Stdlib
		}
	}

	if err := compat.ValidateCompiler(mode, info.PlatformString(), toolchainType); err != nil {
		return err
	}
	if stdlib != "" {
		if warning := compat.ValidateStdlib(toolchainType, stdlib); warning != nil {
			log.WithField("stdlib", stdlib).Warn(warning.Error())
		}
	}

	// Step 5: provision the toolchain (§4.1), falling back to a placeholder
	// toolchain file on failure rather than aborting.
	toolchainPath, toolchainID, provisionErr := o.provideToolchain(toolchainType, version, info.PlatformString())
	if provisionErr != nil {
		log.WithError(provisionErr).Warn("configure: toolchain provisioning failed, generating a placeholder toolchain file")
	}

	// Step 6: generate the CMake toolchain file (§4.8).
	toolchainFile, err := o.generateToolchainFile(cfg, layout, projectRoot, toolchainID, toolchainType, toolchainPath, stdlib, opts.Target)
	if err != nil {
		return err
	}

	// Step 7: Conan profile, if configured.
	if pmName == "conan" {
		conanMgr := packages.NewConanManager(projectRoot)
		_, err := conanMgr.GenerateProfile(
			packages.ToolchainRef{Type: toolchainType, Version: version, Stdlib: stdlib},
			packages.Platform{OS: info.OS, Architecture: info.Arch},
			buildType == "Debug",
		)
		if err != nil {
			log.WithError(err).Warn("configure: failed to generate Conan profile")
		}
	}

	// Step 8: clean.
	buildPath := filepath.Join(projectRoot, buildDir)
	if opts.Clean {
		if err := os.RemoveAll(buildPath); err != nil {
			log.WithError(err).Warn("configure: failed to clean build directory")
		}
	}

	// Step 11: update ProjectState (active toolchain, build config, config hash).
	if toolchainID != "" {
		_ = stateMgr.UpdateToolchain(toolchainID, "")
	}
	_ = stateMgr.UpdateBuildConfig(buildDir)
	if configHash != "" {
		_ = stateMgr.UpdateConfigHash(configHash)
	}

	// Step 9/10: bootstrap or print next steps.
	if !opts.Bootstrap {
		printNextSteps(toolchainFile, buildPath, buildType)
		return nil
	}

	return o.bootstrap(bootstrapContext{
		projectRoot:   projectRoot,
		layout:        layout,
		cfg:           cfg,
		info:          info,
		opts:          opts,
		buildType:     buildType,
		buildPath:     buildPath,
		toolchainFile: toolchainFile,
		toolchainType: toolchainType,
		pmName:        pmName,
		stateMgr:      stateMgr,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func findToolchainConfig(cfg *config.ToolchainKitConfig, name string) *config.ToolchainConfig {
	for i := range cfg.Toolchains {
		if cfg.Toolchains[i].Name == name {
			return &cfg.Toolchains[i]
		}
	}
	return nil
}

// resolveToolchain picks the effective toolchain using compat.ResolveToolchain,
// preferring an explicit CLI --toolchain name over the platform default.
func (o *Orchestrator) resolveToolchain(cfg *config.ToolchainKitConfig, opts Options, info platform.Info) *compat.ToolchainRef {
	refs := make([]compat.ToolchainRef, len(cfg.Toolchains))
	for i, tc := range cfg.Toolchains {
		refs[i] = compat.ToolchainRef{Name: tc.Name, Type: tc.Type}
	}
	return compat.ResolveToolchain(nil, opts.ToolchainName, refs, cfg.Defaults, info.OS)
}

// resolvePackageManager auto-detects a package manager when none is
// configured, or falls back to auto-detection when the configured one
// isn't actually usable in this project (§4.10 step 3).
func (o *Orchestrator) resolvePackageManager(projectRoot, configured string) string {
	if configured != "" {
		if mgr, err := o.Registry.GetPackageManager(configured); err == nil && mgr.Detect(projectRoot) {
			return configured
		}
		log.WithField("manager", configured).Warn("configure: configured package manager not usable here, auto-detecting")
	}
	for _, name := range o.Registry.ListPackageManagers() {
		mgr, err := o.Registry.GetPackageManager(name)
		if err == nil && mgr.Detect(projectRoot) {
			return name
		}
	}
	return ""
}

func printNextSteps(toolchainFile, buildPath, buildType string) {
	success := color.New(color.FgGreen, color.Bold)
	success.Println("Toolchain configured successfully!")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Install package dependencies (if using Conan/vcpkg)")
	fmt.Printf("  2. Run CMake: cmake -B %s -S . -DCMAKE_TOOLCHAIN_FILE=%s\n", buildPath, toolchainFile)
	fmt.Printf("  3. Build: cmake --build %s --config %s\n", buildPath, buildType)
}
