package orchestrator

import (
	"os"
	"os/exec"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/toolchainkit/toolchainkit/internal/config"
	"github.com/toolchainkit/toolchainkit/internal/errs"
	"github.com/toolchainkit/toolchainkit/internal/fsutil"
	"github.com/toolchainkit/toolchainkit/internal/packages"
	"github.com/toolchainkit/toolchainkit/internal/platform"
	"github.com/toolchainkit/toolchainkit/internal/state"
)

// bootstrapContext carries everything step 10 needs, assembled by
// Configure once steps 1-9 have run.
type bootstrapContext struct {
	projectRoot   string
	layout        *fsutil.ProjectLayout
	cfg           *config.ToolchainKitConfig
	info          platform.Info
	opts          Options
	buildType     string
	buildPath     string
	toolchainFile string
	toolchainType string
	pmName        string
	stateMgr      *state.Manager
}

// bootstrap implements §4.10 step 10: generator setup, dependency
// installation (including the Windows+Ninja two-phase Conan install), and
// the CMake invocation itself.
func (o *Orchestrator) bootstrap(ctx bootstrapContext) error {
	log.Info("configure: running bootstrap steps")

	generator := o.preferredGenerator(ctx)
	usingNinja := false

	if generator == "Ninja" {
		toolsDir := filepath.Join(ctx.projectRoot, ".toolchainkit", "tools")
		ninjaPath, err := ensureNinja(exec.LookPath, toolsDir)
		if err != nil {
			log.WithError(err).Warn("configure: failed to set up Ninja, falling back to the platform default generator")
		} else {
			ninjaDir := filepath.Dir(ninjaPath)
			os.Setenv("PATH", ninjaDir+string(os.PathListSeparator)+os.Getenv("PATH"))
			usingNinja = true
		}
	}

	if ctx.pmName != "" {
		if err := o.installDependencies(ctx, usingNinja); err != nil {
			return err
		}
	}

	cmakeArgs := []string{"-B", ctx.buildPath, "-S", ctx.projectRoot}
	if usingNinja {
		cmakeArgs = append(cmakeArgs, "-G", "Ninja")
	} else if generator != "" {
		cmakeArgs = append(cmakeArgs, "-G", generator)
	}
	cmakeArgs = append(cmakeArgs, "-DCMAKE_TOOLCHAIN_FILE="+ctx.toolchainFile)

	conanToolchain := filepath.Join(ctx.buildPath, "conan_toolchain.cmake")
	if _, err := os.Stat(conanToolchain); err == nil {
		cmakeArgs = append(cmakeArgs, "-DCONAN_TOOLCHAIN_FILE="+conanToolchain)
	}
	cmakeArgs = append(cmakeArgs, "-DCMAKE_BUILD_TYPE="+ctx.buildType)
	cmakeArgs = append(cmakeArgs, ctx.opts.CMakeArgs...)

	log.WithField("args", cmakeArgs).Debug("configure: invoking cmake")
	cmd := exec.Command("cmake", cmakeArgs...)
	cmd.Dir = ctx.projectRoot
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return &errs.BuildBackendError{Backend: "cmake", Err: err}
	}

	_ = ctx.stateMgr.MarkCMakeConfigured(ctx.buildPath)
	_ = ctx.stateMgr.MarkBootstrapComplete()
	printNextSteps(ctx.toolchainFile, ctx.buildPath, ctx.buildType)
	return nil
}

// preferredGenerator resolves the generator to pass to CMake: an explicit
// config default wins, otherwise the compiler strategy's own preference.
func (o *Orchestrator) preferredGenerator(ctx bootstrapContext) string {
	if gen, ok := ctx.cfg.Defaults["generator"]; ok && gen != "" {
		return gen
	}
	strategy, err := o.Registry.GetCompilerStrategy(ctx.toolchainType)
	if err != nil {
		return ""
	}
	return strategy.GetPreferredGenerator(ctx.info.PlatformString())
}

// installDependencies dispatches to the configured package manager,
// special-casing Conan's two-phase install on Windows+Ninja (§8 scenario
// 6): the first pass builds dependencies with the default (Visual Studio)
// generator for ABI-compatible prebuilt binaries, the second regenerates
// the Conan CMake toolchain targeting Ninja.
func (o *Orchestrator) installDependencies(ctx bootstrapContext, usingNinja bool) error {
	mgr, err := o.Registry.GetPackageManager(ctx.pmName)
	if err != nil {
		return nil
	}
	if !mgr.Detect(ctx.projectRoot) {
		log.WithField("manager", ctx.pmName).Info("configure: package manager configured but no manifest detected, skipping dependency install")
		return nil
	}

	opts := map[string]any{
		"build_type": ctx.buildType,
		"platform":   packages.Platform{OS: ctx.info.OS, Architecture: ctx.info.Arch},
	}

	if ctx.pmName == "conan" {
		profilePath := filepath.Join(ctx.layout.ConanProfiles, "default")
		if _, err := os.Stat(profilePath); err == nil {
			opts["profile_path"] = profilePath
		}

		if usingNinja && ctx.info.OS == "windows" {
			log.Info("configure: installing dependencies (phase 1: build with the default generator)")
			if err := mgr.InstallDependencies(opts); err != nil {
				return err
			}
			log.Info("configure: configuring Conan toolchain for Ninja (phase 2: regenerate)")
			opts["generator"] = "Ninja"
			return mgr.InstallDependencies(opts)
		}
		if usingNinja {
			opts["generator"] = "Ninja"
		}
	}

	return mgr.InstallDependencies(opts)
}
