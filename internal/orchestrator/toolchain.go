package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/toolchainkit/toolchainkit/internal/cmakegen"
	"github.com/toolchainkit/toolchainkit/internal/config"
	"github.com/toolchainkit/toolchainkit/internal/errs"
	"github.com/toolchainkit/toolchainkit/internal/fsutil"
	"github.com/toolchainkit/toolchainkit/internal/platform"
	"github.com/toolchainkit/toolchainkit/internal/plugins"
)

// provideToolchain asks each registered toolchain provider in turn whether
// it can satisfy (toolchainType, version) on platformString, using the
// first that answers yes (§4.1, §4.7's ordered-provider dispatch). Logging
// progress frames mirrors configure.py's ASCII progress bar callback; here
// each frame is logged at debug level instead of rendered, since the CLI
// layer owns the actual progress bar UI.
func (o *Orchestrator) provideToolchain(toolchainType, version, platformString string) (string, string, error) {
	for _, provider := range o.Registry.ToolchainProviders() {
		if !provider.CanProvide(toolchainType, version) {
			continue
		}
		id := provider.GetToolchainID(toolchainType, version, platformString)
		path, err := provider.ProvideToolchain(toolchainType, version, platformString, func(frame plugins.ProgressFrame) {
			log.WithFields(log.Fields{
				"phase":   frame.Phase,
				"percent": frame.Percentage,
			}).Debug("configure: provisioning progress")
		})
		if err != nil {
			return "", id, err
		}
		return path, id, nil
	}
	return "", "", &errs.NoProviderError{Type: toolchainType, Version: version}
}

// generateToolchainFile writes the CMake toolchain file (§4.8). On a
// provisioning failure (toolchainPath == "") it still writes the file rather
// than aborting configure: the same generator output, with compiler names
// left to resolve from PATH. The warning about this is logged only; the
// file itself carries no WARNING message.
func (o *Orchestrator) generateToolchainFile(cfg *config.ToolchainKitConfig, layout *fsutil.ProjectLayout, projectRoot, toolchainID, toolchainType, toolchainPath, stdlib, target string) (string, error) {
	var strategy plugins.CompilerStrategy
	if s, err := o.Registry.GetCompilerStrategy(toolchainType); err == nil {
		strategy = s
	}

	if stdlib == "" && strategy != nil {
		if info, err := platform.Detect(); err == nil {
			stdlib = strategy.GetDefaultStdlib(info.PlatformString())
		}
	}

	var stdlibCfg cmakegen.StdlibConfig
	if stdlib != "" {
		resolved, err := cmakegen.ResolveStdlibConfig(stdlib, toolchainPath)
		if err != nil {
			log.WithError(err).WithField("stdlib", stdlib).Warn("configure: unrecognized stdlib, omitting stdlib flags")
		} else {
			stdlibCfg = resolved
		}
	}

	var cross *cmakegen.CrossCompileTarget
	if target != "" {
		if t := findCrossTarget(cfg, target); t != nil {
			cross = &cmakegen.CrossCompileTarget{SystemName: systemNameFor(t.OS), Processor: t.Arch}
		}
	}

	conanToolchainFile := ""
	if p := filepath.Join(projectRoot, "build", "conan_toolchain.cmake"); fileExistsHelper(p) {
		conanToolchainFile = p
	}

	genCfg := cmakegen.ToolchainFileConfig{
		ToolchainID:        toolchainID,
		ToolchainPath:      toolchainPath,
		CompilerType:       toolchainType,
		Strategy:           strategy,
		Stdlib:             stdlibCfg,
		CrossCompile:       cross,
		ConanToolchainFile: conanToolchainFile,
		ProjectRoot:        projectRoot,
	}

	path, err := cmakegen.Generate(genCfg, layout.ToolchainCMake)
	if err != nil {
		return "", err
	}

	if toolchainPath == "" {
		log.WithField("toolchain_type", toolchainType).Warn("configure: wrote a placeholder toolchain file; the compiler comes from PATH, not a managed install")
	}
	return path, nil
}

func findCrossTarget(cfg *config.ToolchainKitConfig, target string) *config.CrossCompilationTarget {
	for i := range cfg.Targets {
		t := &cfg.Targets[i]
		if fmt.Sprintf("%s-%s", t.Arch, t.OS) == target || t.OS == target {
			return t
		}
	}
	return nil
}

func systemNameFor(os string) string {
	switch os {
	case "linux", "android":
		return "Linux"
	case "macos", "ios":
		return "Darwin"
	case "windows":
		return "Windows"
	default:
		return os
	}
}

func fileExistsHelper(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
