package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/toolchainkit/toolchainkit/internal/orchestrator"
)

var (
	flagProjectRoot string
	flagConfigPath  string
	flagToolchain   string
	flagBuildType   string
	flagBuildDir    string
	flagTarget      string
	flagStdlib      string
	flagClean       bool
	flagCacheDir    string
	flagBootstrap   bool
	flagEnv         []string
	flagCMakeArgs   []string
	flagForce       bool
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Provision a toolchain and generate the CMake glue for this project",
	Long: `configure resolves the toolchain named in toolchainkit.yaml (or --toolchain),
provisions it into the shared cache if needed, generates the CMake toolchain
file, and (with --bootstrap) installs package dependencies and runs CMake.`,
	RunE: runConfigure,
}

func init() {
	configureCmd.Flags().StringVar(&flagProjectRoot, "project-root", ".", "Project root directory")
	configureCmd.Flags().StringVar(&flagConfigPath, "config", "", "Path to toolchainkit.yaml (default: <project-root>/toolchainkit.yaml)")
	configureCmd.Flags().StringVar(&flagToolchain, "toolchain", "", "Named toolchain to use (overrides the platform default)")
	configureCmd.Flags().StringVar(&flagBuildType, "build-type", "Release", "Debug, Release, RelWithDebInfo, or MinSizeRel")
	configureCmd.Flags().StringVar(&flagBuildDir, "build-dir", "build", "Build output directory")
	configureCmd.Flags().StringVar(&flagTarget, "target", "", "Cross-compilation target triple, e.g. aarch64-linux")
	configureCmd.Flags().StringVar(&flagStdlib, "stdlib", "", "Standard library to link (libc++, libstdc++, msvc)")
	configureCmd.Flags().BoolVar(&flagClean, "clean", false, "Remove the build directory before configuring")
	configureCmd.Flags().StringVar(&flagCacheDir, "cache", "", "Override the global toolchain cache directory")
	configureCmd.Flags().BoolVar(&flagBootstrap, "bootstrap", false, "Also install package dependencies and run CMake")
	configureCmd.Flags().StringArrayVar(&flagEnv, "env", nil, "Environment override KEY=VALUE (repeatable)")
	configureCmd.Flags().StringArrayVar(&flagCMakeArgs, "cmake-args", nil, "Extra arguments forwarded to the CMake invocation (--bootstrap only)")
	configureCmd.Flags().BoolVar(&flagForce, "force", false, "Reconfigure even if project state says it's up to date")
}

func runConfigure(cmd *cobra.Command, args []string) error {
	env, err := parseEnvFlags(flagEnv)
	if err != nil {
		return err
	}

	registry, err := orchestrator.DefaultRegistry(flagProjectRoot, flagCacheDir)
	if err != nil {
		return fmt.Errorf("failed to build plugin registry: %w", err)
	}

	o := orchestrator.New(registry)
	return o.Configure(orchestrator.Options{
		ProjectRoot:   flagProjectRoot,
		ConfigPath:    flagConfigPath,
		ToolchainName: flagToolchain,
		BuildType:     flagBuildType,
		BuildDir:      flagBuildDir,
		Target:        flagTarget,
		Stdlib:        flagStdlib,
		Clean:         flagClean,
		Bootstrap:     flagBootstrap,
		Env:           env,
		CMakeArgs:     flagCMakeArgs,
		Force:         flagForce,
	})
}

func parseEnvFlags(entries []string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --env entry %q, expected KEY=VALUE", entry)
		}
		env[key] = value
	}
	return env, nil
}
