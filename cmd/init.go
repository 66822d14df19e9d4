package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/toolchainkit/toolchainkit/internal/fsutil"
	"github.com/toolchainkit/toolchainkit/internal/platform"
)

var (
	initProjectRoot string
	initToolchain   string
	initVersion     string
	initForce       bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold toolchainkit.yaml and the project's .toolchainkit/ directory",
	Long: `init writes a starter toolchainkit.yaml pinning a single toolchain for the
host platform, and creates the project-local .toolchainkit/ directory tree
(adding it to .gitignore). Run 'tkgen configure' afterwards to provision.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initProjectRoot, "project-root", ".", "Project root directory")
	initCmd.Flags().StringVar(&initToolchain, "toolchain", "", "Toolchain type to pin: clang, gcc, or msvc (default: the platform's preferred compiler)")
	initCmd.Flags().StringVar(&initVersion, "version", "latest", "Toolchain version to pin")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing toolchainkit.yaml")
}

func defaultToolchainFor(info platform.Info) string {
	switch info.OS {
	case "windows":
		return "msvc"
	default:
		return "clang"
	}
}

const configTemplate = `version: 1
project: %s

toolchains:
  - name: primary
    type: %s
    version: "%s"

defaults:
  %s: primary

build:
  backend: ninja
`

func runInit(cmd *cobra.Command, args []string) error {
	projectRoot, err := filepath.Abs(initProjectRoot)
	if err != nil {
		return err
	}
	layout := fsutil.NewProjectLayout(projectRoot)

	if _, err := os.Stat(layout.ConfigPath); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", layout.ConfigPath)
	}

	info, err := platform.Detect()
	if err != nil {
		return fmt.Errorf("failed to detect platform: %w", err)
	}

	toolchainType := initToolchain
	if toolchainType == "" {
		toolchainType = defaultToolchainFor(info)
	}

	projectName := filepath.Base(projectRoot)
	content := fmt.Sprintf(configTemplate, projectName, toolchainType, initVersion, info.OS)

	if err := fsutil.AtomicWrite(layout.ConfigPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", layout.ConfigPath, err)
	}
	if err := layout.EnsureProjectStructure(); err != nil {
		return fmt.Errorf("failed to create .toolchainkit/: %w", err)
	}
	if err := fsutil.UpdateGitignore(projectRoot); err != nil {
		return fmt.Errorf("failed to update .gitignore: %w", err)
	}

	success := color.New(color.FgGreen, color.Bold)
	success.Println("Project initialized!")
	fmt.Printf("  Config:     %s\n", layout.ConfigPath)
	fmt.Printf("  Toolchain:  %s %s\n", toolchainType, initVersion)
	fmt.Println()
	fmt.Println("Next: run 'tkgen configure' to provision the toolchain.")
	return nil
}
