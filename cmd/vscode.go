package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/toolchainkit/toolchainkit/internal/fsutil"
)

var vscodeProjectRoot string

var vscodeCmd = &cobra.Command{
	Use:   "vscode",
	Short: "Print the CMake toolchain file path for manual VS Code/CMake Tools setup",
	Long: `VS Code workspace file generation is not implemented by tkgen. This command
only reports the generated toolchain file path so it can be wired into
CMake Tools' "cmake.toolchainFile" setting by hand; run 'tkgen configure'
first if the file does not exist yet.`,
	RunE: runVscode,
}

func init() {
	vscodeCmd.Flags().StringVar(&vscodeProjectRoot, "project-root", ".", "Project root directory")
}

func runVscode(cmd *cobra.Command, args []string) error {
	projectRoot, err := filepath.Abs(vscodeProjectRoot)
	if err != nil {
		return err
	}
	layout := fsutil.NewProjectLayout(projectRoot)

	fmt.Println("VS Code workspace generation is not part of tkgen.")
	fmt.Printf("Add this to .vscode/settings.json under \"cmake.toolchainFile\":\n  %s\n", layout.ToolchainCMake)
	return nil
}
