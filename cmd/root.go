package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const toolVersion = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "tkgen",
	Short: "C/C++ toolchain provisioning and configuration manager",
	Long: `tkgen provisions pinned C/C++ compiler distributions (LLVM/Clang, GCC, MSVC,
and pluggable others) into a content-addressed cache shared across projects,
links them into a project, generates the CMake glue that makes them
self-describing to CMake, and optionally bootstraps a full configure by
invoking a package manager (Conan/vcpkg) and CMake itself.`,
	Version: toolVersion,
}

// Execute runs the root command, exiting with status 1 on any error the
// command returns (§6: exit codes 0 success, 1 any recoverable error).
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(vscodeCmd)
}
