// Package cmd implements the gta3c command-line interface.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is filled when building with make, but *not* when installing
// via "go install".
var Version string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gta3c",
	Short: "A compiler for the GTA3script language.",
	Long: `A compiler for the GTA3script mission scripting language, producing the
	 bytecode image consumed by the game's scripting virtual machine.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:errcheck
func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().String("cmdb", "commands.xml", "path to the command database")
	rootCmd.PersistentFlags().String("level", "", "path to a level.dat listing model definition files")
	rootCmd.PersistentFlags().Bool("objs-only", false, "restrict model scanning to object sections")
}
