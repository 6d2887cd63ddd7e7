// freebsd-config [flags] <configfile>
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeamland/freebsd-build/internal/generate"
	"github.com/jeamland/freebsd-build/internal/msg"
)

var (
	flagBuild     string
	flagSrc       string
	flagMachine   string
	flagToolchain string
	flagVerbose   bool
)

func doGenerate(cmd *cobra.Command, args []string) {
	msg.Verbose = flagVerbose

	err := generate.Run(generate.Params{
		ConfigFile: args[0],
		Machine:    flagMachine,
		SrcPath:    flagSrc,
		BuildPath:  flagBuild,
		Toolchain:  flagToolchain,
	})
	if err != nil {
		msg.Fatal("%v", err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "freebsd-config [flags] configfile",
	Short: "Generate a ninja build file from a kernel configuration",
	Long: `Generate a ninja build file, option headers and supporting sources
from a FreeBSD kernel configuration file.`,
	Args: cobra.ExactArgs(1),
	Run:  doGenerate,
}

func init() {
	rootCmd.Flags().StringVarP(&flagBuild, "build", "b", "build", "Build directory name")
	rootCmd.Flags().StringVarP(&flagSrc, "src", "s", "", "Path to src tree")
	rootCmd.Flags().StringVarP(&flagMachine, "machine", "m", "", "Machine type name")
	rootCmd.Flags().StringVar(&flagToolchain, "toolchain", "toolchain.toml", "Toolchain settings file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Verbose diagnostics")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
