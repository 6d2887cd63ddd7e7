// freebsd-config file2c [prefix [suffix]]
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jeamland/freebsd-build/internal/file2c"
	"github.com/jeamland/freebsd-build/internal/msg"
)

var (
	flagMaxCount int
	flagPretty   bool
	flagHex      bool
)

func doFile2c(cmd *cobra.Command, args []string) {
	opts := file2c.Options{
		MaxCount: flagMaxCount,
		Pretty:   flagPretty,
		Hex:      flagHex,
	}
	if len(args) > 0 {
		opts.Prefix = args[0]
	}
	if len(args) > 1 {
		opts.Suffix = args[1]
	}

	if err := file2c.Format(os.Stdin, os.Stdout, opts); err != nil {
		msg.Fatal("%v", err)
	}
}

var file2cCmd = &cobra.Command{
	Use:   "file2c [prefix [suffix]]",
	Short: "Render stdin as a C array initializer",
	Long: `Render standard input as a C array initializer on standard output,
optionally wrapped in a prefix and suffix line.`,
	Args: cobra.MaximumNArgs(2),
	Run:  doFile2c,
}

func init() {
	rootCmd.AddCommand(file2cCmd)
	file2cCmd.Flags().IntVarP(&flagMaxCount, "maxcount", "n", 0, "Maximum number of bytes per line")
	file2cCmd.Flags().BoolVarP(&flagPretty, "pretty", "s", false, "Be more style(9) compliant")
	file2cCmd.Flags().BoolVarP(&flagHex, "hex", "x", false, "Print hexadecimal numbers")
}
