package commands

import (
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xmercerweiss/jigwise/internal/table"
)

// NewRootCommand creates the root command with common configuration.
// It sets up environment variable binding and flag handling.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "jigwise [flags] command [flags]",
		Short: "File obfuscation utility",
		Long: `Packages files into one bitstream, scrambles it through randomly generated
bit-level operations, and emits the encrypted artifact together with the key,
table, and config files needed to reverse it.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().Int("packet-size", 256, "Packet size in bytes")
	root.PersistentFlags().
		IntP("subdivisions", "j", runtime.NumCPU(), "Number of parallel workers, defaults to number of CPUs")
	root.PersistentFlags().Int("symbol-width", table.DefaultSymbolWidth, "Table symbol width in bits (1-7)")
	root.PersistentFlags().BoolP("quiet", "q", false, "Suppress non-error output")

	viper.SetEnvPrefix("jigwise")
	viper.AutomaticEnv()

	root.AddCommand(NewEncryptCommand(), NewDecryptCommand())

	return root
}
