package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xmercerweiss/jigwise/internal/config"
)

// NewEncryptCommand creates a new cobra command for the encrypt subcommand.
func NewEncryptCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "encrypt [flags] sources...",
		Aliases: []string{"enc"},
		Short:   "Encrypt files and directories",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(_ *cobra.Command, args []string) error {
			var cfg config.Config
			if err := viper.Unmarshal(&cfg); err != nil {
				return fmt.Errorf("parsing config: %w", err)
			}

			cfg.Sources = args

			if err := cfg.Validate(); err != nil {
				return err
			}

			return runEncrypt(&cfg)
		},
	}

	cmd.Flags().StringP("content", "c", "", "File the encrypted content is written to")
	cmd.Flags().StringP("misc", "m", "", "Directory the keys, table, and config are written to")
	cmd.Flags().IntP("keys", "k", 1, "Number of keys to generate")
	cmd.Flags().IntP("length", "l", 64, "Length of each key, in instructions")
	cmd.Flags().BoolP("delete", "d", false, "Delete the sources after successful packing")

	return cmd
}
