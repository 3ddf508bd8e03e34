package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xmercerweiss/jigwise/internal/config"
)

// NewDecryptCommand creates a new cobra command for the decrypt subcommand.
func NewDecryptCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "decrypt [flags]",
		Aliases: []string{"dec"},
		Short:   "Decrypt a content file using its misc artifacts",
		Args:    cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			var cfg config.Config
			if err := viper.Unmarshal(&cfg); err != nil {
				return fmt.Errorf("parsing config: %w", err)
			}

			cfg.Decrypt = true

			// Key parameters are irrelevant on this path; satisfy the
			// shared validation with their defaults.
			cfg.Keys = 1
			cfg.Length = 1

			if err := cfg.Validate(); err != nil {
				return err
			}

			return runDecrypt(&cfg)
		},
	}

	cmd.Flags().StringP("content", "c", "", "File the encrypted content is read from")
	cmd.Flags().StringP("misc", "m", "", "Directory the keys, table, and config are read from")
	cmd.Flags().StringP("out", "o", ".", "Directory the restored files are placed under")

	return cmd
}
