package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Config carries every runtime option for the jigwise commands.
type Config struct {
	// Common flags
	PacketSize   int `mapstructure:"packet-size"  validate:"min=1"`
	Subdivisions int `mapstructure:"subdivisions" validate:"min=1"`
	SymbolWidth  int `mapstructure:"symbol-width" validate:"min=1,max=7"`
	Quiet        bool

	// Artifact locations
	Content string
	Misc    string

	// Command-specific flags
	Keys   int `validate:"min=1"`
	Length int `validate:"min=1"`
	Delete bool
	Out    string

	Decrypt bool

	// Positional arguments
	Sources []string
}

// Validate validates the configuration against the struct tags.
func (c Config) Validate() error {
	validate := validator.New()

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validating configuration: %w", err)
	}

	if c.Decrypt {
		if c.Content == "" || c.Misc == "" {
			return fmt.Errorf("decrypt requires both --content and --misc")
		}

		return nil
	}

	// Encrypt may run without persisting, but destinations come in pairs.
	if (c.Content == "") != (c.Misc == "") {
		return fmt.Errorf("--content and --misc must be given together")
	}

	return nil
}
