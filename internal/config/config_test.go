package config_test

import (
	"testing"

	"github.com/xmercerweiss/jigwise/internal/config"
)

func valid() config.Config {
	return config.Config{
		PacketSize:   256,
		Subdivisions: 4,
		SymbolWidth:  6,
		Keys:         1,
		Length:       64,
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{"defaults", func(*config.Config) {}, false},
		{"zero_packet_size", func(c *config.Config) { c.PacketSize = 0 }, true},
		{"zero_keys", func(c *config.Config) { c.Keys = 0 }, true},
		{"symbol_width_too_wide", func(c *config.Config) { c.SymbolWidth = 8 }, true},
		{"content_without_misc", func(c *config.Config) { c.Content = "out.bin" }, true},
		{"paired_destinations", func(c *config.Config) {
			c.Content = "out.bin"
			c.Misc = "misc"
		}, false},
		{"decrypt_without_paths", func(c *config.Config) { c.Decrypt = true }, true},
		{"decrypt_with_paths", func(c *config.Config) {
			c.Decrypt = true
			c.Content = "out.bin"
			c.Misc = "misc"
		}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
