package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/xmercerweiss/jigwise/internal/cipher"
	"github.com/xmercerweiss/jigwise/internal/config"
	"github.com/xmercerweiss/jigwise/internal/transform"
)

// newEncryptor builds the orchestrator shared by both commands.
func newEncryptor(cfg *config.Config) (*cipher.Encryptor, error) {
	handler := slog.NewTextHandler(os.Stderr, nil)
	if cfg.Quiet {
		handler = slog.NewTextHandler(io.Discard, nil)
	}

	enc, err := cipher.New(transform.Default(), cipher.Options{
		PacketSize:   cfg.PacketSize,
		Subdivisions: cfg.Subdivisions,
		SymbolWidth:  cfg.SymbolWidth,
		Logger:       slog.New(handler),
	})
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	return enc, nil
}

func runEncrypt(cfg *config.Config) error {
	enc, err := newEncryptor(cfg)
	if err != nil {
		return err
	}

	if _, err := enc.EncryptTo(
		cfg.Sources, cfg.Content, cfg.Misc, cfg.Keys, cfg.Length, cfg.Delete,
	); err != nil {
		return fmt.Errorf("encrypting: %w", err)
	}

	return nil
}

func runDecrypt(cfg *config.Config) error {
	enc, err := newEncryptor(cfg)
	if err != nil {
		return err
	}

	if err := enc.DecryptFiles(cfg.Content, cfg.Misc, cfg.Out); err != nil {
		return fmt.Errorf("decrypting: %w", err)
	}

	return nil
}
