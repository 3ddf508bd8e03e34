package cipher

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/xmercerweiss/jigwise/internal/fileutil"
)

// Artifact file naming within the misc destination.
const (
	TableFileName  = "table"
	ConfigFileName = "config"
	KeyExtension   = "key"

	keyNameLength = 5
)

// Artifacts is the complete output of one encrypt call: everything needed
// to reverse the transform. Key storage order is unspecified; generation
// order lives in the ordinal bits.
type Artifacts struct {
	Content []byte
	Table   []byte
	Keys    [][]byte
	Config  Config
}

// export publishes the artifact set: content at contentDest, config, table,
// and keys in miscDest. Every file goes through a temp-then-rename write.
func (e *Encryptor) export(a *Artifacts, contentDest, miscDest string) error {
	if err := os.MkdirAll(miscDest, 0o755); err != nil {
		return fmt.Errorf("creating misc destination: %w", err)
	}

	if err := fileutil.WriteFileAtomic(contentDest, a.Content, 0o600); err != nil {
		return err
	}

	configBytes, err := a.Config.MarshalBinary()
	if err != nil {
		return err
	}

	if err := fileutil.WriteFileAtomic(filepath.Join(miscDest, ConfigFileName), configBytes, 0o600); err != nil {
		return err
	}

	if err := fileutil.WriteFileAtomic(filepath.Join(miscDest, TableFileName), a.Table, 0o600); err != nil {
		return err
	}

	occupied := make(map[string]bool, len(a.Keys))

	for _, key := range a.Keys {
		name, err := uniqueKeyName(occupied)
		if err != nil {
			return err
		}

		path := filepath.Join(miscDest, name)
		if err := fileutil.WriteFileAtomic(path, key, 0o600); err != nil {
			return err
		}

		e.log.Info("key written", "path", path, "bytes", len(key))
	}

	e.log.Info("artifacts exported", "content", contentDest, "misc", miscDest, "keys", len(a.Keys))

	return nil
}

// LoadArtifacts reads an artifact set from disk: the encrypted content file
// plus the config, table, and key files in miscDir. Key files load
// concurrently; their order carries no meaning.
func LoadArtifacts(contentPath, miscDir string) (*Artifacts, error) {
	content, err := os.ReadFile(contentPath)
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}

	configBytes, err := os.ReadFile(filepath.Join(miscDir, ConfigFileName))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	config, err := ParseConfig(configBytes)
	if err != nil {
		return nil, err
	}

	tableBytes, err := os.ReadFile(filepath.Join(miscDir, TableFileName))
	if err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}

	keyPaths, err := filepath.Glob(filepath.Join(miscDir, "*."+KeyExtension))
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}

	if len(keyPaths) == 0 {
		return nil, fmt.Errorf("%w: no key files in %q", ErrFormat, miscDir)
	}

	keys := make([][]byte, len(keyPaths))

	var group errgroup.Group
	group.SetLimit(runtime.NumCPU())

	for i, path := range keyPaths {
		group.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading key %q: %w", path, err)
			}

			keys[i] = data

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return &Artifacts{
		Content: content,
		Table:   tableBytes,
		Keys:    keys,
		Config:  config,
	}, nil
}

// uniqueKeyName draws a random alphabetic basename not yet in occupied.
func uniqueKeyName(occupied map[string]bool) (string, error) {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	for {
		raw := make([]byte, keyNameLength)
		if _, err := rand.Read(raw); err != nil {
			return "", fmt.Errorf("naming key file: %w", err)
		}

		name := make([]byte, keyNameLength)
		for i, b := range raw {
			name[i] = letters[int(b)%len(letters)]
		}

		candidate := string(name) + "." + KeyExtension
		if occupied[candidate] {
			continue
		}

		occupied[candidate] = true

		return candidate, nil
	}
}
