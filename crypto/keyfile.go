package crypto

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LoadPrivKeyFile reads a hex-encoded private key from path.
func LoadPrivKeyFile(path string) (*PrivKey, error) {
	dir := filepath.Dir(path)
	name := filepath.Base(path)
	if name == "" || name == "." || name == ".." {
		return nil, fmt.Errorf("invalid key file name: %q", name)
	}
	raw, err := fs.ReadFile(os.DirFS(dir), name)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return PrivKeyFromHex(string(raw))
}

// SavePrivKeyFile writes the key as hex, refusing to overwrite an existing file.
func SavePrivKeyFile(path string, key *PrivKey) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) // #nosec G304 -- operator-supplied path.
	if err != nil {
		return err
	}
	if _, err := f.WriteString(key.Hex() + "\n"); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
