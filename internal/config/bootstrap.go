package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnsureUserConfig returns the path of the user's config file, writing the
// defaults there on first run.
func EnsureUserConfig(dataDir string) (string, error) {
	userPath := filepath.Join(dataDir, "config.yml")

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	if err := SaveAtomic(userPath, Default()); err != nil {
		return "", err
	}
	return userPath, nil
}

// LoadDotEnv overlays <dataDir>/.env onto the environment, best effort.
// Transport credentials (JOBTRACK_SMTP_PASSWORD, JOBTRACK_IMAP_PASSWORD)
// arrive this way when no keychain is available.
func LoadDotEnv(dataDir string) {
	_ = godotenv.Load(filepath.Join(dataDir, ".env"))
}
