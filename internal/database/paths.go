package database

import (
	"os"
	"path/filepath"

	"kml-eagle/internal/errors"
)

const (
	AppDirName       = ".kml-eagle"
	SQLiteDBFileName = "data.db"
)

// GetAppDir returns ~/.kml-eagle, creating it if needed
func GetAppDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}

	appDir := filepath.Join(homeDir, AppDirName)
	if err := os.MkdirAll(appDir, 0700); err != nil {
		return "", errors.Wrap(err, "failed to create app directory")
	}

	return appDir, nil
}

// GetDefaultDBPath returns the default SQLite database path: ~/.kml-eagle/data.db
func GetDefaultDBPath() (string, error) {
	appDir, err := GetAppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(appDir, SQLiteDBFileName), nil
}

// ResolveDBPath returns configured when set, otherwise the default path.
func ResolveDBPath(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	return GetDefaultDBPath()
}
