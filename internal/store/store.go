package store

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	DefaultDBFile = "questions.db"

	// EnvStorePath overrides the datastore directory.
	EnvStorePath = "QUESTIONDB_STORE"
)

// CheckExists verifies if the datastore exists at the given path.
// Returns true if the store exists, false otherwise.
func CheckExists(storePath string) (bool, error) {
	dbPath := GetDBPath(storePath)
	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check store existence: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("datastore path is a directory, expected file: %s", dbPath)
	}
	return true, nil
}

// GetStorePath returns the path to the datastore directory.
// QUESTIONDB_STORE wins when set; otherwise the current working directory.
func GetStorePath() string {
	if p := os.Getenv(EnvStorePath); p != "" {
		return p
	}
	return "."
}

// GetDBPath returns the full path to the database file.
func GetDBPath(storePath string) string {
	return filepath.Join(storePath, DefaultDBFile)
}
