package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is read by LoadEnvFile when no path is given.
const DefaultEnvFile = ".env"

// LoadEnvFile copies KEY=VALUE pairs from path into the process
// environment without overriding variables that are already set. A
// missing file is not an error; loaded reports whether one was read.
func LoadEnvFile(path string) (loaded bool, err error) {
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
