package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DotEnvPathVariable names the variable that points at an optional dotenv file.
const DotEnvPathVariable = "CARCASSONNE_ENV_FILE"

const defaultDotEnvPath = ".env"

// ParseEnv loads configuration from environment variables.
//
// Values from an optional dotenv file are loaded first; variables already set
// in the process environment always win.
func ParseEnv(target any) error {
	if err := LoadDotEnv(); err != nil {
		return err
	}
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadDotEnv reads the dotenv file named by CARCASSONNE_ENV_FILE (default
// ".env") into the process environment. A missing file is not an error.
func LoadDotEnv() error {
	path := strings.TrimSpace(os.Getenv(DotEnvPathVariable))
	if path == "" {
		path = defaultDotEnvPath
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load dotenv %s: %w", path, err)
	}
	return nil
}
