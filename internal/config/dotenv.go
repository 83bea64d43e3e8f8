package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvFileName is the name of the environment variables file.
const EnvFileName = ".env"

// LoadDotEnv loads environment variables from .stepwise/.env if it exists.
// godotenv.Load does not override variables already set, so the process
// environment always wins over file values. A missing file is not an error;
// only a file that exists but cannot be parsed is.
func LoadDotEnv(baseDir string) error {
	envPath := filepath.Join(baseDir, StepwiseDirName, EnvFileName)

	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		return nil
	}

	return godotenv.Load(envPath)
}

// LoadDotEnvFromCwd loads .env from the current working directory's
// .stepwise/.env.
func LoadDotEnvFromCwd() error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	return LoadDotEnv(cwd)
}
