package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvDataDir     = "PATHSIM_DATA"
	EnvConfigPath  = "PATHSIM_CONFIG"
	DefaultDataDir = ".pathsim"
)

// Env holds the settings taken from the environment. Variables already set
// win over the .env files.
type Env struct {
	DataDir    string
	ConfigPath string
}

// LoadEnv reads the given .env files (".env" when none are named) and
// resolves the pathsim variables. Missing files are ignored; a file that
// cannot be read or parsed is logged and skipped.
func LoadEnv(files ...string) Env {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("config: skipping env file", slog.String("path", f), slog.String("error", err.Error()))
		}
	}

	return Env{
		DataDir:    firstNonEmpty(strings.TrimSpace(os.Getenv(EnvDataDir)), DefaultDataDir),
		ConfigPath: strings.TrimSpace(os.Getenv(EnvConfigPath)),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
