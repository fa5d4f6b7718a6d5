package serviceutil

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

func Fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}

// LoadDotenv loads secrets from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotenv(files ...string) error {
	existing := []string{}
	for _, f := range files {
		_, err := os.Stat(f)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return err
		}
		existing = append(existing, f)
	}
	if len(existing) == 0 {
		return nil
	}
	slog.Debug("loading environment", "files", existing)
	return godotenv.Load(existing...)
}

// Secret returns the environment variable key when fallback is empty.
func Secret(fallback, key string) string {
	if fallback != "" {
		return fallback
	}
	return os.Getenv(key)
}
