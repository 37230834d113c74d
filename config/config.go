package config

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config is read from the environment, after an optional .env file.
type Config struct {
	DataDir string
	Addr    string
	GinMode string
}

// Load reads .env from the working directory when present. Variables already
// set in the environment win over the file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: ignoring .env: %v", err)
	}
	return Config{
		DataDir: getEnv("LIBRARY_DATA_DIR", "data"),
		Addr:    getEnv("LIBRARY_ADDR", ":8080"),
		GinMode: os.Getenv("GIN_MODE"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
