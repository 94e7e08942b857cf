package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables providing defaults for the command line arguments.
const (
	envTrainDir    = "BDD2YOLO_TRAIN_DIR"
	envValDir      = "BDD2YOLO_VAL_DIR"
	envTrainOutDir = "BDD2YOLO_TRAIN_OUT"
	envValOutDir   = "BDD2YOLO_VAL_OUT"
	envTrainCount  = "BDD2YOLO_TRAIN_COUNT"
	envValCount    = "BDD2YOLO_VAL_COUNT"
)

// loadEnv loads a .env file from the working directory, if there is one. Variables already set in
// the environment take precedence.
func loadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// envInt returns def if the variable is unset or empty.
func envInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q for %v: not an integer", v, key)
	}
	return n, nil
}
