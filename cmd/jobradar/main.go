package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Best effort: a missing .env simply means the environment is already set.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
