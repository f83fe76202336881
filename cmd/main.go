package main

import (
	"os"

	"ordprov-service/internal/cli"

	"github.com/joho/godotenv"
)

func main() {
	// Optional .env for local development, real deployments use the
	// environment directly.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
