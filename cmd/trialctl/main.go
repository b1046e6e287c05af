package main

import (
	"github.com/JonMunkholm/trialstats/internal/cli"
	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	cli.Execute()
}
