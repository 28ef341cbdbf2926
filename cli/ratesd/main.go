package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/parites/ratesd/cli/cmd"
)

func main() {
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		log.Printf("ERROR: %v", err)
		os.Exit(1)
	}
}
