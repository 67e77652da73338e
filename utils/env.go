package utils

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("ℹ️  No .env file found, continuing...")
	}
}

func GetDatabaseURL() string {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		log.Fatalln("❌ DATABASE_URL not set (in .env or environment)")
	}
	return url
}

// GetSeed reads SEEDATO_SEED for reproducible generation runs. Unset or
// unparsable means 0, which lets the engine seed from the clock.
func GetSeed() int64 {
	raw := os.Getenv("SEEDATO_SEED")
	if raw == "" {
		return 0
	}
	seed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("⚠️  Ignoring invalid SEEDATO_SEED %q: %v", raw, err)
		return 0
	}
	return seed
}
