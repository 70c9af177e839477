package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/minhtran-dev/edumarket-api/database"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatalf("Failed to initialize database tables: %v", err)
	}

	gormDB := store.GetDB().(*gorm.DB)

	if err := database.RunSeeds(gormDB); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
