package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadENV loads variables from .env unless GO_ENV says otherwise
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	// Redis Configuration
	REDIS_URL string
	// Blob storage (S3-compatible) for submission uploads
	SPACES_BUCKET   string
	SPACES_REGION   string
	SPACES_ENDPOINT string
	SPACES_KEY      string
	SPACES_SECRET   string
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	// Database defaults
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  os.Getenv("DB_SSL_MODE"),
		PORT:         port,
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: os.Getenv("JWT_ISSUER"),
		// Redis
		REDIS_URL: os.Getenv("REDIS_URL"),
		// Spaces
		SPACES_BUCKET:   os.Getenv("SPACES_BUCKET"),
		SPACES_REGION:   os.Getenv("SPACES_REGION"),
		SPACES_ENDPOINT: os.Getenv("SPACES_ENDPOINT"),
		SPACES_KEY:      os.Getenv("SPACES_KEY"),
		SPACES_SECRET:   os.Getenv("SPACES_SECRET"),
	}

	return envVariables, nil
}
