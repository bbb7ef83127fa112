package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/lokapro/ledger-service/internal/utils"
)

type Config struct {
	AppName            string
	AppPort            string
	AppUrl             string
	DBUrl              string
	SchedulerEnabled   bool
	SeedDbWithDemoData bool
}

func LoadConfig() *Config {
	// .env is optional; real deployments inject env vars directly.
	if err := godotenv.Load(); err != nil {
		utils.Logger.Debug("No .env file found, relying on environment")
	}

	appName := os.Getenv("APP_NAME")
	if appName == "" {
		appName = "ledger-service"
	}

	utils.Logger.Info("Loading config for app: ", appName)

	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		utils.Logger.Fatal("APP_PORT env var is missing")
	}
	appUrl := os.Getenv("APP_URL")
	if appUrl == "" {
		utils.Logger.Fatal("APP_URL env var is missing")
	}
	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		utils.Logger.Fatal("DB_URL env var is missing")
	}

	schedulerEnabled := boolEnv("SCHEDULER_ENABLED", true)
	seedDemoData := boolEnv("SEED_DEMO_DATA", false)

	return &Config{
		AppName:            appName,
		AppPort:            appPort,
		AppUrl:             appUrl,
		DBUrl:              dbURL,
		SchedulerEnabled:   schedulerEnabled,
		SeedDbWithDemoData: seedDemoData,
	}
}

func boolEnv(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		utils.Logger.Fatalf("%s env var invalid, expected boolean: %q", key, raw)
	}
	return parsed
}
