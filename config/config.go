package config

import (
	logger "github.com/Bparsons0904/goLogger"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	minJWTSecretLength = 16
)

type Config struct {
	GeneralVersion         string `mapstructure:"GENERAL_VERSION"`
	Environment            string `mapstructure:"ENVIRONMENT"`
	ServerPort             int    `mapstructure:"SERVER_PORT"`
	DatabaseHost           string `mapstructure:"DB_HOST"`
	DatabasePort           int    `mapstructure:"DB_PORT"`
	DatabaseName           string `mapstructure:"DB_NAME"`
	DatabaseUser           string `mapstructure:"DB_USER"`
	DatabasePassword       string `mapstructure:"DB_PASSWORD"`
	DatabaseCacheAddress   string `mapstructure:"DB_CACHE_ADDRESS"`
	DatabaseCachePort      int    `mapstructure:"DB_CACHE_PORT"`
	DatabaseCacheReset     int    `mapstructure:"DB_CACHE_RESET"`
	CorsAllowOrigins       string `mapstructure:"CORS_ALLOW_ORIGINS"`
	JWTSecret              string `mapstructure:"JWT_SECRET"`
	JWTExpiryHours         int    `mapstructure:"JWT_EXPIRY_HOURS"`
	BcryptCost             int    `mapstructure:"BCRYPT_COST"`
	SchedulerEnabled       bool   `mapstructure:"SCHEDULER_ENABLED"`
	SignatureReminderDays  int    `mapstructure:"SIGNATURE_REMINDER_DAYS"`
	SeedSupervisorWhatsapp string `mapstructure:"SEED_SUPERVISOR_WHATSAPP"`
	SeedSupervisorPassword string `mapstructure:"SEED_SUPERVISOR_PASSWORD"`
}

var envVars = []string{
	"GENERAL_VERSION", "ENVIRONMENT", "SERVER_PORT",
	"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
	"DB_CACHE_ADDRESS", "DB_CACHE_PORT", "DB_CACHE_RESET",
	"CORS_ALLOW_ORIGINS",
	"JWT_SECRET", "JWT_EXPIRY_HOURS", "BCRYPT_COST",
	"SCHEDULER_ENABLED", "SIGNATURE_REMINDER_DAYS",
	"SEED_SUPERVISOR_WHATSAPP", "SEED_SUPERVISOR_PASSWORD",
}

func InitConfig() (Config, error) {
	log := logger.New("config").Function("InitConfig")
	log.Info("Initializing config")

	viper.AutomaticEnv()

	for _, env := range envVars {
		if err := viper.BindEnv(env); err != nil {
			log.Warn("Failed to bind environment variable", "env", env, "error", err)
		}
	}

	setDefaults()

	envVarsSet := viper.IsSet("SERVER_PORT") && viper.IsSet("DB_HOST")
	if envVarsSet {
		log.Info("Environment variables detected, skipping file loading")
	} else {
		log.Info("Environment variables not found, attempting to load from files")

		viper.SetConfigFile(".env")
		viper.SetConfigType("env")
		if err := viper.ReadInConfig(); err != nil {
			log.Warn("Could not find .env file", "error", err)
		} else {
			log.Info("Loaded .env file")
		}

		viper.SetConfigFile(".env.local")
		if err := viper.MergeInConfig(); err != nil {
			log.Debug("No .env.local file found", "error", err)
		} else {
			log.Info("Loaded .env.local overrides")
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, log.Err("Fatal error: could not unmarshal config", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, log.Err("Fatal error: invalid config", err)
	}

	log.Info(
		"Successfully initialized config",
		"environment", config.Environment,
		"port", config.ServerPort,
		"scheduler", config.SchedulerEnabled,
	)
	return config, nil
}

func setDefaults() {
	viper.SetDefault("ENVIRONMENT", EnvDevelopment)
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_CACHE_RESET", -1)
	viper.SetDefault("JWT_EXPIRY_HOURS", 24)
	viper.SetDefault("BCRYPT_COST", 10)
	viper.SetDefault("SIGNATURE_REMINDER_DAYS", 3)
}

func (c Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// Validate checks the values that the server cannot start without.
func (c Config) Validate() error {
	log := logger.New("config").Function("Validate")

	if c.ServerPort <= 0 {
		return log.Error("invalid server port", "port", c.ServerPort)
	}

	if c.JWTSecret == "" {
		return log.ErrMsg("JWT_SECRET is required")
	}

	if !c.IsDevelopment() && len(c.JWTSecret) < minJWTSecretLength {
		return log.Error(
			"JWT_SECRET is too short",
			"minLength", minJWTSecretLength,
			"environment", c.Environment,
		)
	}

	if c.JWTExpiryHours <= 0 {
		return log.Error("invalid JWT expiry", "hours", c.JWTExpiryHours)
	}

	if c.SchedulerEnabled && c.SignatureReminderDays < 1 {
		return log.Error(
			"SIGNATURE_REMINDER_DAYS must be at least 1 when the scheduler is enabled",
			"days", c.SignatureReminderDays,
		)
	}

	return nil
}
