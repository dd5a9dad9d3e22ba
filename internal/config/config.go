package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	DatabaseURL         string // Postgres DSN; empty means in-memory sqlite (dev/tests)
	APIBaseURL          string // base URL the client stack points at
	ParseAPIURL         string // text-to-listing parse service endpoint
	ParseAPIKey         string
	FrontendURLEndsWith string // CORS origin suffix (e.g. .imovelhub.app)
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL")
	if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}

	apiBase := viper.GetString("API_BASE_URL")
	if apiBase == "" {
		apiBase = "http://localhost:" + port
	}

	return &Config{
		Env:                 env,
		Port:                port,
		DatabaseURL:         dbURL,
		APIBaseURL:          apiBase,
		ParseAPIURL:         viper.GetString("PARSE_API_URL"),
		ParseAPIKey:         viper.GetString("PARSE_API_KEY"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
	}, nil
}
