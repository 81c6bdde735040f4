package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/surgeseven/settlement/internal/logger"
)

const (
	defaultListenAddr      = "localhost:8000"
	defaultLoggingLevel    = logger.LevelInfo
	defaultEnvironment     = logger.EnvProduction
	defaultPaystackURL     = "https://api.paystack.co"
	defaultFlutterwaveURL  = "https://api.flutterwave.com/v3"
	defaultCallbackBaseURL = "http://localhost:8000"
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the settlement service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret key
	// Access tokens are signed with symmetric encryption, so this key is used for that purpose
	SecretKey string

	// Environment
	Environment string

	// Paystack card payment provider
	PaystackURL       string
	PaystackSecretKey string

	// Flutterwave payout provider
	FlutterwaveURL       string
	FlutterwaveSecretKey string

	// Shared secret Flutterwave sends in the verif-hash webhook header
	FlutterwaveWebhookHash string

	// GPS tracking provider
	TrackerURL      string
	TrackerUsername string
	TrackerPassword string

	// Receipt emails
	SendgridAPIKey string
	EmailFrom      string

	// Base URL the payment provider redirects payers back to
	CallbackBaseURL string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:        defaultLoggingLevel,
		ListenAddr:      defaultListenAddr,
		Environment:     defaultEnvironment,
		PaystackURL:     defaultPaystackURL,
		FlutterwaveURL:  defaultFlutterwaveURL,
		CallbackBaseURL: defaultCallbackBaseURL,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":              setString(&c.ListenAddr),
		"DATABASE_URI":             setString(&c.DatabaseDSN),
		"SECRET_KEY":               setString(&c.SecretKey),
		"LOG_LEVEL":                setString(&c.LogLevel),
		"ENVIRONMENT":              setString(&c.Environment),
		"PAYSTACK_URL":             setString(&c.PaystackURL),
		"PAYSTACK_SECRET_KEY":      setString(&c.PaystackSecretKey),
		"FLUTTERWAVE_URL":          setString(&c.FlutterwaveURL),
		"FLUTTERWAVE_SECRET_KEY":   setString(&c.FlutterwaveSecretKey),
		"FLUTTERWAVE_WEBHOOK_HASH": setString(&c.FlutterwaveWebhookHash),
		"TRACKER_URL":              setString(&c.TrackerURL),
		"TRACKER_USERNAME":         setString(&c.TrackerUsername),
		"TRACKER_PASSWORD":         setString(&c.TrackerPassword),
		"SENDGRID_API_KEY":         setString(&c.SendgridAPIKey),
		"EMAIL_FROM":               setString(&c.EmailFrom),
		"CALLBACK_BASE_URL":        setString(&c.CallbackBaseURL),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("settlement", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}
