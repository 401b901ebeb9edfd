// Package config loads application settings from (in increasing priority)
// built-in defaults, an optional JSON config file, environment variables and
// command-line flags.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds the full application configuration.
type Config struct {
	RunAddr                    string        `env:"SERVER_ADDRESS" json:"server_address" validate:"hostname_port"`
	ShortURLBase               string        `env:"BASE_URL" json:"base_url" validate:"url"`
	LogLevel                   string        `env:"LOG_LEVEL" json:"log_level" validate:"loglevel"`
	DBFileName                 string        `env:"FILE_STORAGE_PATH" json:"file_storage_path" validate:"filepath"`
	DatabaseDSN                string        `env:"DATABASE_DSN" json:"database_dsn"`
	MigrationsDir              string        `env:"MIGRATIONS_DIR" json:"migrations_dir"`
	AuthCookieName             string        `env:"AUTH_COOKIE_NAME" json:"auth_cookie_name"`
	AuthCookieSigningSecretKey string        `env:"AUTH_COOKIE_SIGNING_SECRET_KEY" json:"auth_cookie_signing_secret_key"`
	TrustedSubnet              string        `env:"TRUSTED_SUBNET" json:"trusted_subnet" validate:"omitempty,cidr"`
	DBConnectionTimeout        time.Duration `env:"DB_CONNECTION_TIMEOUT" json:"-"`
	AuthTokenTTL               time.Duration `env:"AUTH_TOKEN_TTL" json:"-"`
	EnableHTTPS                bool          `env:"ENABLE_HTTPS" json:"enable_https"`
}

var defaultConfig = Config{
	RunAddr:                    ":8080",
	ShortURLBase:               "http://localhost:8080",
	LogLevel:                   "info",
	MigrationsDir:              "cmd/linkshrt/migrations",
	AuthCookieName:             "linkshrt_auth",
	AuthCookieSigningSecretKey: "c3VwZXItc2VjcmV0LWF1dGgta2V5",
	DBConnectionTimeout:        10 * time.Second,
	AuthTokenTTL:               24 * time.Hour,
}

func applyDefaults(values *Config, defaults Config) {
	if values.RunAddr == "" {
		values.RunAddr = defaults.RunAddr
	}
	if values.ShortURLBase == "" {
		values.ShortURLBase = defaults.ShortURLBase
	}
	if values.LogLevel == "" {
		values.LogLevel = defaults.LogLevel
	}
	if values.MigrationsDir == "" {
		values.MigrationsDir = defaults.MigrationsDir
	}
	if values.AuthCookieName == "" {
		values.AuthCookieName = defaults.AuthCookieName
	}
	if values.AuthCookieSigningSecretKey == "" {
		values.AuthCookieSigningSecretKey = defaults.AuthCookieSigningSecretKey
	}
	if values.DBConnectionTimeout == 0 {
		values.DBConnectionTimeout = defaults.DBConnectionTimeout
	}
	if values.AuthTokenTTL == 0 {
		values.AuthTokenTTL = defaults.AuthTokenTTL
	}
}

// clarifyShortURLBase rewrites the short URL base for HTTPS mode: the scheme
// becomes https and the default :8080 port is dropped, a non-default port is
// kept.
func (values *Config) clarifyShortURLBase() error {
	if !values.EnableHTTPS {
		return nil
	}

	parsed, err := url.Parse(values.ShortURLBase)
	if err != nil {
		return err
	}

	parsed.Scheme = "https"
	if parsed.Port() == "8080" {
		parsed.Host = parsed.Hostname()
	}
	values.ShortURLBase = parsed.String()

	return nil
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug":   true,
		"info":    true,
		"warning": true,
		"error":   true,
		"fatal":   true,
	}

	return allowedLogLevels[value]
}

func (values *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("filepath", validateFilePath)
	if err != nil {
		return err
	}

	return validate.Struct(values)
}

// InitOption is a functional option for New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing skips command-line flag parsing; used by tests.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

type parsedFlags struct {
	flagSet *flag.FlagSet
	values  Config
	config  string
}

func parseFlags() (*parsedFlags, error) {
	flags := &parsedFlags{
		flagSet: flag.NewFlagSet("linkshrt", flag.ContinueOnError),
	}

	flags.flagSet.StringVar(&flags.values.RunAddr, "a", "", "address and port to run server")
	flags.flagSet.StringVar(&flags.values.ShortURLBase, "b", "", "base address of the resulting shortened URL")
	flags.flagSet.StringVar(&flags.values.LogLevel, "l", "", "logger level")
	flags.flagSet.StringVar(&flags.values.DBFileName, "f", "", "JSON file name with database")
	flags.flagSet.StringVar(&flags.values.DatabaseDSN, "d", "", "a string with the database connection details")
	flags.flagSet.StringVar(&flags.values.MigrationsDir, "m", "", "directory with the goose migrations")
	flags.flagSet.StringVar(&flags.values.TrustedSubnet, "t", "", "trusted subnet for internal endpoints, CIDR notation")
	flags.flagSet.BoolVar(&flags.values.EnableHTTPS, "s", false, "enable HTTPS mode")
	flags.flagSet.StringVar(&flags.config, "c", "", "path to a JSON config file")

	if err := flags.flagSet.Parse(os.Args[1:]); err != nil {
		return nil, err
	}

	return flags, nil
}

func (flags *parsedFlags) apply(values *Config) {
	flags.flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "a":
			values.RunAddr = flags.values.RunAddr
		case "b":
			values.ShortURLBase = flags.values.ShortURLBase
		case "l":
			values.LogLevel = flags.values.LogLevel
		case "f":
			values.DBFileName = flags.values.DBFileName
		case "d":
			values.DatabaseDSN = flags.values.DatabaseDSN
		case "m":
			values.MigrationsDir = flags.values.MigrationsDir
		case "t":
			values.TrustedSubnet = flags.values.TrustedSubnet
		case "s":
			values.EnableHTTPS = flags.values.EnableHTTPS
		}
	})
}

func applyJSONFile(values *Config, fileName string) error {
	if fileName == "" {
		return nil
	}

	data, err := os.ReadFile(fileName)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, values)
}

func applyEnv(values *Config) error {
	var valuesFromEnv Config
	if err := env.Parse(&valuesFromEnv); err != nil {
		return err
	}

	if valuesFromEnv.RunAddr != "" {
		values.RunAddr = valuesFromEnv.RunAddr
	}
	if valuesFromEnv.ShortURLBase != "" {
		values.ShortURLBase = valuesFromEnv.ShortURLBase
	}
	if valuesFromEnv.LogLevel != "" {
		values.LogLevel = valuesFromEnv.LogLevel
	}
	if valuesFromEnv.DBFileName != "" {
		values.DBFileName = valuesFromEnv.DBFileName
	}
	if valuesFromEnv.DatabaseDSN != "" {
		values.DatabaseDSN = valuesFromEnv.DatabaseDSN
	}
	if valuesFromEnv.MigrationsDir != "" {
		values.MigrationsDir = valuesFromEnv.MigrationsDir
	}
	if valuesFromEnv.AuthCookieName != "" {
		values.AuthCookieName = valuesFromEnv.AuthCookieName
	}
	if valuesFromEnv.AuthCookieSigningSecretKey != "" {
		values.AuthCookieSigningSecretKey = valuesFromEnv.AuthCookieSigningSecretKey
	}
	if valuesFromEnv.TrustedSubnet != "" {
		values.TrustedSubnet = valuesFromEnv.TrustedSubnet
	}
	if valuesFromEnv.DBConnectionTimeout != 0 {
		values.DBConnectionTimeout = valuesFromEnv.DBConnectionTimeout
	}
	if valuesFromEnv.AuthTokenTTL != 0 {
		values.AuthTokenTTL = valuesFromEnv.AuthTokenTTL
	}
	if valuesFromEnv.EnableHTTPS {
		values.EnableHTTPS = true
	}

	return nil
}

// New builds the configuration with the priority CLI > env > JSON config file
// > defaults. The JSON file path comes from the -c flag or the CONFIG
// environment variable.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	var flags *parsedFlags
	if !options.disableFlagsParsing {
		var err error
		flags, err = parseFlags()
		if err != nil {
			return nil, err
		}
	}

	configFileName := os.Getenv("CONFIG")
	if flags != nil && flags.config != "" {
		configFileName = flags.config
	}

	values := &Config{}
	if err := applyJSONFile(values, configFileName); err != nil {
		return nil, err
	}
	applyDefaults(values, defaultConfig)

	if err := applyEnv(values); err != nil {
		return nil, err
	}

	if flags != nil {
		flags.apply(values)
	}

	if err := values.clarifyShortURLBase(); err != nil {
		return nil, err
	}

	return values, values.validate()
}
