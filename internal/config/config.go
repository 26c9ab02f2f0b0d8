package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	App struct {
		Name        string
		Version     string
		Environment string
		Debug       bool
	}
	Server struct {
		Addr string
		// PayloadFormat selects the API Gateway proxy integration when
		// running as a hosted function: "1.0" (REST) or "2.0" (HTTP API).
		PayloadFormat string
	}
	Database struct {
		Path         string
		MaxOpenConns int
	}
	Auth struct {
		// TrustBearer enables the unverified bearer-token claim source for
		// local runs. Ignored in the hosted environment, where claims come
		// from the gateway authorizer.
		TrustBearer bool
	}
	Snapshot struct {
		Bucket   string
		Key      string
		Region   string
		Endpoint string
	}
	AWS struct {
		Profile string
	}
	Log struct {
		Level string
	}
}

// IsHosted reports whether the process runs inside the gateway-hosted
// function environment.
func (c Config) IsHosted() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix("SELLERUSERS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.name", "seller-users")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "production")
	v.SetDefault("app.debug", false)
	v.SetDefault("server.addr", "0.0.0.0:8081")
	v.SetDefault("server.payloadformat", "2.0")
	v.SetDefault("database.path", "data/users.db")
	v.SetDefault("database.maxopenconns", 1)
	v.SetDefault("auth.trustbearer", false)
	v.SetDefault("snapshot.bucket", "")
	v.SetDefault("snapshot.key", "snapshots/users.db")
	v.SetDefault("snapshot.region", "us-east-1")
	v.SetDefault("snapshot.endpoint", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("log.level", "info")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the configured environment is a local one.
func (c Config) IsDevelopment() bool {
	switch strings.ToLower(c.App.Environment) {
	case "development", "dev", "local":
		return true
	}
	return false
}

func loadDotEnv() {
	// The hosted runtime supplies real environment variables; .env is a
	// local convenience only.
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		return
	}

	file, err := os.Open(".env")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		partsIndex := strings.Index(line, "=")
		if partsIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:partsIndex])
		value := strings.TrimSpace(line[partsIndex+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
