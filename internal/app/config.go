package app

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"
)

type Config struct {
	Server struct {
		Port       string `toml:"port"`
		EnableAuth bool   `toml:"enable_auth"`
	} `toml:"server"`

	Auth struct {
		RedisURL           string `toml:"redis_url"`
		TokenHeader        string `toml:"token_header"`
		SessionKeyTemplate string `toml:"session_key_template"`
		SessionTTLHours    int    `toml:"session_ttl_hours"`
	} `toml:"auth"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Requests struct {
		WeeklyLimit int64 `toml:"weekly_limit"`
	} `toml:"requests"`

	Notify struct {
		OneSignalAppID  string `toml:"onesignal_app_id"`
		OneSignalAPIKey string `toml:"onesignal_api_key"`
	} `toml:"notify"`

	Bot struct {
		Token    string  `toml:"token"`
		AdminIDs []int64 `toml:"admin_ids"`
	} `toml:"bot"`

	GSheet struct {
		Enabled         bool   `toml:"enabled"`
		CredentialsPath string `toml:"credentials_path"`
		SheetID         string `toml:"sheet_id"`
		SheetName       string `toml:"sheet_name"`
		Schedule        string `toml:"schedule"`
	} `toml:"gsheet"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :9999")
	}
	if config.Requests.WeeklyLimit == 0 {
		config.Requests.WeeklyLimit = 20
	}
	if config.Auth.SessionTTLHours == 0 {
		config.Auth.SessionTTLHours = 72
	}

	logger.Debug.Printf("Loaded config: port=%s weekly_limit=%d", config.Server.Port, config.Requests.WeeklyLimit)

	return &config, nil
}
