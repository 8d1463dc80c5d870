package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmkov83/enerhobot/internal/flagx"
	"github.com/dmkov83/enerhobot/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "15m" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. All fields are pointers so a key absent from the
// file is distinguishable from an explicit zero and leaves the defaulted
// Config value untouched.
type JsonConfig struct {
	EndpointAddr                *string         `json:"endpoint_addr"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	BotToken                    *string         `json:"bot_token"`
	TelegramEndpoint            *string         `json:"telegram_endpoint"`
	WebhookSecret               *string         `json:"webhook_secret"`
	SecretKey                   *string         `json:"secret_key"`
	AdminPasswordHash           *string         `json:"admin_password_hash"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	BanThreshold                *int            `json:"ban_threshold"`
	SupportContact              *string         `json:"support_contact"`
}

// parseJson overlays configuration values from a JSON file onto the
// provided Config instance. Only keys present in the file are applied.
//
// The lookup order for the JSON file path is the -c or -config
// command-line flag; when neither is set, no JSON file is loaded. If the
// file cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	if c.EndpointAddr != nil {
		config.EndpointAddr = *c.EndpointAddr
	}
	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	if c.BotToken != nil {
		config.BotToken = *c.BotToken
	}
	if c.TelegramEndpoint != nil {
		config.TelegramEndpoint = *c.TelegramEndpoint
	}
	if c.WebhookSecret != nil {
		config.WebhookSecret = *c.WebhookSecret
	}
	if c.SecretKey != nil {
		config.SecretKey = *c.SecretKey
	}
	if c.AdminPasswordHash != nil {
		config.AdminPasswordHash = *c.AdminPasswordHash
	}
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	}
	if c.BanThreshold != nil {
		config.BanThreshold = *c.BanThreshold
	}
	if c.SupportContact != nil {
		config.SupportContact = *c.SupportContact
	}
}
