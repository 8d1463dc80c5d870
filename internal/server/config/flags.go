package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmkov83/enerhobot/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-b string   Telegram bot token
//	-e string   Telegram Bot API base URL
//	-w string   webhook shared secret
//	-s string   JWT HMAC secret key
//	-p string   admin password bcrypt hash
//	-t int      admin token validity, minutes
//	-n int      ban threshold (failed attempts)
//
// The function first filters os.Args to only the flags it recognizes
// using flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-b", "-e", "-w", "-s", "-p", "-t", "-n"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.BotToken, "b", config.BotToken, "telegram bot token")
	fs.StringVar(&config.TelegramEndpoint, "e", config.TelegramEndpoint, "telegram bot api base url")
	fs.StringVar(&config.WebhookSecret, "w", config.WebhookSecret, "webhook shared secret")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.AdminPasswordHash, "p", config.AdminPasswordHash, "admin password bcrypt hash")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	fs.IntVar(&config.BanThreshold, "n", config.BanThreshold, "failed attempts before ban")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
}
