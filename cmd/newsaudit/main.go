package main

import (
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	godotenv.Load(".env.local", ".env")

	env := getEnvWithDefault("APP_ENV", "development")
	setupLogging(env, getEnvWithDefault("LOG_LEVEL", "info"))

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			Environment:      env,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialise Sentry")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "newsaudit",
		Short: "Audit WordPress news visibility signals and generate a remediation report",
		Long: `newsaudit checks how ready a WordPress site is for news aggregators:
robots.txt and sitemap discovery, RSS/Atom feed quality, canonical and
noindex hygiene, JSON-LD Article schema, and page weight. Findings are
ranked P0 (blocks ingestion) through P2 (cosmetic).`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(auditCmd())
	rootCmd.AddCommand(reportCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func setupLogging(env, logLevel string) {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Caller().Logger()
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
