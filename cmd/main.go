package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	iris "github.com/damattl/db-iris-wrapper"
	"github.com/damattl/db-iris-wrapper/feed"
	"github.com/damattl/db-iris-wrapper/storage"
)

var rootCmd = &cobra.Command{
	Use:          "iris-wrapper",
	Short:        "DB IRIS timetable importer",
	Long:         "Imports planned timetables and live changes from the DB IRIS feed into a database",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stationsCmd)
	rootCmd.AddCommand(timetableCmd)
	rootCmd.AddCommand(changesCmd)
	rootCmd.AddCommand(codesCmd)
}

func main() {
	// A missing .env is fine, the environment may be set directly.
	godotenv.Load()

	slog.SetDefault(newLogger())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if os.Getenv("LOG_FORMAT") == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// openStorage picks the backend from the environment: DATABASE_URL
// wins, then SQLITE_PATH, then an in-memory store for ad hoc runs.
func openStorage() (storage.Storage, error) {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return storage.NewPostgresStorage(url)
	}
	if path := os.Getenv("SQLITE_PATH"); path != "" {
		return storage.NewSQLiteStorage(path)
	}

	slog.Warn("no database configured, using in-memory storage")
	return storage.NewMemoryStorage(), nil
}

func newImporter(store storage.Storage, metrics *iris.Metrics) *iris.Importer {
	return &iris.Importer{
		Fetcher: feed.NewClient(),
		Store:   store,
		Logger:  slog.Default(),
		Metrics: metrics,
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("ignoring invalid value", "key", key, "value", v)
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("ignoring invalid value", "key", key, "value", v)
		return fallback
	}
	return d
}
