// Command folio runs the portfolio content engine.
package main

import (
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/khanhnv/folio"
)

func main() {
	// Missing .env is fine in production where real env vars are set.
	_ = godotenv.Load()

	cfg, err := folio.LoadConfig()
	if err != nil {
		log.Fatalf("folio: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("folio: init logger: %v", err)
	}
	defer logger.Sync()

	app := folio.New(cfg, logger)
	defer app.Close()

	logger.Info("starting folio",
		zap.String("addr", cfg.Addr),
		zap.String("database", cfg.DatabasePath),
		zap.Bool("email_enabled", cfg.Email.Enabled()),
		zap.Bool("llm_enabled", cfg.Chat.LLMAvailable()))

	if err := app.Start(); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
