package main

import (
	"log"
	"math/rand"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"fxmarket/internal/config"
	"fxmarket/internal/console"
	"fxmarket/internal/journal"
	"fxmarket/internal/logging"
	"fxmarket/internal/market"
)

func main() {
	// Optional: won't fail if .env doesn't exist.
	_ = godotenv.Load()

	jwtSecret := envOrDefault("JWT_SECRET", "dev-secret-at-least-32-characters!!")
	port := envOrDefault("PORT", "4000")
	marketName := envOrDefault("MARKET_NAME", "primary")
	logPath := envOrDefault("LOG_FILE", "")
	journalDSN := envOrDefault("JOURNAL_DSN", "")

	cfg, v, err := config.Load(envOrDefault("MARKET_CONFIG_FILE", ""))
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	log.Println("[main] config loaded")

	var sink *logging.Sink
	if logPath != "" {
		sink, err = logging.NewTee(logPath)
	} else {
		sink = logging.NewStdout()
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	engine := market.NewRandom(marketName, cfg.ToMarketConfig(), rand.New(rand.NewSource(1)), sink)
	log.Printf("[main] market %q initialized with budget %v", marketName, engine.Budget())

	srv := console.NewServer(map[string]*market.MarketEngine{marketName: engine}, jwtSecret)

	if guard, ok := srv.Guard(marketName); ok {
		config.NewReloader(v, engine, guard, sink)
		log.Println("[main] config hot-reload watching markup/discount")
	}

	if journalDSN != "" {
		w, err := journal.Open(journalDSN)
		if err != nil {
			log.Fatalf("journal open: %v", err)
		}
		if err := w.Migrate("migrations"); err != nil {
			log.Fatalf("journal migrate: %v", err)
		}
		engine.Subscribe(journal.NewSubscriber(w, marketName))
		log.Println("[main] journal attached and migrated")
	}

	router := srv.Router()
	log.Printf("[main] listening on :%s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
