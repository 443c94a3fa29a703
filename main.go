package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	_ "modernc.org/sqlite"
)

// openRatingStore picks the rating backend from config: Postgres, then
// SQLite, then memory.
func openRatingStore(ctx context.Context, cfg databaseConfig) ratingStore {
	switch {
	case cfg.URL != "":
		return &pgRatingStore{db: getDBPool(cfg.URL)}
	case cfg.SQLitePath != "":
		db, err := sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to open SQLite database: %v\n", err)
			os.Exit(1)
		}
		store, err := newSQLiteRatingStore(ctx, db)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to prepare SQLite database: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("SQLite rating store ready!")
		return store
	default:
		log.Println("No database configured, ratings are kept in memory")
		return newMemoryRatingStore()
	}
}

// openNutritionCache uses Redis when an address is configured.
func openNutritionCache(cfg redisConfig) cacheRepository {
	if cfg.Address == "" {
		return newMemoryCache()
	}
	return newRedisCache(cfg)
}

func main() {
	log.SetPrefix("lg/smartfit-go-api: ")
	log.SetFlags(0)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}

	registerMetrics()

	sessions := newSessionStore(cfg.Sessions.IdleTTL)
	sessions.startCleanup(cfg.Sessions.CleanupInterval)
	defer sessions.close()

	h := &Handler{
		sessions: sessions,
		coach:    newOpenRouterCoach(cfg.Coach),
		nutrition: &cachedNutritionLookup{
			next:  newNutritionixClient(cfg.Nutrition),
			cache: openNutritionCache(cfg.Redis),
			ttl:   cfg.Redis.CacheTTL,
		},
		ratings: openRatingStore(context.Background(), cfg.Database),
		now:     time.Now,
	}

	fmt.Println("Starting gin app...")

	router := gin.Default()
	router.SetTrustedProxies(nil)
	h.registerRoutes(router)

	if err := router.Run(cfg.Server.Addr); err != nil {
		log.Fatal(err)
	}
}
