package main

import (
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"pickup-route-service/internal/adapters/cache"
	"pickup-route-service/internal/adapters/distance"
	"pickup-route-service/internal/api"
	"pickup-route-service/internal/config"
	"pickup-route-service/internal/platform/db"
	"pickup-route-service/internal/ports"
	"pickup-route-service/internal/services"
)

// main is the application composition root.
// It wires the matrix backend and cache behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfgPath := getEnv("CONFIG_PATH", "config.yaml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	matrixCache, closeCache, err := openCache(cfg.Matrix.Cache)
	if err != nil {
		log.Fatal(err)
	}
	if closeCache != nil {
		defer closeCache()
	}

	provider, err := distance.NewProvider(cfg.Matrix, os.Getenv("MATRIX_API_KEY"), matrixCache)
	if err != nil {
		log.Fatal(err)
	}

	planner := services.NewPlanner(provider, cfg.Depot, cfg.Solve)
	router := api.NewRouter(planner, cfg.Matrix)

	// The write timeout covers a full two-phase solve on a cold matrix cache.
	log.Printf("Server listening addr=:%s provider=%s cache=%s",
		cfg.Server.Port, cfg.Matrix.Provider, cfg.Matrix.Cache.Kind)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// openCache builds the configured matrix cache backend. The returned close
// function is nil when there is nothing to release.
func openCache(cfg config.CacheConfig) (ports.MatrixCache, func(), error) {
	switch cfg.Kind {
	case "none", "":
		return nil, nil, nil
	case "sqlite":
		conn, err := db.OpenSqlite(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		if err := cache.InitSchema(conn); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return cache.NewSqliteMatrixCache(conn), func() { conn.Close() }, nil
	case "postgres":
		conn, err := db.OpenPostgres(os.Getenv("DATABASE_URL"))
		if err != nil {
			return nil, nil, err
		}
		if err := cache.InitSQLSchema(conn); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return cache.NewSQLMatrixCache(conn), func() { conn.Close() }, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
		return cache.NewRedisMatrixCache(client, cfg.TTL()), func() { client.Close() }, nil
	default:
		log.Printf("unknown cache kind %q, running without a cache", cfg.Kind)
		return nil, nil, nil
	}
}
