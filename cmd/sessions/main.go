package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"edufinanzas/internal/config"
	"edufinanzas/internal/database"
	"edufinanzas/internal/repository"
)

// store is the maintenance surface shared by the persistent session stores
type store interface {
	Purge(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (repository.SessionStats, error)
	Clear(ctx context.Context) (int64, error)
}

func main() {
	clearCmd := flag.NewFlagSet("clear", flag.ExitOnError)
	clearYes := clearCmd.Bool("yes", false, "Skip the confirmation prompt")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "migrate":
		handleMigrate(ctx, cfg)
		return
	case "purge", "stats", "clear":
	default:
		printUsage()
		os.Exit(1)
	}

	s, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open session store: %v", err)
	}
	defer closeStore()

	switch os.Args[1] {
	case "purge":
		n, err := s.Purge(ctx)
		if err != nil {
			log.Fatalf("Purge failed: %v", err)
		}
		log.Printf("Purged %d expired session values", n)

	case "stats":
		stats, err := s.Stats(ctx)
		if err != nil {
			log.Fatalf("Stats failed: %v", err)
		}
		fmt.Printf("Store:    %s\n", cfg.SessionStore)
		fmt.Printf("Sessions: %d\n", stats.Sessions)
		fmt.Printf("Values:   %d\n", stats.Values)

	case "clear":
		clearCmd.Parse(os.Args[2:])
		if !*clearYes {
			fmt.Print("WARNING: This will log out every user. Type 'yes' to confirm: ")
			var confirmation string
			fmt.Scanln(&confirmation)
			if confirmation != "yes" {
				log.Println("Clear cancelled")
				return
			}
		}
		n, err := s.Clear(ctx)
		if err != nil {
			log.Fatalf("Clear failed: %v", err)
		}
		log.Printf("Cleared %d session entries", n)
	}
}

// handleMigrate applies pending migrations of the database store
func handleMigrate(ctx context.Context, cfg *config.Config) {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	defer db.Close()
	log.Printf("Migrations applied (type: %s)", cfg.DatabaseType)
}

func openStore(ctx context.Context, cfg *config.Config) (store, func(), error) {
	switch strings.ToLower(cfg.SessionStore) {
	case "redis":
		rdb, err := repository.NewRedisClient(ctx, repository.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisSessionRepository(rdb, cfg.SessionDuration), func() { rdb.Close() }, nil
	case "database", "":
		db, err := database.Open(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewSessionValueRepository(db, cfg.SessionDuration), func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("session store %q has nothing to maintain", cfg.SessionStore)
	}
}

func printUsage() {
	fmt.Println("EduFinanzas Session Store Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  sessions migrate           Apply pending database migrations")
	fmt.Println("  sessions purge             Remove expired session values")
	fmt.Println("  sessions stats             Count live sessions and values")
	fmt.Println("  sessions clear [-yes]      Log out every user (WARNING: destructive)")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  SESSION_STORE    database or redis (default: database)")
	fmt.Println("  DB_TYPE          Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./edufinanzas_sessions.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
	fmt.Println("  REDIS_ADDR       Redis address (default: localhost:6379)")
}
