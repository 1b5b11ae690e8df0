package main

import (
	"database/sql"
	"fmt"
	"log"

	"lingoclass/internal/config"
	"lingoclass/internal/repository/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.Environment == "prod" {
		log.Fatal("Refusing to drop production tables")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close() }() // Error ignored: script exiting

	for _, table := range postgres.NewTableNames(cfg.TablePrefix).All() {
		if _, err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)); err != nil {
			log.Fatalf("Failed to drop %s: %v", table, err)
		}
	}

	fmt.Printf("All tables dropped successfully (prefix: %q)\n", cfg.TablePrefix)
}
