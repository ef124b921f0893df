package main

import (
	"errors"
	"flag"
	"log"
	"strings"

	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/noah-isme/backend-pos/internal/config"
)

func main() {
	var (
		source = flag.String("source", "file://migrations", "migration source URL")
		down   = flag.Bool("down", false, "roll back all migrations instead of applying them")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	m, err := migrate.New(*source, databaseURL(cfg.DatabaseURL))
	if err != nil {
		log.Fatalf("open migrations: %v", err)
	}
	defer func() {
		if _, err := m.Close(); err != nil {
			log.Printf("close migrations: %v", err)
		}
	}()

	if *down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("run migrations: %v", err)
	}
	log.Println("migrations complete")
}

// databaseURL rewrites the connection scheme for the migrate pgx/v5 driver.
func databaseURL(url string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(url, scheme) {
			return "pgx5://" + strings.TrimPrefix(url, scheme)
		}
	}
	return url
}
