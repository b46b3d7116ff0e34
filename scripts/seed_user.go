package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/khoahotran/cloudvid/adapters/persistence"
	"github.com/khoahotran/cloudvid/internal/config"
	"github.com/khoahotran/cloudvid/internal/domain/user"
	"github.com/khoahotran/cloudvid/pkg/auth"
	"github.com/khoahotran/cloudvid/pkg/logger"
)

// Creates or updates a login account from SEED_EMAIL, SEED_PASSWORD and
// optionally SEED_NAME.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}
	appLogger := logger.NewZapLogger(cfg.App.Env)

	email := strings.TrimSpace(os.Getenv("SEED_EMAIL"))
	password := os.Getenv("SEED_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("SEED_EMAIL and SEED_PASSWORD are required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("cannot hash password: %v", err)
	}

	ctx := context.Background()
	pool, err := persistence.NewPostgresPool(ctx, cfg, appLogger)
	if err != nil {
		log.Fatalf("cannot connect DB: %v", err)
	}
	defer pool.Close()

	u := &user.User{ID: uuid.New(), Email: email, PasswordHash: hash}
	if name := strings.TrimSpace(os.Getenv("SEED_NAME")); name != "" {
		u.Name = &name
	}

	if err := persistence.NewPostgresUserRepo(pool, appLogger).Upsert(ctx, u); err != nil {
		log.Fatalf("cannot add user: %v", err)
	}
	log.Printf("added or updated user '%s' (%s)", email, u.ID)
}
