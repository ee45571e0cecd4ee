// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev user already exists.
package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"ingot/internal/config"
	"ingot/internal/db"
	devicedomain "ingot/internal/device/domain"
	devicerepo "ingot/internal/device/repository"
	"ingot/internal/security"
	userdomain "ingot/internal/user/domain"
	userrepo "ingot/internal/user/repository"
)

const (
	devUsername = "dev_user"
	devPassword = "Dev!passw0rd"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(conn)
	devices := devicerepo.NewPostgresRepository(conn)

	existing, err := users.GetByUsername(ctx, devUsername)
	if err != nil {
		log.Fatalf("seed: lookup dev user: %v", err)
	}
	if existing != nil {
		log.Printf("seed: dev user %q already exists, skipping", devUsername)
		return
	}

	hasher := security.NewHasher(security.DefaultHashParams)
	hash, err := hasher.Hash(devPassword)
	if err != nil {
		log.Fatalf("seed: hash password: %v", err)
	}

	now := time.Now().UTC()
	user := &userdomain.User{
		ID:           uuid.New().String(),
		Username:     devUsername,
		PasswordHash: hash,
		Status:       userdomain.UserStatusActive,
		IsVerified:   true,
		Onboarded:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, user); err != nil {
		log.Fatalf("seed: create dev user: %v", err)
	}

	device := &devicedomain.Device{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		UserAgent: "seed/dev",
		Status:    devicedomain.DeviceStatusActive,
		CreatedAt: now,
	}
	if err := devices.Create(ctx, device); err != nil {
		log.Fatalf("seed: create dev device: %v", err)
	}

	log.Printf("seed: created dev user %q (id %s) with device %s", devUsername, user.ID, device.ID)
}
