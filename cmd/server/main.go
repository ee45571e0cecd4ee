package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	auditlog "ingot/internal/audit"
	auditrepo "ingot/internal/audit/repository"
	authservice "ingot/internal/auth/service"
	"ingot/internal/config"
	"ingot/internal/db"
	devicerepo "ingot/internal/device/repository"
	"ingot/internal/security"
	"ingot/internal/server"
	"ingot/internal/server/interceptors"
	sessionrepo "ingot/internal/session/repository"
	sessionservice "ingot/internal/session/service"
	"ingot/internal/telemetry/otel"
	userrepo "ingot/internal/user/repository"
	userservice "ingot/internal/user/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	if cfg.JWTSigningKeys == "" {
		log.Fatal("JWT_SIGNING_KEYS is not set; provide at least one kid:base64secret pair")
	}

	keys, err := security.ParseKeySet(cfg.JWTSigningKeys)
	if err != nil {
		log.Fatalf("signing keys: %v", err)
	}

	ctx := context.Background()
	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "ingot-server", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	users := userrepo.NewPostgresRepository(conn)
	sessions := sessionrepo.NewPostgresRepository(conn)
	devices := devicerepo.NewPostgresRepository(conn)
	audits := auditrepo.NewPostgresRepository(conn)

	hasher := security.NewHasher(security.DefaultHashParams)
	tokens := security.NewTokenProvider(keys, cfg.JWTIssuer, cfg.AccessTTL(), cfg.RefreshTTL())
	sessionMgr := sessionservice.NewManager(sessions)
	auditLogger := auditlog.NewLogger(audits, interceptors.ClientIP)
	userSvc := userservice.NewUserService(users, hasher)
	authSvc := authservice.NewAuthService(users, devices, sessionMgr, hasher, tokens, cfg.SessionTTL(), auditLogger)

	s, _ := server.New(server.Deps{
		Auth:      authSvc,
		Users:     userSvc,
		Sessions:  sessionMgr,
		Tokens:    tokens,
		AuditRepo: audits,
	})

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer lis.Close()

	go func() {
		log.Printf("gRPC server listening on %s", cfg.GRPCAddr)
		if err := s.Serve(lis); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down gRPC server...")
	s.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry: shutdown: %v", err)
	}
	log.Println("gRPC server stopped")
}
