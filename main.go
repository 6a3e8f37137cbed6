package main

import (
	"context"
	"log"
	"time"

	"github.com/achievehub/achievehub/config"
	"github.com/achievehub/achievehub/controllers"
	"github.com/achievehub/achievehub/routes"
	"github.com/achievehub/achievehub/store"
	"github.com/achievehub/achievehub/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	s, err := store.Connect(ctx, cfg)
	if err != nil {
		utils.Sugar.Fatalf("failed to connect to MongoDB: %v", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = s.Close(shutdownCtx)
	}()
	defer utils.CloseRedis()

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		hash, err := utils.HashPassword(cfg.AdminPassword)
		if err != nil {
			utils.Sugar.Fatalf("failed to hash admin password: %v", err)
		}
		if err := s.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminUsername, hash); err != nil {
			utils.Sugar.Fatalf("failed to seed admin account: %v", err)
		}
	} else {
		utils.Sugar.Warn("ADMIN_EMAIL or ADMIN_PASSWORD unset, skipping admin seeding")
	}

	media, err := utils.NewMediaStore(cfg)
	if err != nil {
		utils.Sugar.Fatalf("failed to initialize media store: %v", err)
	}

	verifier := &controllers.GoogleVerifier{ClientID: cfg.GoogleClientID}
	c := routes.NewControllers(s, media, verifier)
	router := routes.SetupRouter(s, c)

	utils.Sugar.Infof("listening on :%s", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, router); err != nil {
		utils.Sugar.Fatalf("server error: %v", err)
	}
}
