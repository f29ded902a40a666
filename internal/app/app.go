package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cuido/cuidosvc/internal/config"
	httpx "github.com/cuido/cuidosvc/internal/http"
	"github.com/cuido/cuidosvc/internal/http/handlers"
	"github.com/cuido/cuidosvc/internal/http/middleware"
	"github.com/cuido/cuidosvc/internal/infrastructure/auth"
	"github.com/cuido/cuidosvc/internal/infrastructure/database"
	"github.com/cuido/cuidosvc/internal/services"
)

const shutdownTimeout = 10 * time.Second

// Router builds the HTTP handler tree from the container.
func (c *Container) Router() *gin.Engine {
	loc := c.Config.Location
	h := httpx.Handlers{
		Auth:          handlers.NewAuthHandlers(c.AuthSvc, c.PasswordResetSvc),
		Relationships: handlers.NewRelationshipHandlers(c.RelationshipSvc),
		Patients:      handlers.NewPatientHandlers(c.ProfileSvc, c.Guard),
		Medications:   handlers.NewMedicationHandlers(c.MedicationSvc, c.Guard, loc),
		Appointments:  handlers.NewAppointmentHandlers(c.AppointmentSvc, c.Guard),
		Reminders:     handlers.NewReminderHandlers(c.ReminderSvc, c.Guard, loc),
		Documents:     handlers.NewDocumentHandlers(c.DocumentSvc, c.Guard),
		Tasks:         handlers.NewTaskHandlers(c.TaskSvc, c.Guard, loc),
		Logbook:       handlers.NewLogbookHandlers(c.LogbookSvc, c.Guard, loc),
		Contacts:      handlers.NewContactHandlers(c.ContactSvc, c.Guard),
		Policies:      handlers.NewPolicyHandlers(c.PolicySvc),
	}
	jwtMW := middleware.NewAuthMW(c.TokenSvc, c.SessionRepo)
	casbinMW := middleware.NewCasbinMW(c.Enforcer, c.Audit, c.Log)
	return httpx.BuildRouter(h, jwtMW, casbinMW, c.Limiter, c.Log)
}

// Migrate creates or updates the schema and seeds the default route
// policies when none exist.
func Migrate(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	c, err := NewStoreContainer(cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := database.AutoMigrate(c.DB, log); err != nil {
		return err
	}
	cas, err := auth.NewCasbinService(c.DB, cfg.CasbinModelPath)
	if err != nil {
		return fmt.Errorf("casbin: %w", err)
	}
	n, err := cas.SeedDefaults()
	if err != nil {
		return fmt.Errorf("seed policies: %w", err)
	}
	log.Info("migration complete", zap.Int("policies_seeded", n))
	return nil
}

// SweepOnce deletes expired password reset codes a single time.
func SweepOnce(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	c, err := NewStoreContainer(cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	c.initCareServices()
	n, err := c.PasswordResetSvc.SweepExpired(ctx)
	if err != nil {
		return err
	}
	log.Info("expired reset codes removed", zap.Int64("count", n))
	return nil
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	gin.SetMode(cfg.GinMode)

	if err := Migrate(ctx, cfg, log); err != nil {
		return err
	}

	c, err := NewContainer(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	sweeper := services.NewSweeper(c.PasswordResetSvc, cfg.OTPSweepInterval, log, c.Limiter)
	go func() {
		if err := sweeper.Run(sweepCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("sweeper stopped", zap.Error(err))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	stopSweeper()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Check pings the database and Redis.
func Check(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	c, err := NewStoreContainer(cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	log.Info("database reachable")

	client, err := database.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer client.Close()
	log.Info("redis reachable", zap.String("addr", cfg.RedisAddr))
	return nil
}
