package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cuido/cuidosvc/domain"
	"github.com/cuido/cuidosvc/internal/config"
	"github.com/cuido/cuidosvc/internal/infrastructure/audit"
	"github.com/cuido/cuidosvc/internal/infrastructure/auth"
	"github.com/cuido/cuidosvc/internal/infrastructure/database"
	"github.com/cuido/cuidosvc/internal/infrastructure/notifications"
	"github.com/cuido/cuidosvc/internal/infrastructure/repositories"
	"github.com/cuido/cuidosvc/internal/infrastructure/storage"
	"github.com/cuido/cuidosvc/internal/ratelimit"
	"github.com/cuido/cuidosvc/internal/services"
)

// Container holds all dependencies
type Container struct {
	Config *config.Config
	Log    *zap.Logger
	Clock  domain.Clock

	// Infrastructure
	DB          *gorm.DB
	RedisClient *redis.Client
	Casbin      *auth.CasbinService
	Blobs       domain.BlobStore
	Limiter     *ratelimit.Limiter

	// Repositories
	UserRepo         domain.UserRepository
	SessionRepo      domain.SessionRepository
	RelationshipRepo domain.RelationshipRepository
	ProfileRepo      domain.PatientProfileRepository
	MedicationRepo   domain.MedicationRepository
	AppointmentRepo  domain.AppointmentRepository
	ReminderRepo     domain.ReminderRepository
	ResetTokenRepo   domain.ResetTokenRepository
	DocumentRepo     domain.DocumentRepository
	TaskRepo         domain.TaskRepository
	LogEntryRepo     domain.LogEntryRepository
	ContactRepo      domain.EmergencyContactRepository
	Tx               domain.Transactor

	// Services
	PasswordSvc      domain.PasswordService
	TokenSvc         domain.TokenService
	NotificationSvc  domain.NotificationService
	Notifier         domain.Notifier
	Audit            domain.AuditLogger
	AuthSvc          domain.AuthService
	PasswordResetSvc domain.PasswordResetService
	Guard            domain.AccessGuard
	RelationshipSvc  domain.RelationshipService
	ProfileSvc       domain.PatientProfileService
	ReminderSvc      domain.ReminderService
	MedicationSvc    domain.MedicationService
	AppointmentSvc   domain.AppointmentService
	DocumentSvc      domain.DocumentService
	TaskSvc          domain.TaskService
	LogbookSvc       domain.LogbookService
	ContactSvc       domain.EmergencyContactService
	PolicySvc        domain.PolicyService
	Enforcer         domain.CasbinEnforcer
}

// NewContainer opens the database, Redis and S3 clients and builds every
// service on top of them.
func NewContainer(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Container, error) {
	c := &Container{Config: cfg, Log: log, Clock: domain.SystemClock{}}

	if err := c.initDatabase(); err != nil {
		return nil, err
	}
	if err := c.initRedis(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initStorage(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, c.build()
}

// NewContainerFrom builds the services over already opened connections.
func NewContainerFrom(cfg *config.Config, log *zap.Logger, clock domain.Clock, db *gorm.DB, rdb *redis.Client, blobs domain.BlobStore) (*Container, error) {
	c := &Container{Config: cfg, Log: log, Clock: clock, DB: db, RedisClient: rdb, Blobs: blobs}
	return c, c.build()
}

func (c *Container) build() error {
	c.initRepositories()
	if err := c.initServices(); err != nil {
		c.Close()
		return err
	}
	return nil
}

// NewStoreContainer opens only the database, for maintenance commands.
func NewStoreContainer(cfg *config.Config, log *zap.Logger) (*Container, error) {
	c := &Container{Config: cfg, Log: log, Clock: domain.SystemClock{}}
	if err := c.initDatabase(); err != nil {
		return nil, err
	}
	c.initRepositories()
	return c, nil
}

func (c *Container) initDatabase() error {
	db, err := database.Open(c.Config.DSN, database.Options{
		TablePrefix: c.Config.TablePrefix,
		LogSQL:      c.Config.LogSQL,
	})
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	c.DB = db
	return nil
}

func (c *Container) initRedis(ctx context.Context) error {
	client, err := database.NewRedis(ctx, c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	c.RedisClient = client
	return nil
}

func (c *Container) initStorage(ctx context.Context) error {
	client, err := storage.NewS3Client(ctx, c.Config.S3Region, c.Config.S3Endpoint)
	if err != nil {
		return fmt.Errorf("s3: %w", err)
	}
	c.Blobs = storage.NewS3Store(client, c.Config.S3Bucket)
	return nil
}

func (c *Container) initRepositories() {
	c.UserRepo = repositories.NewUserRepository(c.DB)
	c.RelationshipRepo = repositories.NewRelationshipRepository(c.DB)
	c.ProfileRepo = repositories.NewPatientProfileRepository(c.DB)
	c.MedicationRepo = repositories.NewMedicationRepository(c.DB)
	c.AppointmentRepo = repositories.NewAppointmentRepository(c.DB)
	c.ReminderRepo = repositories.NewReminderRepository(c.DB)
	c.ResetTokenRepo = repositories.NewResetTokenRepository(c.DB)
	c.DocumentRepo = repositories.NewDocumentRepository(c.DB)
	c.TaskRepo = repositories.NewTaskRepository(c.DB)
	c.LogEntryRepo = repositories.NewLogEntryRepository(c.DB)
	c.ContactRepo = repositories.NewEmergencyContactRepository(c.DB)
	c.Tx = repositories.NewTransactor(c.DB)
	if c.RedisClient != nil {
		c.SessionRepo = repositories.NewSessionRepository(c.RedisClient, c.Config.RefreshTTL, c.Clock)
	}
}

func (c *Container) initServices() error {
	cfg := c.Config

	cas, err := auth.NewCasbinService(c.DB, cfg.CasbinModelPath)
	if err != nil {
		return fmt.Errorf("casbin: %w", err)
	}
	c.Casbin = cas
	c.Enforcer = cas.E
	c.PolicySvc = services.NewPolicyService(cas.E)

	c.PasswordSvc = auth.NewPasswordService()
	c.TokenSvc = auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTTL, cfg.RefreshTTL, c.Clock)

	c.NotificationSvc = notifications.NewNotificationService(
		notifications.NewSendGridMailer(cfg.SendGridAPIKey, "", cfg.MailFromName, cfg.MailFrom, c.Log),
		notifications.NewTwilioSMS(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioFrom, c.Log),
	)
	c.Notifier = notifications.NewNotifier(c.NotificationSvc, cfg.AppURL, c.Log)
	c.Audit = audit.NewZapAuditLogger(c.Log)
	c.Limiter = ratelimit.New(ratelimit.Config{Capacity: cfg.RateLimitCapacity, Period: cfg.RateLimitPeriod}, c.Clock)

	c.AuthSvc = services.NewAuthService(
		c.UserRepo,
		c.SessionRepo,
		c.PasswordSvc,
		c.TokenSvc,
		c.Notifier,
		c.Audit,
		c.Clock,
		services.AuthConfig{AccessTTL: cfg.AccessTTL, SessionTTL: cfg.RefreshTTL},
		c.Log,
	)
	c.initCareServices()
	return nil
}

// initCareServices builds the services that need only the database.
func (c *Container) initCareServices() {
	cfg := c.Config
	if c.Audit == nil {
		c.Audit = audit.NewZapAuditLogger(c.Log)
	}

	c.PasswordResetSvc = services.NewPasswordResetService(
		c.UserRepo, c.ResetTokenRepo, c.Tx, c.passwordService(), c.Notifier, c.Audit, c.Clock, cfg.OTPTTL, c.Log)
	c.Guard = services.NewAccessGuard(c.RelationshipRepo, c.Audit, c.Clock, c.Log)
	c.RelationshipSvc = services.NewRelationshipService(c.RelationshipRepo, c.UserRepo, c.ProfileRepo, c.Notifier, c.Audit, c.Clock, c.Log)
	c.ProfileSvc = services.NewPatientProfileService(c.ProfileRepo, c.Guard, c.Clock, c.Log)
	c.ReminderSvc = services.NewReminderService(c.ReminderRepo, c.MedicationRepo, c.AppointmentRepo, c.Guard, c.Tx, cfg.Location, c.Log)
	c.MedicationSvc = services.NewMedicationService(c.MedicationRepo, c.ReminderSvc, c.Guard, c.Tx, c.Clock, c.Log)
	c.AppointmentSvc = services.NewAppointmentService(c.AppointmentRepo, c.ReminderSvc, c.Guard, c.Tx, c.Clock, c.Log)
	c.TaskSvc = services.NewTaskService(c.TaskRepo, c.Guard, c.Tx, c.Clock, c.Log)
	c.LogbookSvc = services.NewLogbookService(c.LogEntryRepo, c.Guard, cfg.Location, c.Clock, c.Log)
	c.ContactSvc = services.NewEmergencyContactService(c.ContactRepo, c.Guard, c.Tx, c.Log)
	if c.Blobs != nil {
		c.DocumentSvc = services.NewDocumentService(c.DocumentRepo, c.Blobs, c.Guard, c.Clock, cfg.MaxUploadBytes, c.Log)
	}
}

func (c *Container) passwordService() domain.PasswordService {
	if c.PasswordSvc == nil {
		c.PasswordSvc = auth.NewPasswordService()
	}
	return c.PasswordSvc
}

// Close closes all connections
func (c *Container) Close() error {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Log.Warn("redis close failed", zap.Error(err))
		}
	}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
