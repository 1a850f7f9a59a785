package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"realm-uploads/internal/attachments"
	"realm-uploads/internal/avatars"
	"realm-uploads/internal/emoji"
	"realm-uploads/internal/exports"
	"realm-uploads/internal/onboarding"
	"realm-uploads/internal/realms"
	"realm-uploads/internal/shared/config"
	"realm-uploads/internal/shared/server"
	"realm-uploads/internal/shared/server/middleware"
	"realm-uploads/internal/shared/storage/db"
	"realm-uploads/internal/shared/storage/object"
	localstore "realm-uploads/internal/shared/storage/object/local"
	miniostore "realm-uploads/internal/shared/storage/object/minio"
	s3store "realm-uploads/internal/shared/storage/object/s3"
	"realm-uploads/internal/shared/telemetry"
	"realm-uploads/internal/users"
)

const (
	localAvatarBucket  = "avatars"
	localUploadsBucket = "uploads"
	localObjectsPath   = "/local-objects"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config  config.Config
	Router  *gin.Engine
	DB      *sql.DB
	Backend *object.Backend
	// LocalObjects is set only for OBJECT_STORE=local.
	LocalObjects *localstore.Handler

	UsersRepo       users.Repo
	RealmsRepo      realms.Repo
	AttachmentsRepo attachments.Repo
	EmojiRepo       emoji.Repo
	ExportsRepo     exports.Repo
	OnboardingRepo  onboarding.Repo

	UsersService       *users.Service
	AvatarsService     *avatars.Service
	OnboardingService  *onboarding.Service
	AttachmentsService *attachments.Service
	RealmsService      *realms.Service
	EmojiService       *emoji.Service
	ExportsService     *exports.Service

	UsersHandler       *users.Handler
	AvatarsHandler     *avatars.Handler
	OnboardingHandler  *onboarding.Handler
	AttachmentsHandler *attachments.Handler
	RealmsHandler      *realms.Handler
	EmojiHandler       *emoji.Handler
	ExportsHandler     *exports.Handler
}

// Build wires configuration, storage, services and routes.
func Build(cfg config.Config) (*App, error) {
	return BuildContext(context.Background(), cfg)
}

// BuildContext is Build with a caller-supplied context for the startup calls.
func BuildContext(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, DB: sqlDB}

	avatarBucket, uploadsBucket, err := buildBuckets(ctx, app)
	if err != nil {
		return nil, err
	}
	backend, err := object.NewBackend(ctx, object.Config{
		AvatarBucket:        avatarBucket,
		UploadsBucket:       uploadsBucket,
		PublicURLPrefix:     cfg.S3PublicURLPrefix,
		UploadsStorageClass: cfg.S3UploadsStorageClass,
	})
	if err != nil {
		return nil, fmt.Errorf("build upload backend: %w", err)
	}
	app.Backend = backend

	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            cfg,
		Health:            server.NewHealth(sqlDB, cfg.ObjectStoreType),
		UsersHandler:      app.UsersHandler,
		AvatarsHandler:    app.AvatarsHandler,
		OnboardingHandler: app.OnboardingHandler,
		AttachmentHandler: app.AttachmentsHandler,
		RealmsHandler:     app.RealmsHandler,
		EmojiHandler:      app.EmojiHandler,
		ExportsHandler:    app.ExportsHandler,
		LocalObjects:      app.LocalObjects,
		RateLimiter:       middleware.NewRateLimiter(nil),
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"object_store": cfg.ObjectStoreType,
		"database":     sqlDB != nil,
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, &config.ConfigError{Key: "DATABASE_URL", Reason: "required"}
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultLambdaOptions()))
	} else {
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildBuckets(ctx context.Context, app *App) (object.Bucket, object.Bucket, error) {
	cfg := app.Config
	switch cfg.ObjectStoreType {
	case "s3":
		avatarBucket, err := s3store.New(ctx, s3Options(cfg, cfg.S3AvatarBucket))
		if err != nil {
			return nil, nil, err
		}
		uploadsBucket, err := s3store.New(ctx, s3Options(cfg, cfg.S3AuthUploadsBucket))
		if err != nil {
			return nil, nil, err
		}
		return avatarBucket, uploadsBucket, nil
	case "minio":
		avatarBucket, err := miniostore.New(minioOptions(cfg, cfg.S3AvatarBucket))
		if err != nil {
			return nil, nil, err
		}
		uploadsBucket, err := miniostore.New(minioOptions(cfg, cfg.S3AuthUploadsBucket))
		if err != nil {
			return nil, nil, err
		}
		return avatarBucket, uploadsBucket, nil
	default:
		baseURL := strings.TrimSpace(cfg.LocalStoreBaseURL)
		if baseURL == "" {
			baseURL = localObjectsPath
		}
		dir := filepath.Clean(cfg.LocalStoreDir)
		avatarBucket, err := localstore.New(localstore.Options{
			Name:       localAvatarBucket,
			BaseDir:    dir,
			BaseURL:    baseURL,
			SigningKey: cfg.LocalStoreSigningKey,
			Public:     true,
		})
		if err != nil {
			return nil, nil, err
		}
		uploadsBucket, err := localstore.New(localstore.Options{
			Name:       localUploadsBucket,
			BaseDir:    dir,
			BaseURL:    baseURL,
			SigningKey: cfg.LocalStoreSigningKey,
		})
		if err != nil {
			return nil, nil, err
		}
		app.LocalObjects = localstore.NewHandler(avatarBucket, uploadsBucket)
		return avatarBucket, uploadsBucket, nil
	}
}

func s3Options(cfg config.Config, bucket string) s3store.Options {
	return s3store.Options{
		Bucket:          bucket,
		Region:          cfg.S3Region,
		AccessKey:       cfg.S3AccessKey,
		SecretKey:       cfg.S3SecretKey,
		EndpointURL:     cfg.S3EndpointURL,
		AddressingStyle: cfg.S3AddressingStyle,
		Prefix:          cfg.S3KeyPrefix,
		KMSKeyID:        cfg.S3KMSKeyID,
		SkipProxy:       cfg.S3SkipProxy,
	}
}

func minioOptions(cfg config.Config, bucket string) miniostore.Options {
	return miniostore.Options{
		Bucket:          bucket,
		EndpointURL:     cfg.S3EndpointURL,
		Region:          cfg.S3Region,
		AccessKey:       cfg.S3AccessKey,
		SecretKey:       cfg.S3SecretKey,
		UseSSL:          cfg.MinioUseSSL,
		AddressingStyle: cfg.S3AddressingStyle,
		SkipProxy:       cfg.S3SkipProxy,
	}
}

func buildServices(app *App) {
	cfg := app.Config
	if app.DB != nil {
		app.UsersRepo = &users.PGRepo{DB: app.DB}
		app.RealmsRepo = &realms.PGRepo{DB: app.DB}
		app.AttachmentsRepo = &attachments.PGRepo{DB: app.DB}
		app.EmojiRepo = &emoji.PGRepo{DB: app.DB}
		app.ExportsRepo = &exports.PGRepo{DB: app.DB}
		app.OnboardingRepo = &onboarding.PGRepo{DB: app.DB}
	} else {
		app.UsersRepo = users.NewMemoryRepo()
		app.RealmsRepo = realms.NewMemoryRepo()
		app.AttachmentsRepo = attachments.NewMemoryRepo()
		app.EmojiRepo = emoji.NewMemoryRepo()
		app.ExportsRepo = exports.NewMemoryRepo()
		app.OnboardingRepo = onboarding.NewMemoryRepo()
	}

	resolver := &avatars.Resolver{
		Store:            app.Backend,
		EnableGravatar:   cfg.EnableGravatar,
		DefaultAvatarURI: cfg.DefaultAvatarURI,
		StaticURLPrefix:  cfg.StaticURLPrefix,
		Salt:             cfg.AvatarSalt,
	}

	app.UsersService = users.NewService(app.UsersRepo)
	app.AvatarsService = avatars.NewService(app.UsersRepo, app.Backend, resolver, cfg.MaxAvatarBytes())
	app.OnboardingService = onboarding.NewService(app.OnboardingRepo, cfg.TutorialEnabled)
	app.AttachmentsService = attachments.NewService(app.AttachmentsRepo, app.Backend, cfg.MaxFileUploadBytes())
	app.RealmsService = realms.NewService(app.RealmsRepo, app.Backend, cfg.EnableGravatar, cfg.StaticURLPrefix, cfg.MaxAvatarBytes())
	app.EmojiService = emoji.NewService(app.EmojiRepo, app.Backend, cfg.MaxEmojiBytes())
	app.ExportsService = exports.NewService(app.ExportsRepo, app.Backend)

	app.UsersHandler = users.NewHandler(app.UsersService)
	app.AvatarsHandler = avatars.NewHandler(app.AvatarsService)
	app.OnboardingHandler = onboarding.NewHandler(app.OnboardingService)
	app.AttachmentsHandler = attachments.NewHandler(app.AttachmentsService)
	app.RealmsHandler = realms.NewHandler(app.RealmsService)
	app.EmojiHandler = emoji.NewHandler(app.EmojiService)
	app.ExportsHandler = exports.NewHandler(app.ExportsService)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
