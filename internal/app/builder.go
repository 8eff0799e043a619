package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dharti-patel/hipster-image-upload/internal/config"
	"github.com/dharti-patel/hipster-image-upload/internal/domain"
	"github.com/dharti-patel/hipster-image-upload/internal/importer"
	redisx "github.com/dharti-patel/hipster-image-upload/internal/infra/cache/redis"
	"github.com/dharti-patel/hipster-image-upload/internal/infra/database/postgres"
	s3storage "github.com/dharti-patel/hipster-image-upload/internal/infra/storage/s3"
	"github.com/dharti-patel/hipster-image-upload/internal/transport/web"
	"github.com/dharti-patel/hipster-image-upload/internal/upload"
)

type App struct {
	config  *config.Config
	server  *web.Server
	log     *log.Logger
	storage domain.BlobStorage
	cache   domain.Cache
	repo    domain.SessionsRepo
}

func Build(ctx context.Context) (*App, error) {
	base := log.New(os.Stdout, "[app] ", log.LstdFlags)

	serverLog := log.New(base.Writer(), base.Prefix()+"[server] ", base.Flags())
	pgLog := log.New(base.Writer(), base.Prefix()+"[postgres] ", base.Flags())
	s3Log := log.New(base.Writer(), base.Prefix()+"[s3] ", base.Flags())
	redisLog := log.New(base.Writer(), base.Prefix()+"[redis] ", base.Flags())
	uploadLog := log.New(base.Writer(), base.Prefix()+"[upload] ", base.Flags())
	importLog := log.New(base.Writer(), base.Prefix()+"[import] ", base.Flags())

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed load config: %w", err)
	}
	base.Printf("\n  configuration: %s-------------------", cfg)

	base.Println("init PostgreSQL")
	pgRepo, err := postgres.NewPGRepo(ctx, pgLog, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed init postgres: %w", err)
	}
	base.Println("PostgreSQL is initialized")

	base.Println("init S3 storage")
	s3cfg := s3storage.Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		UseSSL:    cfg.S3UseSSL,
		PathStyle: cfg.S3PathStyle,
	}
	s3, err := s3storage.New(ctx, s3cfg, s3Log)
	if err != nil {
		return nil, fmt.Errorf("failed init s3: %w", err)
	}

	base.Println("init Redis")
	rc := redisx.New(redisx.Config{
		Addr:     cfg.RedisAddr,
		DB:       cfg.RedisDB,
		Password: cfg.RedisPassword,
	}, redisLog)
	if err := rc.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed init redis: %w", err)
	}
	base.Println("Redis is initialized")

	// Ядро пайплайна
	deriver := upload.NewDeriver(uploadLog, s3, cfg.VariantNames(), upload.CopyStrategy{})
	uploads := upload.NewService(uploadLog, pgRepo, pgRepo, s3, rc, deriver, cfg.LockTTLSeconds())
	imports := importer.NewService(importLog, pgRepo, pgRepo)

	base.Println("init Server")
	server := web.New(serverLog, cfg, web.Deps{
		Uploads:  uploads,
		Imports:  imports,
		Products: pgRepo,
		Assets:   pgRepo,
		DB:       pgRepo,
		Cache:    rc,
		Storage:  s3,
	})
	base.Println("Server is initialized")

	base.Println("build ended")
	return &App{
		config:  cfg,
		server:  server,
		log:     base,
		storage: s3,
		repo:    pgRepo,
		cache:   rc}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Println("start application...")
	go a.server.Run()
	<-ctx.Done()
	a.log.Println("stop application...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.server.Close(stopCtx)
	a.repo.Close()
	a.cache.Close()

	return nil
}
