package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/EgorLis/eng-community/internal/auth/blacklist"
	"github.com/EgorLis/eng-community/internal/auth/password"
	"github.com/EgorLis/eng-community/internal/auth/token"
	"github.com/EgorLis/eng-community/internal/config"
	kvmem "github.com/EgorLis/eng-community/internal/infra/cache/memory"
	redisx "github.com/EgorLis/eng-community/internal/infra/cache/redis"
	"github.com/EgorLis/eng-community/internal/infra/database/memory"
	"github.com/EgorLis/eng-community/internal/infra/database/postgres"
	s3storage "github.com/EgorLis/eng-community/internal/infra/storage/s3"
	"github.com/EgorLis/eng-community/internal/transport/web"
)

type App struct {
	config  *config.Config
	server  *web.Server
	log     *log.Logger
	closers []func()
}

func Build(ctx context.Context) (*App, error) {
	base := log.New(os.Stdout, "[app] ", log.LstdFlags)

	serverLog := log.New(base.Writer(), base.Prefix()+"[server] ", base.Flags())

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed load config: %w", err)
	}
	base.Printf("\n  configuration: %s-------------------", cfg)

	a := &App{config: cfg, log: base}
	var deps web.Deps
	var kv blacklist.KV

	switch cfg.AppStorage {
	case config.StorageMemory:
		deps, kv = buildMemory(base)
	default:
		deps, kv, err = a.buildInfra(ctx, cfg, base)
		if err != nil {
			a.close()
			return nil, err
		}
	}

	// Auth primitives
	deps.Auth = web.AuthDeps{
		Hasher:    password.NewDefault(),
		Tokens:    token.New(cfg.AuthJWTSecret, cfg.AuthIssuer, cfg.AuthAccessTTL, cfg.AuthRefreshTTL),
		Blacklist: blacklist.NewStore(kv),
	}

	base.Println("init Server")
	a.server = web.New(serverLog, cfg, deps)
	base.Println("Server is initialized")

	base.Println("build ended")
	return a, nil
}

func (a *App) buildInfra(ctx context.Context, cfg *config.Config, base *log.Logger) (web.Deps, blacklist.KV, error) {
	pgLog := log.New(base.Writer(), base.Prefix()+"[postgres] ", base.Flags())
	s3Log := log.New(base.Writer(), base.Prefix()+"[s3] ", base.Flags())
	redisLog := log.New(base.Writer(), base.Prefix()+"[redis] ", base.Flags())

	base.Println("init PostgreSQL")
	pgRepo, err := postgres.NewPGRepo(ctx, pgLog, cfg.GetDSN(), cfg.DBScheme)
	if err != nil {
		return web.Deps{}, nil, fmt.Errorf("failed init postgres: %w", err)
	}
	a.closers = append(a.closers, pgRepo.Close)
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
		return web.Deps{}, nil, fmt.Errorf("failed init s3: %w", err)
	}
	base.Println("S3 storage is initialized")

	base.Println("init Redis")
	rc := redisx.New(redisx.Config{
		Addr:     cfg.RedisAddr,
		DB:       cfg.RedisDB,
		Password: cfg.RedisPassword,
	}, redisLog)
	a.closers = append(a.closers, rc.Close)
	if err := rc.Ping(ctx); err != nil {
		return web.Deps{}, nil, fmt.Errorf("failed init redis: %w", err)
	}
	base.Println("Redis is initialized")

	deps := web.Deps{
		Repos:   web.Repos{Users: pgRepo, Votes: pgRepo, Posts: pgRepo},
		Storage: s3,
		Cache:   rc,
	}
	return deps, rc, nil
}

// buildMemory — всё в памяти процесса, медиа отключены
func buildMemory(base *log.Logger) (web.Deps, blacklist.KV) {
	base.Println("init in-memory storage (data is lost on restart, media disabled)")
	repo := memory.New()
	kv := kvmem.New()

	p := repo.AddPost(uuid.Nil, "Welcome to the English community", "Say hi and vote for this post.")
	base.Printf("seeded post id=%s", p.ID)

	deps := web.Deps{
		Repos: web.Repos{Users: repo, Votes: repo, Posts: repo},
		Cache: kv,
	}
	return deps, kv
}

func (a *App) Run(ctx context.Context) error {
	a.log.Println("start application...")
	go a.server.Run()
	<-ctx.Done()
	a.log.Println("stop application...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.server.Close(stopCtx)
	a.close()

	return nil
}

// close — в обратном порядке открытия
func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
