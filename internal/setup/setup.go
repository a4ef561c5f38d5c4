package setup

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/timevault-dev/timevault/internal/config"
	"github.com/timevault-dev/timevault/internal/handler"
	"github.com/timevault-dev/timevault/internal/middleware"
	"github.com/timevault-dev/timevault/internal/service"
	"github.com/timevault-dev/timevault/internal/storage/fs"
	"github.com/timevault-dev/timevault/internal/storage/pg"
	"github.com/timevault-dev/timevault/internal/storage/redisq"
	"github.com/timevault-dev/timevault/internal/storage/s3"
)

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config  *config.Config
	Storage *pg.Storage
	Handler *handler.Handler
	Auth    *middleware.Auth
	Janitor *service.MediaJanitor
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(cfg)
	if err != nil {
		return nil, err
	}

	media, err := newMediaStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queue, err := newCleanupQueue(cfg)
	if err != nil {
		return nil, err
	}

	clock := service.SystemClock{}
	capsule := service.NewCapsule(storage, media, queue, clock)
	image := service.NewImage(storage, media, clock)
	janitor := service.NewMediaJanitor(media, queue)

	h := handler.New(capsule, image, cfg)
	auth := middleware.NewAuth(cfg.JwtKey())

	return &Dependencies{
		Config:  cfg,
		Storage: storage,
		Handler: h,
		Auth:    auth,
		Janitor: janitor,
	}, nil
}

func newMediaStorage(ctx context.Context, cfg *config.Config) (service.MediaStorage, error) {
	m := cfg.Public.Media
	switch m.Backend {
	case "fs":
		return fs.New(m.Root)
	case "s3":
		return s3.New(ctx, m.Bucket, m.Region, m.Endpoint)
	default:
		return nil, fmt.Errorf("unknown media backend %q", m.Backend)
	}
}

func newCleanupQueue(cfg *config.Config) (service.CleanupQueue, error) {
	switch cfg.Public.CleanupQueue {
	case "redis":
		rc := cfg.Redis()
		return redisq.NewRedis(&redis.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB})
	case "memory", "":
		return redisq.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown cleanup queue %q", cfg.Public.CleanupQueue)
	}
}
