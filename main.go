package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	goredis "github.com/redis/go-redis/v9"

	"github.com/invoice-ai-manager/server/internal/agent/composer"
	"github.com/invoice-ai-manager/server/internal/agent/model"
	"github.com/invoice-ai-manager/server/internal/agent/repo"
	"github.com/invoice-ai-manager/server/internal/agent/run"
	"github.com/invoice-ai-manager/server/internal/client"
	"github.com/invoice-ai-manager/server/internal/core"
	"github.com/invoice-ai-manager/server/internal/source"
	logx "github.com/invoice-ai-manager/server/pkg/logger"
	pkgredis "github.com/invoice-ai-manager/server/pkg/redis"
)

// AppConfig defines all configurable parameters, sourced from environment
// variables (loaded from .env for local runs).
type AppConfig struct {
	Environment core.Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string           `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Redis pkgredis.Config
	API   client.Config

	// Agent configs
	Agent    model.AgentConfig
	Activity model.ActivityConfig
	Query    model.QueryConfig
	Draft    model.DraftModelConfig
	Sources  model.SourceConfig
}

// loadConfig reads .env (if present) and binds the environment.
func loadConfig(envFile string) (*AppConfig, error) {
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}
	return &cfg, nil
}

// App is everything the commands need, wired from AppConfig.
type App struct {
	Config       *AppConfig
	Client       *client.Client
	Invoices     source.DataSource[model.Invoice]
	Orchestrator *run.Orchestrator
	Activity     model.ActivityRepository
	FollowUps    source.DataSource[model.FollowUp]
	Escalations  source.DataSource[model.Escalation]

	closers []func() error
}

func newApp(ctx context.Context, cfg *AppConfig) (*App, error) {
	logx.Init(logx.LoggerOpts{Environment: cfg.Environment, Level: cfg.LogLevel})

	api, err := client.New(cfg.API, nil)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Client: api, Invoices: source.Invoices(api)}

	var followUpRepo model.FollowUpRepository
	if cfg.Redis.Enabled() {
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("initialise redis client: %w", err)
		}
		app.closers = append(app.closers, rdb.Close)
		app.Activity, followUpRepo = redisRepos(rdb, cfg.Activity)
		logx.Debug().Msg("connected to redis")
	} else {
		logx.Warn().Msg("REDIS_URL not set, activity and follow-ups are kept in memory")
		app.Activity = repo.NewMemoryActivityRepository(cfg.Activity.MaxEntries)
		followUpRepo = repo.NewMemoryFollowUpRepository(cfg.Activity.MaxEntries)
	}

	drafter, err := composer.New(ctx, cfg.Draft)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.FollowUps, err = source.Select[model.FollowUp](cfg.Sources.FollowUps, followUpRepo.List)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("follow-up source: %w", err)
	}
	// no escalation endpoint exists yet, so there is no live fetch to offer
	app.Escalations, err = source.Select[model.Escalation](cfg.Sources.Escalations, nil)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("escalation source: %w", err)
	}

	app.Orchestrator, err = run.New(api, client.EmailSender{Client: api}, cfg.Agent,
		run.WithFollowUps(followUpRepo, drafter),
		run.WithActivity(app.Activity),
	)
	if err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func redisRepos(rdb goredis.Cmdable, cfg model.ActivityConfig) (model.ActivityRepository, model.FollowUpRepository) {
	return repo.NewRedisActivityRepository(rdb, cfg.MaxEntries, cfg.TTL),
		repo.NewRedisFollowUpRepository(rdb, cfg.MaxEntries, cfg.TTL)
}

// Close releases connections opened by newApp.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			logx.Warn().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
