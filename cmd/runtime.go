package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/malik-zulfi/Jiggar-sub000/internal/assessment"
	"github.com/malik-zulfi/Jiggar-sub000/internal/cache"
	"github.com/malik-zulfi/Jiggar-sub000/internal/config"
	"github.com/malik-zulfi/Jiggar-sub000/internal/extraction"
	"github.com/malik-zulfi/Jiggar-sub000/internal/judge/gemini"
	"github.com/malik-zulfi/Jiggar-sub000/internal/logger"
	"github.com/malik-zulfi/Jiggar-sub000/internal/retry"
	"github.com/malik-zulfi/Jiggar-sub000/internal/secrets"
	"github.com/malik-zulfi/Jiggar-sub000/internal/store"
)

const apiKeyEnv = "GEMINI_API_KEY"

var errNoSession = errors.New("no session selected: pass --session or set session in the config")

// env is what every command needs: config, logger and the session store.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	store  store.Store
	close  func()
}

func newEnv(ctx context.Context) (*env, error) {
	log, err := logger.New(logger.Options{
		JSON:    viper.GetBool("json"),
		Debug:   viper.GetBool("debug"),
		Version: version,
	})
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}

	cfg, err := getConfig()
	if err != nil {
		return nil, fmt.Errorf("getting a config: %w", err)
	}

	e := &env{cfg: cfg, logger: log, close: func() { _ = log.Sync() }}

	switch cfg.Store.Backend {
	case config.StorePostgres:
		pg, err := store.Connect(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		e.store = pg
		e.close = func() {
			pg.Close()
			_ = log.Sync()
		}
	default:
		fs, err := store.NewFile(cfg.Store.Dir)
		if err != nil {
			return nil, err
		}
		e.store = fs
	}

	log.Debug("environment ready",
		zap.String("store", cfg.Store.Backend),
		zap.String("cache", cfg.Cache.Backend),
		zap.String("version", version),
	)
	return e, nil
}

func (e *env) session(ctx context.Context) (*assessment.Session, error) {
	if e.cfg.Session == "" {
		return nil, errNoSession
	}
	return e.store.Load(ctx, e.cfg.Session)
}

func (e *env) retrier() *retry.Retrier {
	return retry.New(e.cfg.Retry, e.logger)
}

func (e *env) generator(ctx context.Context) (*gemini.Generator, error) {
	key, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: e.cfg.Judge.APIKey,
		File:  e.cfg.Judge.APIKeyFile,
		Env:   apiKeyEnv,
	})
	if err != nil {
		return nil, err
	}
	return gemini.NewGenerator(ctx, key, e.cfg.Judge.Model, e.logger)
}

func (e *env) assessor(ctx context.Context) (*assessment.Assessor, error) {
	gen, err := e.generator(ctx)
	if err != nil {
		return nil, err
	}
	j := gemini.NewJudge(gen, e.logger, e.cfg.Judge.MaxLogLength)
	j.SetPromptOverrides(gemini.PromptOverrides{
		Focus:            e.cfg.Judge.Focus,
		UserInstructions: e.cfg.Judge.Instructions,
	})
	return assessment.NewAssessor(j, e.retrier(), e.logger), nil
}

func (e *env) extractor(ctx context.Context) (*extraction.CachedExtractor, error) {
	gen, err := e.generator(ctx)
	if err != nil {
		return nil, err
	}

	var c cache.Store
	switch e.cfg.Cache.Backend {
	case config.CacheRedis:
		r := e.cfg.Cache.Redis
		rc, err := cache.NewRedis(ctx, cache.RedisOptions{
			Address:  r.Address,
			Password: r.Password,
			DB:       r.DB,
			Prefix:   r.Prefix,
			TTL:      e.cfg.Cache.TTL,
		})
		if err != nil {
			return nil, err
		}
		c = rc
		release := e.close
		e.close = func() {
			if err := rc.Close(); err != nil {
				e.logger.Warn("closing redis cache", zap.Error(err))
			}
			release()
		}
	default:
		// Lives for this process only; redis is needed for reuse across runs.
		c = cache.NewMemory(e.cfg.Cache.MaxEntries, e.cfg.Cache.TTL)
	}

	ex := gemini.NewExtractor(gen, e.logger, e.cfg.Judge.MaxLogLength)
	return extraction.NewCachedExtractor(ex, c, e.retrier(), e.logger), nil
}

// withEnv runs fn with a ready environment and releases it afterwards.
func withEnv(fn func(ctx context.Context, e *env) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()
	return fn(ctx, e)
}
