// Package extraction turns raw postings into requirement models, reusing
// earlier results for identical posting text.
package extraction

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/malik-zulfi/Jiggar-sub000/internal/cache"
	"github.com/malik-zulfi/Jiggar-sub000/internal/judge"
	"github.com/malik-zulfi/Jiggar-sub000/internal/requirements"
	"github.com/malik-zulfi/Jiggar-sub000/internal/retry"
	"go.uber.org/zap"
)

const cacheNamespace = "requirement-model"

// CachedExtractor calls the extractor through the retry policy and keeps the
// result in a content-addressed store.
type CachedExtractor struct {
	extractor judge.Extractor
	store     cache.Store
	retrier   *retry.Retrier
	logger    *zap.Logger
}

var _ judge.Extractor = (*CachedExtractor)(nil)

func NewCachedExtractor(extractor judge.Extractor, store cache.Store, retrier *retry.Retrier, logger *zap.Logger) *CachedExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedExtractor{extractor: extractor, store: store, retrier: retrier, logger: logger}
}

// Extract returns a fresh copy on every call, so callers may edit the model freely.
func (c *CachedExtractor) Extract(ctx context.Context, postingText string) (*requirements.Model, error) {
	if c.extractor == nil {
		return nil, errors.New("extractor is not configured")
	}

	key := cache.Key(cacheNamespace, postingText)
	log := c.logger.With(zap.String("cache_key", key))

	if c.store != nil {
		if model, ok := c.lookup(ctx, key, log); ok {
			log.Debug("requirement model served from cache")
			return model, nil
		}
	}

	model, err := retry.Do(ctx, c.retrier, "extract requirements", func(ctx context.Context) (*requirements.Model, error) {
		return c.extractor.Extract(ctx, postingText)
	})
	if err != nil {
		return nil, err
	}

	if c.store != nil {
		payload, err := json.Marshal(model)
		if err != nil {
			log.Warn("could not encode requirement model for cache", zap.Error(err))
		} else if err := c.store.Set(ctx, key, payload); err != nil {
			log.Warn("could not store requirement model in cache", zap.Error(err))
		}
	}

	return model, nil
}

func (c *CachedExtractor) lookup(ctx context.Context, key string, log *zap.Logger) (*requirements.Model, bool) {
	payload, ok, err := c.store.Get(ctx, key)
	if err != nil {
		log.Warn("cache lookup failed", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var model requirements.Model
	if err := json.Unmarshal(payload, &model); err != nil {
		log.Warn("discarding unreadable cache entry", zap.Error(err))
		return nil, false
	}
	if err := model.Validate(); err != nil {
		log.Warn("discarding invalid cache entry", zap.Error(err))
		return nil, false
	}
	return &model, true
}
