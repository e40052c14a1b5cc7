package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lakgs-api/internal/models"
	"github.com/noah-isme/lakgs-api/internal/repository"
	appErrors "github.com/noah-isme/lakgs-api/pkg/errors"
)

const (
	explainNamespace  = "explain"
	defaultExplainTTL = 24 * time.Hour
)

// ExplanationStore persists JSON payloads under a key with a TTL.
type ExplanationStore interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type cachedExplanation struct {
	Topic    string    `json:"topic"`
	Level    string    `json:"level"`
	Markdown string    `json:"markdown"`
	StoredAt time.Time `json:"stored_at"`
}

// ExplanationCache keeps model explanations per topic and level. A nil cache
// always misses; store failures are logged and treated as misses.
type ExplanationCache struct {
	store   ExplanationStore
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewExplanationCache wraps store. A zero ttl falls back to one day.
func NewExplanationCache(store ExplanationStore, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *ExplanationCache {
	if ttl <= 0 {
		ttl = defaultExplainTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExplanationCache{store: store, metrics: metrics, ttl: ttl, logger: logger, now: time.Now}
}

func explanationKey(topic string, level models.ExplainLevel) string {
	return repository.CacheKey(explainNamespace, topic, string(level))
}

// Lookup returns the cached markdown for topic at level.
func (c *ExplanationCache) Lookup(ctx context.Context, topic string, level models.ExplainLevel) (string, bool) {
	if c == nil || c.store == nil {
		return "", false
	}
	start := time.Now()
	var entry cachedExplanation
	err := c.store.Get(ctx, explanationKey(topic, level), &entry)
	hit := err == nil && entry.Topic == topic && entry.Markdown != ""
	if c.metrics != nil {
		c.metrics.RecordCacheOperation(hit, time.Since(start))
	}
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		c.logger.Warn("explanation cache read failed", zap.String("topic", topic), zap.Error(err))
	}
	if !hit {
		return "", false
	}
	return entry.Markdown, true
}

// Store saves markdown for topic at level. Empty answers are not kept.
func (c *ExplanationCache) Store(ctx context.Context, topic string, level models.ExplainLevel, markdown string) {
	if c == nil || c.store == nil || markdown == "" {
		return
	}
	entry := cachedExplanation{Topic: topic, Level: string(level), Markdown: markdown, StoredAt: c.now().UTC()}
	start := time.Now()
	err := c.store.Set(ctx, explanationKey(topic, level), entry, c.ttl)
	if c.metrics != nil {
		c.metrics.ObserveCacheWrite(time.Since(start))
	}
	if err != nil {
		c.logger.Warn("explanation cache write failed", zap.String("topic", topic), zap.Error(err))
	}
}
