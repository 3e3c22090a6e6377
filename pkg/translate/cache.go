package translate

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultCacheTTL is how long a cached translation stays valid.
	DefaultCacheTTL = time.Hour
	// cacheCleanupInterval is how often expired entries are purged.
	cacheCleanupInterval = 10 * time.Minute
)

// CachedTranslator wraps a Translator with an in-memory TTL cache.
// Repeated lookups for the same (source, target, text) triple are served
// from memory, which matters for the fixed phrases a chat bot repeats
// (greetings, error text, common questions).
type CachedTranslator struct {
	inner  Translator
	cache  *gocache.Cache
	logger *logrus.Logger
}

// NewCachedTranslator creates a caching decorator around inner.
// ttl <= 0 falls back to DefaultCacheTTL.
func NewCachedTranslator(inner Translator, ttl time.Duration, logger *logrus.Logger) *CachedTranslator {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &CachedTranslator{
		inner:  inner,
		cache:  gocache.New(ttl, cacheCleanupInterval),
		logger: logger,
	}
}

func cacheKey(text, sourceLang, targetLang string) string {
	return fmt.Sprintf("%s:%s:%s", sourceLang, targetLang, text)
}

// Translate returns the cached translation when present, otherwise
// delegates to the wrapped translator and caches the result. Errors are
// never cached.
func (c *CachedTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	key := cacheKey(text, sourceLang, targetLang)
	if cached, found := c.cache.Get(key); found {
		recordCacheHit()
		c.logger.WithFields(logrus.Fields{
			"source_lang": sourceLang,
			"target_lang": targetLang,
		}).Debug("Translation served from cache")
		return cached.(string), nil
	}
	recordCacheMiss()

	translated, err := c.inner.Translate(ctx, text, sourceLang, targetLang)
	if err != nil {
		return "", err
	}

	c.cache.Set(key, translated, gocache.DefaultExpiration)
	recordCacheSize(c.cache.ItemCount())

	return translated, nil
}

// CheckHealth delegates to the wrapped translator.
func (c *CachedTranslator) CheckHealth(ctx context.Context) error {
	return c.inner.CheckHealth(ctx)
}

// SupportedLanguages delegates to the wrapped translator.
func (c *CachedTranslator) SupportedLanguages(ctx context.Context) ([]string, error) {
	return c.inner.SupportedLanguages(ctx)
}
