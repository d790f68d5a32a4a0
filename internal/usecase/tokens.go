package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/polkiloo/golightpay/internal/cache"
	"github.com/polkiloo/golightpay/internal/metrics"
)

const tokenCachePrefix = "lightpay_tokens_"

// DefaultTokenCacheTTL applies when the catalog is built with a non-positive TTL.
const DefaultTokenCacheTTL = 24 * time.Hour

// FallbackTokens is the accepted token set used until the processor exposes a
// token discovery endpoint.
func FallbackTokens(currency string) []string {
	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case "USD":
		return []string{"USDC", "USDT"}
	case "EUR":
		return []string{"EURC"}
	default:
		return []string{"USDC"}
	}
}

// TokenCatalog resolves the tokens accepted for a currency, cached per currency.
type TokenCatalog struct {
	cache  cache.Cache
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewTokenCatalog constructs TokenCatalog.
func NewTokenCatalog(c cache.Cache, ttl time.Duration, logger *slog.Logger) *TokenCatalog {
	if ttl <= 0 {
		ttl = DefaultTokenCacheTTL
	}
	return &TokenCatalog{cache: c, ttl: ttl, logger: logger}
}

// AcceptedTokens never fails: cache problems degrade to the fallback table.
func (c *TokenCatalog) AcceptedTokens(ctx context.Context, currency string) []string {
	key := tokenCachePrefix + strings.ToUpper(strings.TrimSpace(currency))

	v, _, _ := c.group.Do(key, func() (any, error) {
		raw, err := c.cache.Get(ctx, key)
		switch {
		case err == nil && raw != "":
			metrics.IncTokenCache("hit")
			return strings.Split(raw, ","), nil
		case err != nil && !errors.Is(err, cache.ErrMiss):
			metrics.IncTokenCache("error")
			c.logger.Warn("token cache read failed", slog.String("key", key), slog.Any("error", err))
			return FallbackTokens(currency), nil
		}

		metrics.IncTokenCache("miss")
		tokens := FallbackTokens(currency)
		if err := c.cache.Set(ctx, key, strings.Join(tokens, ","), c.ttl); err != nil {
			c.logger.Warn("token cache write failed", slog.String("key", key), slog.Any("error", err))
		}
		return tokens, nil
	})

	tokens := v.([]string)
	out := make([]string, len(tokens))
	copy(out, tokens)
	return out
}
