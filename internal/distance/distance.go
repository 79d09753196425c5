// Package distance resolves road distances between places for the transport surcharge.
package distance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lookup returns the driving distance in kilometres from origin to destination.
type Lookup interface {
	DistanceKM(ctx context.Context, origin, destination string) (float64, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, origin, destination string) (float64, error)

func (f LookupFunc) DistanceKM(ctx context.Context, origin, destination string) (float64, error) {
	return f(ctx, origin, destination)
}

// ErrNoRoute is returned when the provider answers but has no usable route.
var ErrNoRoute = errors.New("no route between places")

// Cached memoizes successful lookups. Failures are never cached.
type Cached struct {
	next   Lookup
	cache  CacheClient
	ttl    time.Duration
	logger *slog.Logger
}

func NewCached(next Lookup, cache CacheClient, ttl time.Duration, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cached{next: next, cache: cache, ttl: ttl, logger: logger}
}

// CacheKey builds a deterministic key from the normalized place names.
func CacheKey(origin, destination string) string {
	sum := sha256.Sum256([]byte(normalizePlace(origin) + "|" + normalizePlace(destination)))
	return hex.EncodeToString(sum[:16])
}

func normalizePlace(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func (c *Cached) DistanceKM(ctx context.Context, origin, destination string) (float64, error) {
	key := CacheKey(origin, destination)
	if raw, err := c.cache.Get(ctx, key); err == nil {
		if km, perr := strconv.ParseFloat(string(raw), 64); perr == nil {
			c.logger.Debug("distance.cache.hit", "destination", destination, "km", km)
			return km, nil
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("distance.cache.get_error", "error", err)
	}

	km, err := c.next.DistanceKM(ctx, origin, destination)
	if err != nil {
		return 0, err
	}
	if err := c.cache.Set(ctx, key, []byte(strconv.FormatFloat(km, 'f', -1, 64)), c.ttl); err != nil {
		c.logger.Warn("distance.cache.set_error", "error", err)
	}
	return km, nil
}

// Logged wraps a Lookup with start/ok/error events.
type Logged struct {
	next   Lookup
	logger *slog.Logger
}

func NewLogged(next Lookup, logger *slog.Logger) *Logged {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logged{next: next, logger: logger}
}

func (l *Logged) DistanceKM(ctx context.Context, origin, destination string) (float64, error) {
	rid := uuid.New().String()
	start := time.Now()
	l.logger.Info("distance.lookup.start", "req_id", rid, "origin", origin, "destination", destination)
	km, err := l.next.DistanceKM(ctx, origin, destination)
	if err != nil {
		l.logger.Warn("distance.lookup.error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return 0, err
	}
	l.logger.Info("distance.lookup.ok",
		"req_id", rid, "km", km,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return km, nil
}
