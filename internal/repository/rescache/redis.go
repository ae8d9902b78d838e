package rescache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/kestrel-sec/detdex/internal/domain/search/query"
	"github.com/kestrel-sec/detdex/internal/domain/search/result"
)

// RedisConfig holds connection parameters for a shared Redis cache.
type RedisConfig struct {
	Addrs    []string
	Username string
	Password string
}

// Redis is a Redis-backed result cache for multi-instance deployments.
// TTL expiry is delegated to the store; invalidate-all bumps a generation
// counter embedded in every entry key, orphaning old entries in O(1) and
// leaving them to expire on their own.
type Redis struct {
	client rueidis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis creates a Redis-backed cache.
func NewRedis(cfg RedisConfig, keyPrefix string, ttl time.Duration, logger *zap.Logger) (*Redis, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &Redis{client: client, prefix: keyPrefix, ttl: ttl, logger: logger}, nil
}

// Close shuts down the client.
func (r *Redis) Close() {
	r.client.Close()
}

// Lookup returns a cached result for the query. Any store error degrades to
// a miss rather than failing the request.
func (r *Redis) Lookup(ctx context.Context, q *query.Query) (result.Result, bool) {
	key, err := r.entryKey(ctx, q)
	if err != nil {
		r.logger.Warn("failed to resolve cache generation", zap.Error(err))
		return result.Result{}, false
	}

	cmd := r.client.B().Get().Key(key).Build()
	data, err := r.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if !rueidis.IsRedisNil(err) {
			r.logger.Warn("failed to read cached result", zap.String("key", key), zap.Error(err))
		}
		return result.Result{}, false
	}

	res, err := decodeResult(data)
	if err != nil {
		r.logger.Warn("failed to decode cached result", zap.String("key", key), zap.Error(err))
		return result.Result{}, false
	}
	return res, true
}

// Store caches an assembled result with TTL.
func (r *Redis) Store(ctx context.Context, q *query.Query, res result.Result) {
	key, err := r.entryKey(ctx, q)
	if err != nil {
		r.logger.Warn("failed to resolve cache generation", zap.Error(err))
		return
	}

	data, err := encodeResult(res)
	if err != nil {
		r.logger.Warn("failed to encode result for cache", zap.Error(err))
		return
	}

	cmd := r.client.B().Set().Key(key).Value(rueidis.BinaryString(data)).Ex(r.ttl).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		r.logger.Warn("failed to cache result", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateAll bumps the generation counter, making every live entry
// unreachable across all instances.
func (r *Redis) InvalidateAll(ctx context.Context) {
	cmd := r.client.B().Incr().Key(r.genKey()).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		r.logger.Warn("failed to invalidate result cache", zap.Error(err))
	}
}

func (r *Redis) genKey() string {
	return r.prefix + "rescache:gen"
}

func (r *Redis) entryKey(ctx context.Context, q *query.Query) (string, error) {
	cmd := r.client.B().Get().Key(r.genKey()).Build()
	gen, err := r.client.Do(ctx, cmd).ToString()
	if err != nil {
		if !rueidis.IsRedisNil(err) {
			return "", err
		}
		gen = "0"
	}
	return fmt.Sprintf("%srescache:%s:%s", r.prefix, gen, Key(q)), nil
}
