package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Koomefranklin/kise-results-backend/config"
)

// ErrOTPNotFound no live OTP for the key (expired, used or never issued)
var ErrOTPNotFound = errors.New("otp not found or expired")

// Client wraps go-redis for the token blacklist, OTP storage and rate limiting
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient connects and pings redis
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info("redis connected", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// NewFromClient wraps an existing go-redis client
func NewFromClient(rdb *goredis.Client, logger *zap.Logger) *Client {
	return &Client{rdb: rdb, logger: logger}
}

// Ping reports redis health
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// ── token blacklist ──

const blacklistPrefix = "token:blacklist:"

// BlacklistToken blocks a JWT id for the remainder of its lifetime
func (c *Client) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired
	}
	return c.rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

// IsBlacklisted reports whether a JWT id was revoked
func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ── password reset OTP ──

const (
	otpPrefix         = "otp:"
	otpAttemptsPrefix = "otp:attempts:"
)

// StoreOTP saves the code for email, replacing any earlier one. Only its
// digest is kept.
func (c *Client) StoreOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, otpPrefix+email, otpDigest(code), ttl)
	pipe.Del(ctx, otpAttemptsPrefix+email)
	_, err := pipe.Exec(ctx)
	return err
}

// verifyOTPScript runs the whole check in one step so a code is consumed at
// most once. KEYS: otp, attempts. ARGV: digest, max attempts.
// Returns -1 no otp, 1 match, 0 miss, 2 miss that burned the otp.
var verifyOTPScript = goredis.NewScript(`
local stored = redis.call('GET', KEYS[1])
if not stored then
	return -1
end
if stored == ARGV[1] then
	redis.call('DEL', KEYS[1], KEYS[2])
	return 1
end
local attempts = redis.call('INCR', KEYS[2])
local ttl = redis.call('PTTL', KEYS[1])
if ttl > 0 then
	redis.call('PEXPIRE', KEYS[2], ttl)
end
local max = tonumber(ARGV[2])
if max > 0 and attempts >= max then
	redis.call('DEL', KEYS[1], KEYS[2])
	return 2
end
return 0
`)

// VerifyOTP checks code against the stored OTP. A match consumes it; after
// maxAttempts misses the OTP is burned.
func (c *Client) VerifyOTP(ctx context.Context, email, code string, maxAttempts int) (bool, error) {
	keys := []string{otpPrefix + email, otpAttemptsPrefix + email}
	res, err := verifyOTPScript.Run(ctx, c.rdb, keys, otpDigest(code), maxAttempts).Int()
	if err != nil {
		return false, err
	}
	switch res {
	case -1:
		return false, ErrOTPNotFound
	case 1:
		return true, nil
	case 2:
		c.logger.Warn("otp burned after too many attempts", zap.String("email", email))
	}
	return false, nil
}

func otpDigest(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// ── rate limiting ──

// CheckRateLimit is a sliding window limiter over a sorted set: members are
// request timestamps, anything older than window is trimmed before counting.
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	min := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", min)
	card := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	if card.Val() >= int64(limit) {
		return false, nil
	}

	pipe = c.rdb.TxPipeline()
	pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	pipe.Expire(ctx, key, window)
	_, err := pipe.Exec(ctx)
	return err == nil, err
}

// Close closes the connection pool
func (c *Client) Close() error {
	return c.rdb.Close()
}
