// Package ratelimit throttles the unauthenticated auth endpoints with fixed
// windows kept in Redis.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limits used by the auth handlers: 10 requests per IP per purpose in a 15
// minute window, and one email per address every 2 minutes.
const (
	DefaultIPLimit       = 10
	DefaultIPWindow      = 15 * time.Minute
	DefaultEmailCooldown = 2 * time.Minute
)

// Purposes partition the counters so login attempts never eat into the
// registration budget.
const (
	PurposeRegister = "register"
	PurposeLogin    = "login"
	PurposeForgot   = "forgot_password"
	PurposeResend   = "resend_verification"
)

type Limiter struct {
	client        redis.Cmdable
	ipLimit       int64
	ipWindow      time.Duration
	emailCooldown time.Duration
}

func NewLimiter(client redis.Cmdable) *Limiter {
	return &Limiter{
		client:        client,
		ipLimit:       DefaultIPLimit,
		ipWindow:      DefaultIPWindow,
		emailCooldown: DefaultEmailCooldown,
	}
}

// AllowIP counts a request from ip for purpose and reports whether it is
// within the window's budget.
func (l *Limiter) AllowIP(ctx context.Context, purpose, ip string) (bool, error) {
	key := ipKey(purpose, ip)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, l.ipWindow)
		return nil
	})
	if err != nil {
		return true, fmt.Errorf("failed to record IP request: %w", err)
	}

	return incr.Val() <= l.ipLimit, nil
}

// AcquireEmailCooldown starts the cooldown for email and reports whether it
// was free. A false result means a message was sent too recently.
func (l *Limiter) AcquireEmailCooldown(ctx context.Context, purpose, email string) (bool, error) {
	ok, err := l.client.SetNX(ctx, emailKey(purpose, email), 1, l.emailCooldown).Result()
	if err != nil {
		return true, fmt.Errorf("failed to set email cooldown: %w", err)
	}
	return ok, nil
}

func ipKey(purpose, ip string) string {
	return fmt.Sprintf("ratelimit:ip:%s:%s", purpose, ip)
}

func emailKey(purpose, email string) string {
	return fmt.Sprintf("ratelimit:email:%s:%s", purpose, strings.ToLower(strings.TrimSpace(email)))
}

// Noop allows everything. It stands in when Redis is disabled.
type Noop struct{}

func (Noop) AllowIP(context.Context, string, string) (bool, error) { return true, nil }

func (Noop) AcquireEmailCooldown(context.Context, string, string) (bool, error) { return true, nil }
