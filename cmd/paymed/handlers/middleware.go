package handlers

import (
	"context"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/payme/contracts/internal/platform/host"
	"github.com/payme/contracts/internal/platform/logger"
	"github.com/payme/contracts/pkg/address"
	"github.com/payme/contracts/pkg/protocol"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

const (
	requestIDHeader = "X-Request-ID"
	localActor      = "actor"
)

// RequestContext gives every request a Context with a request ID and a logger derived from the
// root logger in base.
func RequestContext(base context.Context) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get(requestIDHeader)
		ctx := logger.ContextWithRequestID(base, reqID)
		c.Set(requestIDHeader, logger.RequestIDFromContext(ctx))

		c.SetUserContext(ctx)
		return c.Next()
	}
}

// Authenticate verifies the request signature headers and stores the signing address as the
// acting identity.
func Authenticate(h *host.Host) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pubKey, err := hex.DecodeString(c.Get(protocol.HeaderPublicKey))
		if err != nil || len(pubKey) == 0 {
			return errUnauthenticated
		}
		signature, err := hex.DecodeString(c.Get(protocol.HeaderSignature))
		if err != nil || len(signature) == 0 {
			return errUnauthenticated
		}

		payload := protocol.SigningPayload(c.Method(), c.Path(), c.Body())
		actor, err := h.Authorize(pubKey, signature, payload)
		if err != nil {
			return errUnauthenticated
		}

		c.Locals(localActor, actor)
		return c.Next()
	}
}

// actorFrom returns the identity set by Authenticate.
func actorFrom(c *fiber.Ctx) address.Address {
	actor, _ := c.Locals(localActor).(address.Address)
	return actor
}

// Limiter applies a token bucket per client IP and evicts idle clients.
type Limiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	lock    sync.Mutex
	clients map[string]*client
	hits    uint64
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiter returns a Limiter allowing rps requests per second with bursts of burst. A
// non-positive rps disables limiting.
func NewLimiter(rps float64, burst int, idleTTL time.Duration) *Limiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}

	return &Limiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		clients: make(map[string]*client),
	}
}

// Allow reports whether key may make a request at now.
func (l *Limiter) Allow(key string, now time.Time) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)

	l.lock.Lock()
	defer l.lock.Unlock()

	cl, exists := l.clients[key]
	if !exists {
		cl = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = cl
	}
	cl.lastSeen = now
	allowed := cl.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%512 == 0 {
		cutoff := now.Add(-l.idleTTL)
		for k, v := range l.clients {
			if v.lastSeen.Before(cutoff) {
				delete(l.clients, k)
			}
		}
	}

	return allowed
}

// Handler returns fiber middleware rejecting clients over their limit.
func (l *Limiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !l.Allow(c.IP(), time.Now()) {
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		return c.Next()
	}
}
