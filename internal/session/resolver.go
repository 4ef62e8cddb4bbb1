package session

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/singleflight"

	"github.com/listenupapp/readtrack/internal/domain"
	domainerrors "github.com/listenupapp/readtrack/internal/errors"
)

const (
	defaultSessionTTL = 5 * time.Minute
	maxCachedSessions = 1024
)

// Identity reports who a bearer token belongs to.
type Identity interface {
	Me(ctx context.Context, token string) (*domain.User, error)
}

// Resolver turns bearer tokens into sessions, remembering each answer for a
// short TTL so that every intent does not cost an identity round trip.
type Resolver struct {
	identity Identity
	cache    *ristretto.Cache[string, *Session]
	group    singleflight.Group
	ttl      time.Duration
	logger   *slog.Logger
}

// NewResolver creates a resolver. A non-positive ttl uses five minutes.
func NewResolver(identity Identity, ttl time.Duration, logger *slog.Logger) (*Resolver, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, *Session]{
		NumCounters:        maxCachedSessions * 10,
		MaxCost:            maxCachedSessions,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "create session cache")
	}

	return &Resolver{
		identity: identity,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}, nil
}

// Resolve returns the session for token. A blank token is AuthRequired
// without asking the backend; a rejected token is whatever the identity
// collaborator reported (AuthRequired for 401/403).
func (r *Resolver) Resolve(ctx context.Context, token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domainerrors.AuthRequired("missing bearer token")
	}

	if s, ok := r.cache.Get(token); ok {
		return s, nil
	}

	v, err, _ := r.group.Do(token, func() (any, error) {
		user, err := r.identity.Me(ctx, token)
		if err != nil {
			return nil, err
		}
		if user == nil || user.ID == 0 {
			return nil, domainerrors.AuthRequired("token does not identify a user")
		}

		s := FromUser(user, token)
		r.cache.SetWithTTL(token, s, 1, r.ttl)
		r.cache.Wait()

		r.logger.Debug("session resolved", "user_id", user.ID)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// Invalidate forgets the cached session for token.
func (r *Resolver) Invalidate(token string) {
	r.cache.Del(strings.TrimSpace(token))
}

// Close releases the cache.
func (r *Resolver) Close() {
	r.cache.Close()
}
