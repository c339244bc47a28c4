package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList rejects tokens before they expire. A single token is revoked
// by its JTI; revoking a tenant rejects every token issued to it up to now.
type RevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	RevokeTenant(ctx context.Context, tenantID string, ttl time.Duration) error
	IsTenantRevoked(ctx context.Context, tenantID string, issuedAt time.Time) (bool, error)
}

const revocationKeyPrefix = "auth:revoked:"

// RedisRevocationList shares revocations across API instances
type RedisRevocationList struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisRevocationList wraps an existing client
func NewRedisRevocationList(client *redis.Client) *RedisRevocationList {
	return &RedisRevocationList{client: client, now: time.Now}
}

func jtiKey(jti string) string {
	return revocationKeyPrefix + "jti:" + jti
}

func tenantKey(tenantID string) string {
	return revocationKeyPrefix + "tenant:" + tenantID
}

// RevokeToken stores the JTI until the token would have expired anyway
func (r *RedisRevocationList) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if err := r.client.Set(ctx, jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsTokenRevoked checks a JTI
func (r *RedisRevocationList) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

// RevokeTenant records the current time as the tenant's cut-off
func (r *RedisRevocationList) RevokeTenant(ctx context.Context, tenantID string, ttl time.Duration) error {
	if err := r.client.Set(ctx, tenantKey(tenantID), r.now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke tenant tokens: %w", err)
	}
	return nil
}

// IsTenantRevoked reports whether a token issued at issuedAt predates the cut-off
func (r *RedisRevocationList) IsTenantRevoked(ctx context.Context, tenantID string, issuedAt time.Time) (bool, error) {
	raw, err := r.client.Get(ctx, tenantKey(tenantID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check tenant revocation: %w", err)
	}
	cutoff, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse revocation timestamp: %w", err)
	}
	return issuedAt.Unix() <= cutoff, nil
}

var _ RevocationList = (*RedisRevocationList)(nil)

// InMemoryRevocationList keeps revocations in process. Use it for a single
// instance or tests.
type InMemoryRevocationList struct {
	mu      sync.Mutex
	tokens  map[string]time.Time // jti -> expiry
	tenants map[string]time.Time // tenant -> cut-off
	now     func() time.Time
}

// NewInMemoryRevocationList creates an empty list
func NewInMemoryRevocationList() *InMemoryRevocationList {
	return &InMemoryRevocationList{
		tokens:  make(map[string]time.Time),
		tenants: make(map[string]time.Time),
		now:     time.Now,
	}
}

// RevokeToken remembers the JTI for ttl
func (r *InMemoryRevocationList) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[jti] = r.now().Add(ttl)
	return nil
}

// IsTokenRevoked checks a JTI, forgetting it once its ttl has passed
func (r *InMemoryRevocationList) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	expiry, ok := r.tokens[jti]
	if !ok {
		return false, nil
	}
	if r.now().After(expiry) {
		delete(r.tokens, jti)
		return false, nil
	}
	return true, nil
}

// RevokeTenant records the current time as the tenant's cut-off
func (r *InMemoryRevocationList) RevokeTenant(_ context.Context, tenantID string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[tenantID] = r.now()
	return nil
}

// IsTenantRevoked reports whether issuedAt is at or before the cut-off
func (r *InMemoryRevocationList) IsTenantRevoked(_ context.Context, tenantID string, issuedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff, ok := r.tenants[tenantID]
	if !ok {
		return false, nil
	}
	return !issuedAt.After(cutoff), nil
}

var _ RevocationList = (*InMemoryRevocationList)(nil)
