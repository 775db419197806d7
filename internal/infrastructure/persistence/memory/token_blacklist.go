package memory

import (
	"context"
	"sync"
	"time"
)

// TokenBlacklist 进程内Token黑名单
type TokenBlacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Time // token id → 过期时间
}

func NewTokenBlacklist() *TokenBlacklist {
	return &TokenBlacklist{revoked: make(map[string]time.Time)}
}

// Revoke 加入黑名单,ttl到期后自动失效
func (b *TokenBlacklist) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	for id, exp := range b.revoked {
		if now.After(exp) {
			delete(b.revoked, id)
		}
	}
	b.revoked[tokenID] = now.Add(ttl)
	return nil
}

func (b *TokenBlacklist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	exp, ok := b.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if time.Now().After(exp) {
		delete(b.revoked, tokenID)
		return false, nil
	}
	return true, nil
}
