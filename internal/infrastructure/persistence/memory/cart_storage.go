package memory

import (
	"context"
	"sync"
	"time"

	"github.com/xiebiao/bookplus/internal/domain/cart"
)

// CartStorage 进程内购物车存储,未启用Redis时使用
// 超过ttl未更新的购物车在读取时视为不存在
type CartStorage struct {
	mu    sync.RWMutex
	carts map[string]*cart.Cart
	ttl   time.Duration
}

// NewCartStorage ttl<=0表示永不过期
func NewCartStorage(ttl time.Duration) *CartStorage {
	return &CartStorage{carts: make(map[string]*cart.Cart), ttl: ttl}
}

func (s *CartStorage) Load(_ context.Context, token string) (*cart.Cart, error) {
	s.mu.RLock()
	c, ok := s.carts[token]
	s.mu.RUnlock()
	if !ok || s.expired(c) {
		return nil, cart.ErrCartNotFound
	}
	return c.Clone(), nil
}

func (s *CartStorage) Save(_ context.Context, c *cart.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[c.Token] = c.Clone()
	s.evictLocked()
	return nil
}

func (s *CartStorage) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.carts, token)
	s.mu.Unlock()
	return nil
}

func (s *CartStorage) expired(c *cart.Cart) bool {
	return s.ttl > 0 && time.Since(c.UpdatedAt) > s.ttl
}

// evictLocked 写入时顺带清理过期购物车
func (s *CartStorage) evictLocked() {
	if s.ttl <= 0 {
		return
	}
	for token, c := range s.carts {
		if s.expired(c) {
			delete(s.carts, token)
		}
	}
}
