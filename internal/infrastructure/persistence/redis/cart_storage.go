package redis

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/bookplus/internal/domain/cart"
	apperrors "github.com/xiebiao/bookplus/pkg/errors"
)

// CartStorage 购物车Redis存储
// Key: cart:{token},值为JSON,每次保存刷新过期时间
type CartStorage struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCartStorage(client *redis.Client, ttl time.Duration) *CartStorage {
	return &CartStorage{client: client, ttl: ttl}
}

func (s *CartStorage) Load(ctx context.Context, token string) (*cart.Cart, error) {
	data, err := s.client.Get(ctx, cartKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cart.ErrCartNotFound
		}
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "读取购物车失败")
	}

	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "解析购物车失败")
	}
	return &c, nil
}

func (s *CartStorage) Save(ctx context.Context, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return apperrors.Wrap(err, "序列化购物车失败")
	}
	if err := s.client.Set(ctx, cartKey(c.Token), data, s.ttl).Err(); err != nil {
		return apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "保存购物车失败")
	}
	return nil
}

func (s *CartStorage) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, cartKey(token)).Err(); err != nil {
		return apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "删除购物车失败")
	}
	return nil
}

func cartKey(token string) string {
	return "cart:" + token
}
