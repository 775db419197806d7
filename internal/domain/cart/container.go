package cart

import (
	"context"

	"github.com/google/uuid"
)

// Storage 购物车持久化适配器
// Load在token不存在时返回ErrCartNotFound
type Storage interface {
	Load(ctx context.Context, token string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, token string) error
}

// Container 购物车状态容器
// 每个操作都是 读取→修改→保存,持久化方式由注入的Storage决定
type Container struct {
	storage Storage
}

// NewContainer 创建购物车容器
func NewContainer(storage Storage) *Container {
	return &Container{storage: storage}
}

// Create 新建空购物车
func (c *Container) Create(ctx context.Context) (*Cart, error) {
	crt := &Cart{Token: uuid.NewString()}
	crt.touch()
	if err := c.storage.Save(ctx, crt); err != nil {
		return nil, err
	}
	return crt, nil
}

func (c *Container) Get(ctx context.Context, token string) (*Cart, error) {
	return c.storage.Load(ctx, token)
}

// SetQuantity 设置数量,0表示移除
func (c *Container) SetQuantity(ctx context.Context, token string, bookID uint, quantity int) (*Cart, error) {
	return c.mutate(ctx, token, func(crt *Cart) error {
		return crt.Set(bookID, quantity)
	})
}

func (c *Container) Remove(ctx context.Context, token string, bookID uint) (*Cart, error) {
	return c.mutate(ctx, token, func(crt *Cart) error {
		crt.Remove(bookID)
		return nil
	})
}

// Clear 清空并删除购物车
func (c *Container) Clear(ctx context.Context, token string) error {
	if _, err := c.storage.Load(ctx, token); err != nil {
		return err
	}
	return c.storage.Delete(ctx, token)
}

func (c *Container) mutate(ctx context.Context, token string, fn func(*Cart) error) (*Cart, error) {
	crt, err := c.storage.Load(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := fn(crt); err != nil {
		return nil, err
	}
	if err := c.storage.Save(ctx, crt); err != nil {
		return nil, err
	}
	return crt, nil
}
