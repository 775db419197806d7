package cart

import (
	"time"

	apperrors "github.com/xiebiao/bookplus/pkg/errors"
)

var (
	ErrCartNotFound    = apperrors.New(apperrors.ErrCodeCartNotFound, "购物车不存在")
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "数量不能为负数")
	ErrInvalidBook     = apperrors.New(apperrors.ErrCodeInvalidParams, "图书ID无效")
)

// Line 购物车中的一行
type Line struct {
	BookID   uint `json:"book_id"`
	Quantity int  `json:"quantity"`
}

// Cart 访客购物车,按加入顺序保存
// 只是下单的输入,服务端不据此锁定库存
type Cart struct {
	Token     string    `json:"token"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Set 设置某本书的数量,0表示移除;不存在时追加到末尾
func (c *Cart) Set(bookID uint, quantity int) error {
	if bookID == 0 {
		return ErrInvalidBook
	}
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if quantity == 0 {
		c.Remove(bookID)
		return nil
	}

	for i := range c.Lines {
		if c.Lines[i].BookID == bookID {
			c.Lines[i].Quantity = quantity
			c.touch()
			return nil
		}
	}
	c.Lines = append(c.Lines, Line{BookID: bookID, Quantity: quantity})
	c.touch()
	return nil
}

// Remove 移除某本书,返回是否存在
func (c *Cart) Remove(bookID uint) bool {
	for i := range c.Lines {
		if c.Lines[i].BookID == bookID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			c.touch()
			return true
		}
	}
	return false
}

// Clear 清空
func (c *Cart) Clear() {
	c.Lines = nil
	c.touch()
}

// ItemCount 总册数
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Clone 深拷贝,存储实现用它隔离调用方的修改
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Lines = append([]Line(nil), c.Lines...)
	return &cp
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
}
