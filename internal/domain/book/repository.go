package book

import (
	"context"
)

// Repository 图书仓储接口
// 由domain层定义,infrastructure层实现;
// 所有方法在ctx携带事务时参与该事务
type Repository interface {
	Create(ctx context.Context, book *Book) error

	FindByID(ctx context.Context, id uint) (*Book, error)

	// FindByIDs 批量查询,结果中不包含不存在的ID
	FindByIDs(ctx context.Context, ids []uint) (map[uint]*Book, error)

	Update(ctx context.Context, book *Book) error

	// Delete 物理删除
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, params ListParams) ([]*Book, int64, error)

	// DecrStock 条件扣减库存: stock >= quantity 时原子扣减
	// 不满足时返回携带当前库存的ErrInsufficientStock
	DecrStock(ctx context.Context, id uint, quantity int) error
}

// ListParams 列表查询参数
type ListParams struct {
	Page      int
	PageSize  int
	Keyword   string // 匹配书名、作者、出版社、科目
	Title     string
	Author    string
	Subject   string
	Publisher string
	Class     *int
	SortBy    string // serial_asc | title_asc | price_asc | price_desc | created_at_desc
}
