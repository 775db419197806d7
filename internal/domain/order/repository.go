package order

import (
	"context"
	"time"
)

// Repository 订单仓储接口
// 订单不提供删除
type Repository interface {
	Create(ctx context.Context, order *Order) error

	FindByID(ctx context.Context, id uint) (*Order, error)

	FindByOrderNo(ctx context.Context, orderNo string) (*Order, error)

	// List 按创建时间倒序
	List(ctx context.Context, params ListParams) ([]*Order, int64, error)

	UpdateStatus(ctx context.Context, id uint, status Status) error

	// Update 保存客户信息、收货地址、学年与明细数量
	Update(ctx context.Context, order *Order) error

	MarkNotified(ctx context.Context, id uint, at time.Time) error

	// Summarize 按图书汇总订购数量
	Summarize(ctx context.Context, filter SummaryFilter) ([]SummaryRow, error)
}

// ListParams 订单列表查询参数,PageSize<=0表示不分页
type ListParams struct {
	Status   Status
	Page     int
	PageSize int
}

// SummaryFilter 汇总筛选条件,零值字段不参与筛选
type SummaryFilter struct {
	From      *time.Time
	To        *time.Time
	Status    Status
	Class     *int
	Publisher string
	SortBy    string // quantity | orders | title
	Desc      bool
}

// SummaryRow 单本图书的汇总
type SummaryRow struct {
	BookID     uint
	Title      string
	Class      int
	Section    string
	Subject    string
	Publisher  string
	Quantity   int
	OrderCount int
}
