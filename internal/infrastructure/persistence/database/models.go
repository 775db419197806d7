package database

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookModel GORM图书模型
// Price与Stock可为NULL:NULL价格表示未定价,NULL库存表示不跟踪库存
// 没有DeletedAt字段,删除即物理删除
type BookModel struct {
	ID           uint             `gorm:"primaryKey"`
	SerialNumber int              `gorm:"index:idx_catalog;not null;default:0;comment:目录序号"`
	Class        int              `gorm:"index:idx_catalog;not null;default:0;comment:年级"`
	Subject      string           `gorm:"size:100;comment:科目"`
	Title        string           `gorm:"index;size:255;not null;comment:书名"`
	Author       string           `gorm:"size:100;comment:作者"`
	Publisher    string           `gorm:"index;size:100;comment:出版社"`
	Section      string           `gorm:"size:50;comment:分册"`
	Remarks      string           `gorm:"size:500;comment:备注"`
	AcademicYear string           `gorm:"size:20;comment:学年"`
	Description  string           `gorm:"type:text;comment:图书描述"`
	CoverImage   string           `gorm:"size:500;comment:封面图片URL"`
	Price        *decimal.Decimal `gorm:"type:decimal(12,2);comment:价格"`
	Stock        *int             `gorm:"comment:库存数量"`
	CreatedAt    time.Time        `gorm:"index;comment:创建时间"`
	UpdatedAt    time.Time        `gorm:"comment:更新时间"`
}

func (BookModel) TableName() string {
	return "books"
}

// OrderModel GORM订单模型
// 客户信息与收货地址平铺存储,明细通过OrderID一对多关联
type OrderModel struct {
	ID                  uint             `gorm:"primaryKey"`
	OrderNo             string           `gorm:"uniqueIndex;size:32;not null;comment:订单号"`
	CustomerName        string           `gorm:"size:100;not null"`
	CustomerEmail       string           `gorm:"index;size:255;not null"`
	CustomerPhone       string           `gorm:"size:50"`
	CustomerInstitution string           `gorm:"size:200"`
	CustomerMobile      string           `gorm:"size:50"`
	CustomerWhatsapp    string           `gorm:"size:50"`
	ShippingAddress     string           `gorm:"size:500"`
	ShippingCity        string           `gorm:"size:100"`
	ShippingPostalCode  string           `gorm:"size:20"`
	Status              string           `gorm:"index;size:20;not null;default:pending;comment:订单状态"`
	Total               *decimal.Decimal `gorm:"type:decimal(12,2);comment:下单时总额"`
	AcademicYear        string           `gorm:"size:20"`
	NotifiedAt          *time.Time       `gorm:"comment:确认邮件发送时间"`
	Items               []OrderItemModel `gorm:"foreignKey:OrderID"`
	CreatedAt           time.Time        `gorm:"index;comment:创建时间"`
	UpdatedAt           time.Time        `gorm:"comment:更新时间"`
}

func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel GORM订单明细模型,保存下单时的图书快照
// BookID不建外键,图书删除后明细仍然有效
type OrderItemModel struct {
	ID           uint             `gorm:"primaryKey"`
	OrderID      uint             `gorm:"index;not null;comment:订单ID"`
	BookID       uint             `gorm:"index;not null;comment:图书ID"`
	SerialNumber int              `gorm:"not null;default:0"`
	Class        int              `gorm:"index;not null;default:0"`
	Subject      string           `gorm:"size:100"`
	Title        string           `gorm:"size:255;not null"`
	Author       string           `gorm:"size:100"`
	Publisher    string           `gorm:"size:100"`
	Section      string           `gorm:"size:50"`
	Quantity     int              `gorm:"not null;comment:购买数量"`
	Price        *decimal.Decimal `gorm:"type:decimal(12,2);comment:下单时单价"`
}

func (OrderItemModel) TableName() string {
	return "order_items"
}
