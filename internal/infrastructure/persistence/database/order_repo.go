package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/bookplus/internal/domain/order"
	apperrors "github.com/xiebiao/bookplus/pkg/errors"
)

// orderRepository 订单仓储实现
// Order与OrderItem是一个聚合,一起保存;查询时Preload明细避免N+1
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepository{db: db}
}

// Create 创建订单及明细
// 在下单事务中调用时与库存扣减一起提交
func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	model := toOrderModel(o)

	if err := dbFromContext(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return order.ErrDuplicateOrderNo
		}
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "创建订单失败")
	}

	o.ID = model.ID
	o.CreatedAt = model.CreatedAt
	o.UpdatedAt = model.UpdatedAt
	for i := range o.Items {
		o.Items[i].ID = model.Items[i].ID
	}
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id uint) (*order.Order, error) {
	var model OrderModel
	err := preloadItems(dbFromContext(ctx, r.db)).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound
		}
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询订单失败")
	}
	return toOrderEntity(&model), nil
}

func (r *orderRepository) FindByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	var model OrderModel
	err := preloadItems(dbFromContext(ctx, r.db)).Where("order_no = ?", orderNo).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound
		}
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询订单失败")
	}
	return toOrderEntity(&model), nil
}

// List 按创建时间倒序,同一时间按ID倒序
func (r *orderRepository) List(ctx context.Context, params order.ListParams) ([]*order.Order, int64, error) {
	var models []OrderModel
	var total int64

	query := dbFromContext(ctx, r.db).Model(&OrderModel{})
	if params.Status != "" {
		query = query.Where("status = ?", string(params.Status))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询订单总数失败")
	}

	query = preloadItems(query).Order("created_at DESC").Order("id DESC")
	if err := paginate(query, params.Page, params.PageSize).Find(&models).Error; err != nil {
		return nil, 0, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询订单列表失败")
	}

	orders := make([]*order.Order, len(models))
	for i := range models {
		orders[i] = toOrderEntity(&models[i])
	}
	return orders, total, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uint, status order.Status) error {
	result := dbFromContext(ctx, r.db).Model(&OrderModel{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     string(status),
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return apperrors.WrapCode(result.Error, apperrors.ErrCodeDatabaseError, "更新订单状态失败")
	}
	if result.RowsAffected == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

// Update 保存编辑后的客户信息、收货地址、学年与明细数量
// 总额与明细快照的其他字段保持不变
func (r *orderRepository) Update(ctx context.Context, o *order.Order) error {
	return dbFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&OrderModel{}).Where("id = ?", o.ID).Updates(map[string]interface{}{
			"customer_name":        o.Customer.Name,
			"customer_email":       o.Customer.Email,
			"customer_phone":       o.Customer.Phone,
			"customer_institution": o.Customer.Institution,
			"customer_mobile":      o.Customer.Mobile,
			"customer_whatsapp":    o.Customer.Whatsapp,
			"shipping_address":     o.Shipping.Address,
			"shipping_city":        o.Shipping.City,
			"shipping_postal_code": o.Shipping.PostalCode,
			"academic_year":        o.AcademicYear,
			"updated_at":           o.UpdatedAt,
		})
		if result.Error != nil {
			return apperrors.WrapCode(result.Error, apperrors.ErrCodeDatabaseError, "更新订单失败")
		}
		if result.RowsAffected == 0 {
			return order.ErrOrderNotFound
		}

		for _, item := range o.Items {
			err := tx.Model(&OrderItemModel{}).
				Where("id = ? AND order_id = ?", item.ID, o.ID).
				Update("quantity", item.Quantity).Error
			if err != nil {
				return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "更新订单明细失败")
			}
		}
		return nil
	})
}

func (r *orderRepository) MarkNotified(ctx context.Context, id uint, at time.Time) error {
	result := dbFromContext(ctx, r.db).Model(&OrderModel{}).Where("id = ?", id).
		Update("notified_at", at)
	if result.Error != nil {
		return apperrors.WrapCode(result.Error, apperrors.ErrCodeDatabaseError, "更新通知时间失败")
	}
	if result.RowsAffected == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

// summaryRow Summarize的扫描目标
type summaryRow struct {
	BookID     uint
	Title      string
	Class      int
	Section    string
	Subject    string
	Publisher  string
	Quantity   int
	OrderCount int
}

// Summarize 按图书汇总订购数量
// SELECT oi.book_id, SUM(oi.quantity), COUNT(DISTINCT oi.order_id) ... GROUP BY oi.book_id
func (r *orderRepository) Summarize(ctx context.Context, f order.SummaryFilter) ([]order.SummaryRow, error) {
	query := dbFromContext(ctx, r.db).
		Table("order_items AS oi").
		Select(`oi.book_id AS book_id,
			MAX(oi.title) AS title,
			MAX(oi.class) AS class,
			MAX(oi.section) AS section,
			MAX(oi.subject) AS subject,
			MAX(oi.publisher) AS publisher,
			SUM(oi.quantity) AS quantity,
			COUNT(DISTINCT oi.order_id) AS order_count`).
		Joins("JOIN orders AS o ON o.id = oi.order_id")

	if f.From != nil {
		query = query.Where("o.created_at >= ?", *f.From)
	}
	if f.To != nil {
		query = query.Where("o.created_at < ?", *f.To)
	}
	if f.Status != "" {
		query = query.Where("o.status = ?", string(f.Status))
	}
	if f.Class != nil {
		query = query.Where("oi.class = ?", *f.Class)
	}
	if f.Publisher != "" {
		query = query.Where("oi.publisher = ?", f.Publisher)
	}

	query = query.Group("oi.book_id")

	dir := " ASC"
	if f.Desc {
		dir = " DESC"
	}
	switch f.SortBy {
	case "orders":
		query = query.Order("order_count" + dir).Order("book_id ASC")
	case "title":
		query = query.Order("title" + dir).Order("book_id ASC")
	default:
		query = query.Order("quantity" + dir).Order("book_id ASC")
	}

	var rows []summaryRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "汇总订单失败")
	}

	result := make([]order.SummaryRow, len(rows))
	for i, row := range rows {
		result[i] = order.SummaryRow(row)
	}
	return result, nil
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
}

func toOrderModel(o *order.Order) *OrderModel {
	items := make([]OrderItemModel, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemModel{
			ID:           item.ID,
			OrderID:      o.ID,
			BookID:       item.BookID,
			SerialNumber: item.SerialNumber,
			Class:        item.Class,
			Subject:      item.Subject,
			Title:        item.Title,
			Author:       item.Author,
			Publisher:    item.Publisher,
			Section:      item.Section,
			Quantity:     item.Quantity,
			Price:        item.Price,
		}
	}

	return &OrderModel{
		ID:                  o.ID,
		OrderNo:             o.OrderNo,
		CustomerName:        o.Customer.Name,
		CustomerEmail:       o.Customer.Email,
		CustomerPhone:       o.Customer.Phone,
		CustomerInstitution: o.Customer.Institution,
		CustomerMobile:      o.Customer.Mobile,
		CustomerWhatsapp:    o.Customer.Whatsapp,
		ShippingAddress:     o.Shipping.Address,
		ShippingCity:        o.Shipping.City,
		ShippingPostalCode:  o.Shipping.PostalCode,
		Status:              string(o.Status),
		Total:               o.Total,
		AcademicYear:        o.AcademicYear,
		NotifiedAt:          o.NotifiedAt,
		Items:               items,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
}

func toOrderEntity(model *OrderModel) *order.Order {
	items := make([]order.Item, len(model.Items))
	for i, item := range model.Items {
		items[i] = order.Item{
			ID:           item.ID,
			BookID:       item.BookID,
			SerialNumber: item.SerialNumber,
			Class:        item.Class,
			Subject:      item.Subject,
			Title:        item.Title,
			Author:       item.Author,
			Publisher:    item.Publisher,
			Section:      item.Section,
			Quantity:     item.Quantity,
			Price:        item.Price,
		}
	}

	return &order.Order{
		ID:      model.ID,
		OrderNo: model.OrderNo,
		Customer: order.Customer{
			Name:        model.CustomerName,
			Email:       model.CustomerEmail,
			Phone:       model.CustomerPhone,
			Institution: model.CustomerInstitution,
			Mobile:      model.CustomerMobile,
			Whatsapp:    model.CustomerWhatsapp,
		},
		Shipping: order.Shipping{
			Address:    model.ShippingAddress,
			City:       model.ShippingCity,
			PostalCode: model.ShippingPostalCode,
		},
		Items:        items,
		Status:       order.Status(model.Status),
		Total:        model.Total,
		AcademicYear: model.AcademicYear,
		NotifiedAt:   model.NotifiedAt,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}
