package order

import (
	"github.com/shopspring/decimal"

	"github.com/xiebiao/bookplus/internal/domain/order"
)

const timeLayout = "2006-01-02 15:04:05"

// OrderDTO 订单详情
type OrderDTO struct {
	ID           uint             `json:"id"`
	OrderNo      string           `json:"order_no"`
	Status       string           `json:"status"`
	Customer     CustomerDTO      `json:"customer"`
	Shipping     ShippingDTO      `json:"shipping"`
	Items        []OrderItemDTO   `json:"items"`
	ItemCount    int              `json:"item_count"`
	Total        *decimal.Decimal `json:"total"`
	AcademicYear string           `json:"academic_year"`
	CreatedAt    string           `json:"created_at"`
	UpdatedAt    string           `json:"updated_at"`
	NotifiedAt   string           `json:"notified_at,omitempty"`
}

type CustomerDTO struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Institution string `json:"institution,omitempty"`
	Mobile      string `json:"mobile,omitempty"`
	Whatsapp    string `json:"whatsapp,omitempty"`
}

type ShippingDTO struct {
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

// OrderItemDTO 明细快照,Amount为nil表示未定价
type OrderItemDTO struct {
	ID           uint             `json:"id"`
	BookID       uint             `json:"book_id"`
	SerialNumber int              `json:"serial_number"`
	Class        int              `json:"class"`
	Subject      string           `json:"subject"`
	Title        string           `json:"title"`
	Author       string           `json:"author,omitempty"`
	Publisher    string           `json:"publisher"`
	Section      string           `json:"section"`
	Quantity     int              `json:"quantity"`
	Price        *decimal.Decimal `json:"price"`
	Amount       *decimal.Decimal `json:"amount"`
}

// ToOrderDTO 领域实体 → DTO
func ToOrderDTO(o *order.Order) *OrderDTO {
	items := make([]OrderItemDTO, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemDTO{
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
			Amount:       item.Amount(),
		}
	}

	dto := &OrderDTO{
		ID:      o.ID,
		OrderNo: o.OrderNo,
		Status:  o.Status.String(),
		Customer: CustomerDTO{
			Name:        o.Customer.Name,
			Email:       o.Customer.Email,
			Phone:       o.Customer.Phone,
			Institution: o.Customer.Institution,
			Mobile:      o.Customer.Mobile,
			Whatsapp:    o.Customer.Whatsapp,
		},
		Shipping: ShippingDTO{
			Address:    o.Shipping.Address,
			City:       o.Shipping.City,
			PostalCode: o.Shipping.PostalCode,
		},
		Items:        items,
		ItemCount:    o.ItemCount(),
		Total:        o.Total,
		AcademicYear: o.AcademicYear,
		CreatedAt:    o.CreatedAt.Format(timeLayout),
		UpdatedAt:    o.UpdatedAt.Format(timeLayout),
	}
	if o.NotifiedAt != nil {
		dto.NotifiedAt = o.NotifiedAt.Format(timeLayout)
	}
	return dto
}
