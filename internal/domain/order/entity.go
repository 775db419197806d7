package order

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status 订单状态
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// transitions 状态流转表,delivered与cancelled为终态
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// ParseStatus 解析状态字符串
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := transitions[st]; !ok {
		return "", ErrInvalidStatus
	}
	return st, nil
}

func (s Status) String() string {
	return string(s)
}

// CanTransition 检查from到to是否在流转表中,相同状态视为合法
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Customer 下单客户信息快照
type Customer struct {
	Name        string
	Email       string
	Phone       string
	Institution string
	Mobile      string
	Whatsapp    string
}

// Shipping 收货地址
type Shipping struct {
	Address    string
	City       string
	PostalCode string
}

// Item 订单明细,下单时的图书快照
// BookID只是弱引用,图书删除或修改不影响已下订单
type Item struct {
	ID           uint
	BookID       uint
	SerialNumber int
	Class        int
	Subject      string
	Title        string
	Author       string
	Publisher    string
	Section      string
	Quantity     int
	Price        *decimal.Decimal // 下单时单价,未定价为nil
}

// Amount 小计,未定价时返回nil
func (i Item) Amount() *decimal.Decimal {
	if i.Price == nil {
		return nil
	}
	amount := i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
	return &amount
}

// Order 订单实体(聚合根)
type Order struct {
	ID           uint
	OrderNo      string
	Customer     Customer
	Shipping     Shipping
	Items        []Item
	Status       Status
	Total        *decimal.Decimal // 下单时计算一次,之后不随编辑变化
	AcademicYear string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	NotifiedAt   *time.Time // 确认邮件送达时间
}

// NewOrder 创建待处理订单并计算总额
func NewOrder(orderNo string, customer Customer, shipping Shipping, items []Item, academicYear string) (*Order, error) {
	customer.Name = strings.TrimSpace(customer.Name)
	customer.Email = strings.TrimSpace(customer.Email)
	if customer.Name == "" || customer.Email == "" {
		return nil, ErrCustomerRequired
	}
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
	}

	now := time.Now()
	return &Order{
		OrderNo:      orderNo,
		Customer:     customer,
		Shipping:     shipping,
		Items:        items,
		Status:       StatusPending,
		Total:        CalculateTotal(items),
		AcademicYear: academicYear,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CalculateTotal 定价明细的 单价×数量 之和,没有定价明细时返回nil
func CalculateTotal(items []Item) *decimal.Decimal {
	var total *decimal.Decimal
	for _, item := range items {
		amount := item.Amount()
		if amount == nil {
			continue
		}
		if total == nil {
			zero := decimal.Zero
			total = &zero
		}
		sum := total.Add(*amount)
		total = &sum
	}
	return total
}

// ItemCount 总册数
func (o *Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// SetStatus 覆盖状态
// strict为true时拒绝流转表外的变更;否则照常写入并返回flagged=true
func (o *Order) SetStatus(to Status, strict bool) (flagged bool, err error) {
	if _, ok := transitions[to]; !ok {
		return false, ErrInvalidStatus
	}
	if !CanTransition(o.Status, to) {
		if strict {
			return true, ErrInvalidStatusTransition
		}
		flagged = true
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	return flagged, nil
}

// ItemQuantity 明细数量修改
type ItemQuantity struct {
	ItemID   uint
	Quantity int
}

// Edit 管理员编辑订单,nil字段保持不变
type Edit struct {
	Customer     *Customer
	Shipping     *Shipping
	Quantities   []ItemQuantity
	AcademicYear *string
}

// ApplyEdit 应用编辑
// 不重新校验库存,也不重算总额;返回是否修改了数量
func (o *Order) ApplyEdit(e Edit) (quantitiesChanged bool, err error) {
	index := make(map[uint]int, len(o.Items))
	for i, item := range o.Items {
		index[item.ID] = i
	}
	for _, q := range e.Quantities {
		if q.Quantity < 1 {
			return false, ErrInvalidQuantity
		}
		if _, ok := index[q.ItemID]; !ok {
			return false, ErrItemNotFound
		}
	}

	if e.Customer != nil {
		c := *e.Customer
		c.Name = strings.TrimSpace(c.Name)
		c.Email = strings.TrimSpace(c.Email)
		if c.Name == "" || c.Email == "" {
			return false, ErrCustomerRequired
		}
		o.Customer = c
	}
	if e.Shipping != nil {
		o.Shipping = *e.Shipping
	}
	for _, q := range e.Quantities {
		i := index[q.ItemID]
		if o.Items[i].Quantity != q.Quantity {
			o.Items[i].Quantity = q.Quantity
			quantitiesChanged = true
		}
	}
	if e.AcademicYear != nil && strings.TrimSpace(*e.AcademicYear) != "" {
		o.AcademicYear = strings.TrimSpace(*e.AcademicYear)
	}

	o.UpdatedAt = time.Now()
	return quantitiesChanged, nil
}

// TotalStale 编辑数量后存储的总额是否已与明细不一致
func (o *Order) TotalStale() bool {
	current := CalculateTotal(o.Items)
	switch {
	case o.Total == nil && current == nil:
		return false
	case o.Total == nil || current == nil:
		return true
	default:
		return !o.Total.Equal(*current)
	}
}
