// Package invoice 订单发票
//
// BuildDocument 把订单转换为与排版无关的内容模型,PDFRenderer 负责排版输出。
// 两者都只依赖已保存的订单,同一订单多次生成的内容一致。
package invoice

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/bookplus/internal/domain/order"
	"github.com/xiebiao/bookplus/internal/infrastructure/config"
)

const dateLayout = "2006-01-02"

// Document 发票内容
type Document struct {
	StoreName    string
	StoreContact []string
	OrderNo      string
	Date         string
	Status       string
	AcademicYear string
	BillTo       []string
	ShipTo       []string
	Lines        []Line
	ItemCount    int
	Total        string
}

// Line 发票明细行
type Line struct {
	No       int
	Title    string
	Detail   string // 科目 / 年级 / 分册
	Quantity int
	Price    string
	Amount   string
}

// BuildDocument 由订单构造发票内容
func BuildDocument(o *order.Order, store config.StoreConfig) Document {
	doc := Document{
		StoreName:    store.Name,
		StoreContact: nonEmpty(store.Address, store.Phone, store.Email),
		OrderNo:      o.OrderNo,
		Date:         o.CreatedAt.Format(dateLayout),
		Status:       o.Status.String(),
		AcademicYear: o.AcademicYear,
		BillTo: nonEmpty(
			o.Customer.Name,
			o.Customer.Institution,
			o.Customer.Email,
			o.Customer.Phone,
			prefixed("Mobile: ", o.Customer.Mobile),
			prefixed("WhatsApp: ", o.Customer.Whatsapp),
		),
		ShipTo: nonEmpty(
			o.Shipping.Address,
			strings.TrimSpace(strings.Join(nonEmpty(o.Shipping.City, o.Shipping.PostalCode), " ")),
		),
		Lines:     make([]Line, len(o.Items)),
		ItemCount: o.ItemCount(),
		Total:     money(store.Currency, o.Total),
	}

	for i, item := range o.Items {
		doc.Lines[i] = Line{
			No:       i + 1,
			Title:    item.Title,
			Detail:   itemDetail(item),
			Quantity: item.Quantity,
			Price:    money(store.Currency, item.Price),
			Amount:   money(store.Currency, item.Amount()),
		}
	}
	return doc
}

func itemDetail(item order.Item) string {
	parts := nonEmpty(item.Subject)
	if item.Class > 0 {
		parts = append(parts, fmt.Sprintf("Class %d", item.Class))
	}
	if item.Section != "" {
		parts = append(parts, "Sec. "+item.Section)
	}
	return strings.Join(parts, " / ")
}

func money(currency string, v *decimal.Decimal) string {
	if v == nil {
		return "-"
	}
	if currency == "" {
		return v.StringFixed(2)
	}
	return currency + " " + v.StringFixed(2)
}

func prefixed(prefix, v string) string {
	if v == "" {
		return ""
	}
	return prefix + v
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
