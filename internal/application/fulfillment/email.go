package fulfillment

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/bookplus/internal/domain/notification"
	"github.com/xiebiao/bookplus/internal/domain/order"
	"github.com/xiebiao/bookplus/internal/infrastructure/config"
)

const confirmationHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>{{.Store.Name}}</h2>
  <p>Dear {{.Order.Customer.Name}},</p>
  <p>Thank you for your order. Your order number is <strong>{{.Order.OrderNo}}</strong>
     ({{.Date}}). The invoice is attached to this email.</p>
  <table cellpadding="6" cellspacing="0" border="1" style="border-collapse: collapse;">
    <tr><th>Title</th><th>Class</th><th>Qty</th><th>Price</th><th>Amount</th></tr>
    {{- range .Lines}}
    <tr><td>{{.Title}}</td><td>{{.Class}}</td><td>{{.Quantity}}</td><td>{{.Price}}</td><td>{{.Amount}}</td></tr>
    {{- end}}
  </table>
  <p><strong>Total: {{.Total}}</strong></p>
  {{- if .Order.Shipping.Address}}
  <p>Ship to: {{.Order.Shipping.Address}}{{if .Order.Shipping.City}}, {{.Order.Shipping.City}}{{end}}</p>
  {{- end}}
  <p>{{.Store.Name}}{{if .Store.Phone}} | {{.Store.Phone}}{{end}}{{if .Store.Email}} | {{.Store.Email}}{{end}}</p>
</body>
</html>
`

var confirmationTemplate = template.Must(template.New("confirmation").Parse(confirmationHTML))

type emailLine struct {
	Title    string
	Class    int
	Quantity int
	Price    string
	Amount   string
}

type emailView struct {
	Store config.StoreConfig
	Order *order.Order
	Date  string
	Lines []emailLine
	Total string
}

// ComposeConfirmation 生成订单确认邮件,发票作为附件
func ComposeConfirmation(store config.StoreConfig, o *order.Order, invoice []byte, contentType string) (notification.Message, error) {
	view := emailView{
		Store: store,
		Order: o,
		Date:  o.CreatedAt.Format("2006-01-02"),
		Lines: make([]emailLine, len(o.Items)),
		Total: formatMoney(store.Currency, o.Total),
	}
	for i, item := range o.Items {
		view.Lines[i] = emailLine{
			Title:    item.Title,
			Class:    item.Class,
			Quantity: item.Quantity,
			Price:    formatMoney(store.Currency, item.Price),
			Amount:   formatMoney(store.Currency, item.Amount()),
		}
	}

	var body bytes.Buffer
	if err := confirmationTemplate.Execute(&body, view); err != nil {
		return notification.Message{}, fmt.Errorf("渲染邮件模板失败: %w", err)
	}

	return notification.Message{
		To:       o.Customer.Email,
		Subject:  fmt.Sprintf("%s - Order Confirmation %s", store.Name, o.OrderNo),
		HTMLBody: body.String(),
		Attachments: []notification.Attachment{{
			Filename:    order.InvoiceFilename(o),
			ContentType: contentType,
			Data:        invoice,
		}},
	}, nil
}

func formatMoney(currency string, v *decimal.Decimal) string {
	if v == nil {
		return "-"
	}
	if currency == "" {
		return v.StringFixed(2)
	}
	return currency + " " + v.StringFixed(2)
}
