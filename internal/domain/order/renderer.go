package order

import "fmt"

// InvoiceRenderer 把已持久化的订单渲染为发票文档
// 输出只取决于订单本身,不读取图书目录
type InvoiceRenderer interface {
	Render(o *Order) ([]byte, error)
	ContentType() string
}

// InvoiceFilename 发票文件名,如 order-42.pdf
func InvoiceFilename(o *Order) string {
	return fmt.Sprintf("order-%d.pdf", o.ID)
}
