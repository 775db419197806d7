package invoice

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/go-pdf/fpdf"

	"github.com/xiebiao/bookplus/internal/domain/order"
	"github.com/xiebiao/bookplus/internal/infrastructure/config"
)

const contentType = "application/pdf"

// 列宽(mm),合计为A4可用宽度190
var columns = []struct {
	title string
	width float64
	align string
}{
	{"#", 10, "C"},
	{"Title", 62, "L"},
	{"Subject / Class", 48, "L"},
	{"Qty", 14, "R"},
	{"Price", 28, "R"},
	{"Amount", 28, "R"},
}

// PDFRenderer 使用fpdf生成A4发票
// PDF元数据中的日期固定为下单时间,同一订单输出字节一致
type PDFRenderer struct {
	store config.StoreConfig
}

func NewPDFRenderer(cfg *config.Config) *PDFRenderer {
	return &PDFRenderer{store: cfg.Store}
}

func (r *PDFRenderer) ContentType() string {
	return contentType
}

func (r *PDFRenderer) Render(o *order.Order) ([]byte, error) {
	doc := BuildDocument(o, r.store)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(o.CreatedAt)
	pdf.SetModificationDate(o.CreatedAt)
	pdf.SetCatalogSort(true)
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")

	// 内置字体只支持cp1252
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Invoice "+doc.OrderNo), false)
	pdf.SetCreator(tr(doc.StoreName), false)

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	writeHeader(pdf, tr, doc)
	writeParties(pdf, tr, doc)
	writeLines(pdf, tr, doc)
	writeTotal(pdf, tr, doc)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("生成PDF失败: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(pdf *fpdf.Fpdf, tr func(string) string, doc Document) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(120, 9, tr(doc.StoreName), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 9, "INVOICE", "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, line := range doc.StoreContact {
		pdf.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "", 10)
	meta := [][2]string{
		{"Order No", doc.OrderNo},
		{"Date", doc.Date},
		{"Status", doc.Status},
	}
	if doc.AcademicYear != "" {
		meta = append(meta, [2]string{"Academic Year", doc.AcademicYear})
	}
	for _, kv := range meta {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(32, 6, kv[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, tr(kv[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func writeParties(pdf *fpdf.Fpdf, tr func(string) string, doc Document) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(95, 6, "Bill To", "B", 0, "L", false, 0, "")
	pdf.CellFormat(95, 6, "Ship To", "B", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	rows := max(len(doc.BillTo), len(doc.ShipTo))
	for i := 0; i < rows; i++ {
		pdf.CellFormat(95, 5, tr(at(doc.BillTo, i)), "", 0, "L", false, 0, "")
		pdf.CellFormat(95, 5, tr(at(doc.ShipTo, i)), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

func writeLines(pdf *fpdf.Fpdf, tr func(string) string, doc Document) {
	tableHeader := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		for _, col := range columns {
			pdf.CellFormat(col.width, 7, col.title, "1", 0, col.align, true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}

	tableHeader()
	_, pageHeight := pdf.GetPageSize()
	for _, line := range doc.Lines {
		if pdf.GetY()+6 > pageHeight-20 {
			pdf.AddPage()
			tableHeader()
		}
		values := []string{
			strconv.Itoa(line.No),
			tr(line.Title),
			tr(line.Detail),
			strconv.Itoa(line.Quantity),
			tr(line.Price),
			tr(line.Amount),
		}
		for i, col := range columns {
			pdf.CellFormat(col.width, 6, fit(pdf, values[i], col.width-2), "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func writeTotal(pdf *fpdf.Fpdf, tr func(string) string, doc Document) {
	labelWidth := 0.0
	for _, col := range columns[:len(columns)-1] {
		labelWidth += col.width
	}
	last := columns[len(columns)-1].width

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(labelWidth, 7, fmt.Sprintf("Items: %d", doc.ItemCount), "", 0, "R", false, 0, "")
	pdf.CellFormat(last, 7, "", "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(labelWidth, 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(last, 8, tr(doc.Total), "1", 1, "R", false, 0, "")
}

// fit 截断超出列宽的文本
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []byte(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

func at(lines []string, i int) string {
	if i < len(lines) {
		return lines[i]
	}
	return ""
}
