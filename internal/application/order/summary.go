package order

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xiebiao/bookplus/internal/domain/order"
	apperrors "github.com/xiebiao/bookplus/pkg/errors"
)

const dateLayout = "2006-01-02"

// OrderSummaryUseCase 按图书汇总订购数量(供货商备货用)
type OrderSummaryUseCase struct {
	orderRepo order.Repository
}

func NewOrderSummaryUseCase(orderRepo order.Repository) *OrderSummaryUseCase {
	return &OrderSummaryUseCase{orderRepo: orderRepo}
}

// SummaryRequest 日期为 YYYY-MM-DD,To 当天包含在内
type SummaryRequest struct {
	From      string
	To        string
	Status    string
	Class     *int
	Publisher string
	SortBy    string // quantity | orders | title
	Order     string // asc | desc
}

type SummaryRowDTO struct {
	BookID     uint   `json:"book_id"`
	Title      string `json:"title"`
	Class      int    `json:"class"`
	Section    string `json:"section"`
	Subject    string `json:"subject"`
	Publisher  string `json:"publisher"`
	Quantity   int    `json:"quantity"`
	OrderCount int    `json:"order_count"`
}

type SummaryResponse struct {
	Rows          []SummaryRowDTO `json:"rows"`
	TotalQuantity int             `json:"total_quantity"`
	TotalBooks    int             `json:"total_books"`
}

func (uc *OrderSummaryUseCase) Execute(ctx context.Context, req SummaryRequest) (*SummaryResponse, error) {
	filter, err := buildFilter(req)
	if err != nil {
		return nil, err
	}

	rows, err := uc.orderRepo.Summarize(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := &SummaryResponse{Rows: make([]SummaryRowDTO, len(rows)), TotalBooks: len(rows)}
	for i, row := range rows {
		resp.Rows[i] = SummaryRowDTO(row)
		resp.TotalQuantity += row.Quantity
	}
	return resp, nil
}

var csvHeader = []string{"Book ID", "Title", "Class", "Section", "Subject", "Publisher", "Quantity", "Orders"}

// ExportCSV 以CSV写出汇总结果
func (uc *OrderSummaryUseCase) ExportCSV(ctx context.Context, req SummaryRequest, w io.Writer) error {
	resp, err := uc.Execute(ctx, req)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return apperrors.Wrap(err, "导出汇总失败")
	}
	for _, row := range resp.Rows {
		record := []string{
			strconv.FormatUint(uint64(row.BookID), 10),
			row.Title,
			strconv.Itoa(row.Class),
			row.Section,
			row.Subject,
			row.Publisher,
			strconv.Itoa(row.Quantity),
			strconv.Itoa(row.OrderCount),
		}
		if err := cw.Write(record); err != nil {
			return apperrors.Wrap(err, "导出汇总失败")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return apperrors.Wrap(err, "导出汇总失败")
	}
	return nil
}

func buildFilter(req SummaryRequest) (order.SummaryFilter, error) {
	filter := order.SummaryFilter{
		Class:     req.Class,
		Publisher: strings.TrimSpace(req.Publisher),
		SortBy:    req.SortBy,
		Desc:      !strings.EqualFold(req.Order, "asc"),
	}

	switch filter.SortBy {
	case "", "quantity":
		filter.SortBy = "quantity"
	case "orders", "title":
	default:
		return filter, apperrors.ErrInvalidParams.WithMessage("无效的排序字段: " + req.SortBy)
	}

	if req.Status != "" {
		st, err := order.ParseStatus(req.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = st
	}

	if req.From != "" {
		from, err := time.ParseInLocation(dateLayout, req.From, time.Local)
		if err != nil {
			return filter, apperrors.ErrInvalidParams.WithMessage("开始日期格式应为YYYY-MM-DD")
		}
		filter.From = &from
	}
	if req.To != "" {
		to, err := time.ParseInLocation(dateLayout, req.To, time.Local)
		if err != nil {
			return filter, apperrors.ErrInvalidParams.WithMessage("结束日期格式应为YYYY-MM-DD")
		}
		end := to.AddDate(0, 0, 1)
		filter.To = &end
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return filter, apperrors.ErrInvalidParams.WithMessage("开始日期不能晚于结束日期")
	}
	return filter, nil
}
