package order

import (
	"context"

	"github.com/xiebiao/bookplus/internal/domain/order"
	apperrors "github.com/xiebiao/bookplus/pkg/errors"
	"github.com/xiebiao/bookplus/pkg/metrics"
	"github.com/xiebiao/bookplus/pkg/tracing"
)

// DownloadInvoiceUseCase 按需重新生成发票
// 每次调用都从已保存的订单渲染,不读取图书目录
type DownloadInvoiceUseCase struct {
	orderRepo order.Repository
	renderer  order.InvoiceRenderer
}

func NewDownloadInvoiceUseCase(orderRepo order.Repository, renderer order.InvoiceRenderer) *DownloadInvoiceUseCase {
	return &DownloadInvoiceUseCase{orderRepo: orderRepo, renderer: renderer}
}

// InvoiceFile 发票文件
type InvoiceFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (uc *DownloadInvoiceUseCase) Execute(ctx context.Context, id uint) (file *InvoiceFile, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "DownloadInvoice")
	defer func() { tracing.EndSpan(span, err) }()

	o, err := uc.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := uc.renderer.Render(o)
	metrics.InvoicesRenderedTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDocumentGeneration, "发票生成失败")
	}

	return &InvoiceFile{
		Filename:    order.InvoiceFilename(o),
		ContentType: uc.renderer.ContentType(),
		Data:        data,
	}, nil
}
