package order

import (
	apperrors "github.com/xiebiao/bookplus/pkg/errors"
)

// 订单领域错误定义
var (
	ErrOrderNotFound = apperrors.New(apperrors.ErrCodeOrderNotFound, "订单不存在")

	ErrInvalidStatusTransition = apperrors.New(apperrors.ErrCodeInvalidOrderStatus, "订单状态不允许此变更")
	ErrDuplicateOrderNo        = apperrors.New(apperrors.ErrCodeDuplicateEntry, "订单号重复")

	ErrInvalidStatus    = apperrors.New(apperrors.ErrCodeInvalidParams, "无效的订单状态")
	ErrEmptyItems       = apperrors.New(apperrors.ErrCodeInvalidParams, "订单明细不能为空")
	ErrInvalidQuantity  = apperrors.New(apperrors.ErrCodeInvalidParams, "购买数量必须大于0")
	ErrCustomerRequired = apperrors.New(apperrors.ErrCodeInvalidParams, "客户姓名与邮箱不能为空")
	ErrItemNotFound     = apperrors.New(apperrors.ErrCodeInvalidParams, "订单明细不存在")

	ErrDocumentGeneration = apperrors.New(apperrors.ErrCodeDocumentGeneration, "发票生成失败")
	ErrNotification       = apperrors.New(apperrors.ErrCodeNotification, "通知发送失败")
)
