package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_IsMatchesByCode(t *testing.T) {
	sentinel := New(ErrCodeInsufficientStock, "库存不足")
	detailed := sentinel.WithData(map[string]int{"available_stock": 2})

	assert.True(t, errors.Is(detailed, sentinel))
	assert.True(t, errors.Is(fmt.Errorf("wrapped: %w", detailed), sentinel))
	assert.False(t, errors.Is(detailed, ErrInvalidParams))

	// 副本不修改预定义错误
	assert.Nil(t, sentinel.Data)
	assert.NotNil(t, detailed.Data)
}

func TestAppError_HTTPStatus(t *testing.T) {
	cases := []struct {
		code int
		want int
	}{
		{ErrCodeBookNotFound, http.StatusNotFound},
		{ErrCodeOrderNotFound, http.StatusNotFound},
		{ErrCodeInsufficientStock, http.StatusBadRequest},
		{ErrCodeInvalidParams, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeInvalidOrderStatus, http.StatusConflict},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeNotification, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, New(tc.code, "x").HTTPStatus(), "code=%d", tc.code)
	}
}

func TestGetAppError(t *testing.T) {
	plain := errors.New("boom")
	appErr := GetAppError(plain)
	assert.Equal(t, ErrCodeInternal, appErr.Code)
	assert.ErrorIs(t, appErr, plain)

	wrapped := WrapCode(plain, ErrCodeDocumentGeneration, "发票生成失败")
	assert.Same(t, wrapped, GetAppError(fmt.Errorf("ctx: %w", wrapped)))
}
