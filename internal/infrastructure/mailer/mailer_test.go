package mailer

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/xiebiao/bookplus/internal/domain/notification"
	"github.com/xiebiao/bookplus/internal/infrastructure/config"
	"github.com/xiebiao/bookplus/pkg/circuitbreaker"
	"github.com/xiebiao/bookplus/pkg/logger"
	"github.com/xiebiao/bookplus/pkg/metrics"
)

type fakeDialer struct {
	err  error
	sent []*gomail.Message
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, m...)
	return nil
}

func testMessage() notification.Message {
	return notification.Message{
		To:       "parent@example.com",
		Subject:  "BookPlus - Order Confirmation ORD1",
		HTMLBody: "<p>Thank you</p>",
		Attachments: []notification.Attachment{{
			Filename:    "order-1.pdf",
			ContentType: "application/pdf",
			Data:        []byte("%PDF-1.3 test"),
		}},
	}
}

func TestSMTPSender_Send(t *testing.T) {
	d := &fakeDialer{}
	s := newSMTPSender(d, config.SMTPConfig{Username: "shop@example.com"}, logger.Discard())

	before := testutil.ToFloat64(metrics.EmailsSentTotal.WithLabelValues("success"))
	require.NoError(t, s.Send(context.Background(), testMessage()))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.EmailsSentTotal.WithLabelValues("success")))

	require.Len(t, d.sent, 1)
	m := d.sent[0]
	assert.Equal(t, []string{"shop@example.com"}, m.GetHeader("From"))
	assert.Equal(t, []string{"parent@example.com"}, m.GetHeader("To"))

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, `filename="order-1.pdf"`)
	assert.Contains(t, raw, "application/pdf")
	assert.Contains(t, raw, "text/html")
}

func TestSMTPSender_BreakerOpens(t *testing.T) {
	d := &fakeDialer{err: errors.New("dial tcp: connection refused")}
	s := newSMTPSender(d, config.SMTPConfig{
		From:             "shop@example.com",
		BreakerThreshold: 2,
		BreakerTimeout:   time.Minute,
	}, logger.Discard())

	for i := 0; i < 2; i++ {
		err := s.Send(context.Background(), testMessage())
		require.Error(t, err)
		assert.NotErrorIs(t, err, circuitbreaker.ErrOpenState)
	}
	assert.Equal(t, circuitbreaker.StateOpen, s.breaker.State())
	assert.Equal(t, float64(circuitbreaker.StateOpen), testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues(breakerName)))

	// 熔断期间不再连接SMTP
	d.err = nil
	err := s.Send(context.Background(), testMessage())
	assert.ErrorIs(t, err, circuitbreaker.ErrOpenState)
	assert.Empty(t, d.sent)
}

func TestSMTPSender_CancelledContext(t *testing.T) {
	d := &fakeDialer{}
	s := newSMTPSender(d, config.SMTPConfig{From: "shop@example.com"}, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, testMessage()), context.Canceled)
	assert.Empty(t, d.sent)
}

func TestNewSender(t *testing.T) {
	cfg := &config.Config{}
	_, ok := NewSender(cfg, logger.Discard()).(*LogSender)
	assert.True(t, ok)
	assert.NoError(t, NewLogSender(logger.Discard()).Send(context.Background(), testMessage()))

	cfg.SMTP = config.SMTPConfig{Enabled: true, Host: "smtp.example.com", Port: 587, From: "a@b.c"}
	_, ok = NewSender(cfg, logger.Discard()).(*SMTPSender)
	assert.True(t, ok)
}
