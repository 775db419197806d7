// Package mailer 确认邮件发送
//
// SMTPSender 通过gomail发送,外层由熔断器保护:SMTP连续失败后快速失败,
// 任务会在退避重试中等待熔断器恢复。
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/xiebiao/bookplus/internal/domain/notification"
	"github.com/xiebiao/bookplus/internal/infrastructure/config"
	"github.com/xiebiao/bookplus/pkg/circuitbreaker"
	"github.com/xiebiao/bookplus/pkg/metrics"
)

const breakerName = "smtp"

// dialer 由 *gomail.Dialer 实现
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender SMTP邮件发送
type SMTPSender struct {
	dialer  dialer
	from    string
	breaker *circuitbreaker.CircuitBreaker
	log     *logrus.Logger
}

func NewSMTPSender(cfg config.SMTPConfig, log *logrus.Logger) *SMTPSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return newSMTPSender(d, cfg, log)
}

func newSMTPSender(d dialer, cfg config.SMTPConfig, log *logrus.Logger) *SMTPSender {
	threshold := cfg.BreakerThreshold
	if threshold == 0 {
		threshold = 5
	}
	breaker := circuitbreaker.NewCircuitBreaker(breakerName, circuitbreaker.Config{
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	})
	stateMetric := metrics.BreakerStateCallback()
	breaker.SetStateChangeCallback(func(name string, from, to circuitbreaker.State) {
		stateMetric(name, from, to)
		log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).Warn("circuit breaker state changed")
	})

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPSender{dialer: d, from: from, breaker: breaker, log: log}
}

func (s *SMTPSender) Send(ctx context.Context, msg notification.Message) error {
	m := buildMessage(s.from, msg)

	err := s.breaker.ExecuteContext(ctx, func(context.Context) error {
		return s.dialer.DialAndSend(m)
	})
	switch {
	case err == nil:
		metrics.EmailsSentTotal.WithLabelValues("success").Inc()
	case errors.Is(err, circuitbreaker.ErrOpenState):
		metrics.EmailsSentTotal.WithLabelValues("rejected").Inc()
	default:
		metrics.EmailsSentTotal.WithLabelValues("failure").Inc()
	}
	if err != nil {
		return fmt.Errorf("发送邮件到%s失败: %w", msg.To, err)
	}

	s.log.WithFields(logrus.Fields{"to": msg.To, "subject": msg.Subject}).Debug("email sent")
	return nil
}

func buildMessage(from string, msg notification.Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)
	for _, a := range msg.Attachments {
		data := a.Data
		m.Attach(a.Filename,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := io.Copy(w, bytes.NewReader(data))
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}),
		)
	}
	return m
}
