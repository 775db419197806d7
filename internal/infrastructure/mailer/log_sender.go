package mailer

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookplus/internal/domain/notification"
	"github.com/xiebiao/bookplus/internal/infrastructure/config"
)

// LogSender 只记录日志,用于未配置SMTP的开发环境
type LogSender struct {
	log *logrus.Logger
}

func NewLogSender(log *logrus.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg notification.Message) error {
	names := make([]string, len(msg.Attachments))
	for i, a := range msg.Attachments {
		names[i] = a.Filename
	}
	s.log.WithFields(logrus.Fields{
		"to":          msg.To,
		"subject":     msg.Subject,
		"attachments": names,
		"body_bytes":  len(msg.HTMLBody),
	}).Info("email not sent, smtp disabled")
	return nil
}

// NewSender 按配置选择发送方式
func NewSender(cfg *config.Config, log *logrus.Logger) notification.Sender {
	if !cfg.SMTP.Enabled {
		return NewLogSender(log)
	}
	return NewSMTPSender(cfg.SMTP, log)
}
