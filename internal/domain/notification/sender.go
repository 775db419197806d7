package notification

import (
	"context"
)

// Attachment 邮件附件
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message 一封待发送的邮件
type Message struct {
	To          string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// Sender 邮件发送能力,只承诺"送达或返回错误"
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
