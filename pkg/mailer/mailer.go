// Package mailer delivers transactional email to parents.
package mailer

import (
	"context"
	"net/mail"
)

// Attachment is a file sent alongside a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is a single outbound email.
type Message struct {
	To          mail.Address
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
