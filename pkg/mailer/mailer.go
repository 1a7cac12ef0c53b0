// Package mailer sends transactional email. Delivery is best-effort: callers
// log failures and carry on, nothing is queued or retried.
package mailer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/Koomefranklin/kise-results-backend/config"
)

// ErrNoRecipients the message has nobody to go to
var ErrNoRecipients = errors.New("mail has no recipients")

// Mailer delivers a message
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// New picks the provider configured in cfg
func New(cfg *config.MailConfig, logger *zap.Logger) Mailer {
	if cfg.Provider == "sendgrid" {
		return NewSendGrid(cfg.APIKey, cfg.FromName, cfg.From, logger)
	}
	return NewLogMailer(logger)
}

// ── sendgrid ──

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type sendGridMailer struct {
	key    string
	from   *sgmail.Email
	logger *zap.Logger
}

// NewSendGrid sends through the SendGrid v3 API
func NewSendGrid(key, fromName, fromEmail string, logger *zap.Logger) Mailer {
	return &sendGridMailer{
		key:    key,
		from:   sgmail.NewEmail(fromName, fromEmail),
		logger: logger,
	}
}

func (s *sendGridMailer) Send(ctx context.Context, msg *Message) error {
	if err := msg.Render(); err != nil {
		return err
	}
	if !msg.hasRecipients() {
		return ErrNoRecipients
	}

	req := sendgrid.GetRequest(s.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.build(msg))

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid returned %d: %s", res.StatusCode, res.Body)
	}

	s.logger.Info("mail sent",
		zap.Strings("to", msg.recipients()),
		zap.String("subject", msg.Subject),
	)
	return nil
}

func (s *sendGridMailer) build(msg *Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail(to.Name, to.Address))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	if msg.Text != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	}
	if msg.HTML != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	for _, a := range msg.Attachments {
		att := sgmail.NewAttachment()
		att.SetContent(base64.StdEncoding.EncodeToString(a.Content))
		att.SetType(a.ContentType)
		att.SetFilename(a.Filename)
		att.SetDisposition("attachment")
		m.AddAttachment(att)
	}
	return m
}

// ── log ──

// LogMailer writes messages to the log instead of sending them. It keeps
// what it "sent" so tests can inspect it.
type LogMailer struct {
	logger *zap.Logger

	mu   sync.Mutex
	sent []Message
}

// NewLogMailer returns a mailer for development and tests
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (l *LogMailer) Send(_ context.Context, msg *Message) error {
	if err := msg.Render(); err != nil {
		return err
	}
	if !msg.hasRecipients() {
		return ErrNoRecipients
	}

	l.mu.Lock()
	l.sent = append(l.sent, *msg)
	l.mu.Unlock()

	l.logger.Info("mail (log provider)",
		zap.Strings("to", msg.recipients()),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Attachments)),
	)
	return nil
}

// Sent returns a copy of every message passed to Send
func (l *LogMailer) Sent() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Message, len(l.sent))
	copy(out, l.sent)
	return out
}
