package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/logger"
)

type Sink interface {
	Name() string
	Deliver(ctx context.Context, event Event) error
}

// LogSink writes every event to the structured log
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(log *slog.Logger) *LogSink {
	if log == nil {
		log = slog.Default()
	}
	return &LogSink{log: log}
}

func (s *LogSink) Name() string {
	return "log"
}

func (s *LogSink) Deliver(ctx context.Context, event Event) error {
	s.log.InfoContext(ctx, "실물 편지 알림",
		"event", event.Type,
		"letter_id", event.LetterID,
		"request_id", event.RequestID,
		"batch_id", event.BatchID,
		"recipient_name", logger.MaskName(event.RecipientName),
		"total_cost", event.TotalCost,
		"status", event.Status,
		"occurred_at", event.OccurredAt,
	)
	return nil
}

// Mailer sends a plain text message
type Mailer interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, to []string, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s",
		m.cfg.From, strings.Join(to, ", "), subject, body))

	return smtp.SendMail(addr, auth, m.cfg.From, to, msg)
}

// EmailSink mails new submissions to the configured admin addresses.
// Other event types are ignored.
type EmailSink struct {
	mailer     Mailer
	recipients []string
}

func NewEmailSink(mailer Mailer, recipients []string) *EmailSink {
	return &EmailSink{mailer: mailer, recipients: recipients}
}

func (s *EmailSink) Name() string {
	return "email"
}

func (s *EmailSink) Deliver(ctx context.Context, event Event) error {
	if event.Type != EventRequestSubmitted || len(s.recipients) == 0 {
		return nil
	}

	subject := fmt.Sprintf("[실물 편지] 새 신청 접수 (편지 #%d)", event.LetterID)
	body := fmt.Sprintf("편지 ID: %d\n신청 ID: %s\n받는 분: %s\n금액: %d원\n상태: %s\n신청 시각: %s\n",
		event.LetterID,
		event.RequestID,
		logger.MaskName(event.RecipientName),
		event.TotalCost,
		event.Status,
		event.OccurredAt.Format("2006-01-02 15:04:05"),
	)
	return s.mailer.Send(ctx, s.recipients, subject, body)
}
