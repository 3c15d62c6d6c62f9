package mailservice

import (
	"context"
	"sync"
	"time"

	"github.com/go-mail/mail/v2"

	"github.com/sushihentaime/dreamblog/internal/common"
)

const (
	maxRetries = 5
	baseDelay  = 500 * time.Millisecond

	verificationTemplate = "verification_email.html"
	deletionTemplate     = "deletion_email.html"
	notificationTemplate = "notification.html"
)

// MailService consumes user and notification events and delivers them by email or SMS.
type MailService struct {
	mb        common.MessageConsumer
	m         Mailer
	sms       SMSSender
	logger    MailLogger
	baseURL   string
	baseDelay time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

type MailLogger interface {
	Error(msg string, args ...any)
	Info(msg string, args ...any)
}

type Mail struct {
	mu     sync.Mutex
	dialer   Dialer
	renderer TemplateRenderer
	sender   string
}

type Mailer interface {
	send(recipient string, data any, templateFile string) error
}

type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

type TemplateRenderer interface {
	Render(name string, data any) (Rendered, error)
}

// SMSSender delivers a short text message to a phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// LinkData feeds the templates that carry a single-use link.
type LinkData struct {
	Username string
	Link     string
}

type NotificationData struct {
	Subject string
	Body    string
}
