package common

import (
	"context"
	"log/slog"
)

// Recipient is a user as seen by the notifier: where to reach them and which channels they accept.
type Recipient struct {
	ID          int
	Email       string
	Phone       string
	NotifyEmail bool
	NotifySMS   bool
}

type RecipientFinder interface {
	Recipient(ctx context.Context, userID int) (Recipient, error)
}

// Notifier tells users about activity on their content. Delivery is best-effort: every failure
// is logged and swallowed so the triggering operation still succeeds.
type Notifier struct {
	mb     MessageProducer
	users  RecipientFinder
	logger *slog.Logger
}

func NewNotifier(mb MessageProducer, users RecipientFinder, logger *slog.Logger) *Notifier {
	return &Notifier{mb: mb, users: users, logger: logger}
}

// Notify looks up userID and publishes a notification on the channels the user enabled.
// Users are never notified about their own actions.
func (n *Notifier) Notify(ctx context.Context, actorID, userID int, subject, body string) {
	if n == nil || actorID == userID {
		return
	}

	r, err := n.users.Recipient(ctx, userID)
	if err != nil {
		n.logger.Error("could not load notification recipient", slog.Int("user_id", userID), slog.String("error", err.Error()))
		return
	}

	msg := NotificationMessage{
		Email:     r.Email,
		Phone:     r.Phone,
		SendEmail: r.NotifyEmail,
		SendSMS:   r.NotifySMS && r.Phone != "",
		Subject:   subject,
		Body:      body,
	}
	if !msg.SendEmail && !msg.SendSMS {
		return
	}

	if err := PublishJSON(ctx, n.mb, msg, NotificationKey, NotificationExchange); err != nil {
		n.logger.Error("could not publish notification", slog.Int("user_id", userID), slog.String("error", err.Error()))
	}
}
