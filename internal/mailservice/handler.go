package mailservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sushihentaime/dreamblog/internal/common"
	"golang.org/x/exp/rand"
)

func NewMailService(mb common.MessageConsumer, m Mailer, sms SMSSender, baseURL string, logger MailLogger) *MailService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:        mb,
		m:         m,
		sms:       sms,
		logger:    logger,
		baseURL:   strings.TrimRight(baseURL, "/"),
		baseDelay: baseDelay,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches one consumer per queue. They run until Close is called or the broker closes
// their delivery channel.
func (s *MailService) Start() error {
	consumers := []struct {
		key      common.BindingKey
		exchange common.Exchange
		queue    common.Queue
		handle   func(body []byte) error
	}{
		{common.UserCreatedKey, common.UserExchange, common.UserCreatedQueue, s.sendVerificationEmail},
		{common.DeletionRequestedKey, common.UserExchange, common.DeletionRequestedQueue, s.sendDeletionEmail},
		{common.NotificationKey, common.NotificationExchange, common.NotificationQueue, s.sendNotification},
	}

	for _, c := range consumers {
		msgs, err := s.mb.Consume(c.key, c.exchange, c.queue)
		if err != nil {
			return fmt.Errorf("could not consume %s: %w", c.queue, err)
		}

		s.wg.Add(1)
		go s.consume(string(c.queue), msgs, c.handle)
	}

	return nil
}

func (s *MailService) consume(name string, msgs <-chan amqp.Delivery, handle func(body []byte) error) {
	defer s.wg.Done()

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			err := handle(msg.Body)
			switch {
			case err == nil:
				msg.Ack(false)
			case errors.Is(err, context.Canceled):
				msg.Nack(false, true)
			default:
				s.logger.Error("could not handle message", slog.String("queue", name), slog.String("error", err.Error()))
				// dropped, not requeued
				msg.Reject(false)
			}

		case <-s.ctx.Done():
			s.logger.Info("stopping consumer due to context cancellation", slog.String("queue", name))
			return
		}
	}
}

func (s *MailService) sendVerificationEmail(body []byte) error {
	var data common.TokenMessage
	if err := json.Unmarshal(body, &data); err != nil {
		return fmt.Errorf("could not unmarshal message: %w", err)
	}

	payload := LinkData{
		Username: data.Username,
		Link:     s.baseURL + "/v1/auth/email-confirmation/" + data.Token,
	}

	return s.withRetry("verification email", data.Email, func() error {
		return s.m.send(data.Email, payload, verificationTemplate)
	})
}

func (s *MailService) sendDeletionEmail(body []byte) error {
	var data common.TokenMessage
	if err := json.Unmarshal(body, &data); err != nil {
		return fmt.Errorf("could not unmarshal message: %w", err)
	}

	payload := LinkData{
		Username: data.Username,
		Link:     s.baseURL + "/v1/auth/account-deletion/confirm/" + data.Token,
	}

	return s.withRetry("deletion email", data.Email, func() error {
		return s.m.send(data.Email, payload, deletionTemplate)
	})
}

// sendNotification delivers on every channel the message asks for. A failing channel does not
// stop the other one.
func (s *MailService) sendNotification(body []byte) error {
	var data common.NotificationMessage
	if err := json.Unmarshal(body, &data); err != nil {
		return fmt.Errorf("could not unmarshal message: %w", err)
	}

	var errs []string

	if data.SendEmail && data.Email != "" {
		payload := NotificationData{Subject: data.Subject, Body: data.Body}
		err := s.withRetry("notification email", data.Email, func() error {
			return s.m.send(data.Email, payload, notificationTemplate)
		})
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if data.SendSMS && data.Phone != "" {
		if err := s.sms.SendSMS(s.ctx, data.Phone, data.Body); err != nil {
			errs = append(errs, fmt.Sprintf("could not send sms: %s", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification delivery failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// withRetry calls send until it succeeds, using exponential backoff with jitter between
// attempts.
func (s *MailService) withRetry(kind, email string, send func() error) error {
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = send()
		if err == nil {
			s.logger.Info(kind+" sent", slog.String("email", email))
			return nil
		}

		delay := time.Duration(rand.Int63n(int64(s.baseDelay) << uint(attempt)))
		s.logger.Info("delaying "+kind, slog.String("email", email), slog.Int("attempt", attempt), slog.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			return s.ctx.Err()
		}
	}

	return fmt.Errorf("could not send %s to %s after %d attempts: %w", kind, email, maxRetries, err)
}

// Close stops the consumers and waits for in-flight deliveries to finish.
func (s *MailService) Close() {
	s.cancel()
	s.wg.Wait()
}
