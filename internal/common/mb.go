package common

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Exchange string

type Queue string

type BindingKey string

type MessageProducer interface {
	Publish(ctx context.Context, msg []byte, key BindingKey, exchange Exchange) error
}

type MessageConsumer interface {
	Consume(key BindingKey, exchange Exchange, queue Queue) (<-chan amqp.Delivery, error)
}

const (
	UserExchange Exchange = "user_exchange"

	UserCreatedQueue Queue      = "user_created_queue"
	UserCreatedKey   BindingKey = "user.created"

	DeletionRequestedQueue Queue      = "user_deletion_requested_queue"
	DeletionRequestedKey   BindingKey = "user.deletion_requested"

	NotificationExchange Exchange   = "notification_exchange"
	NotificationQueue    Queue      = "notification_queue"
	NotificationKey      BindingKey = "notification.created"
)

// TokenMessage is published when a user must receive a link carrying a single-use token.
type TokenMessage struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// NotificationMessage is published when a user should be told about activity on their content.
// Channels are decided by the publisher from the recipient's notification settings.
type NotificationMessage struct {
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	SendEmail bool   `json:"send_email"`
	SendSMS   bool   `json:"send_sms"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

type MessageBroker struct {
	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewMessageBroker(URI string) (*MessageBroker, error) {
	conn, ch, err := connectAMQP(URI)
	if err != nil {
		return nil, err
	}

	return &MessageBroker{
		conn: conn,
		ch:   ch,
	}, nil
}

func connectAMQP(URI string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(URI)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("could not open channel: %w", err)
	}

	return conn, ch, nil
}

// Close closes the connection and channel of the message broker.
func (mb *MessageBroker) Close() error {
	err := mb.ch.Close()
	if err != nil {
		return err
	}

	return mb.conn.Close()
}

func (mb *MessageBroker) declare(exchange Exchange, bindings map[Queue]BindingKey) error {
	err := mb.ch.ExchangeDeclare(string(exchange), "direct", true, false, false, false, nil)
	if err != nil {
		return err
	}

	for queue, key := range bindings {
		if _, err := mb.ch.QueueDeclare(string(queue), true, false, false, false, nil); err != nil {
			return err
		}

		if err := mb.ch.QueueBind(string(queue), string(key), string(exchange), false, nil); err != nil {
			return err
		}
	}

	return nil
}

func SetupUserExchange(mb *MessageBroker) error {
	return mb.declare(UserExchange, map[Queue]BindingKey{
		UserCreatedQueue:       UserCreatedKey,
		DeletionRequestedQueue: DeletionRequestedKey,
	})
}

func SetupNotificationExchange(mb *MessageBroker) error {
	return mb.declare(NotificationExchange, map[Queue]BindingKey{
		NotificationQueue: NotificationKey,
	})
}

func (mb *MessageBroker) Publish(ctx context.Context, msg []byte, key BindingKey, exchange Exchange) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	err := mb.ch.PublishWithContext(ctx, string(exchange), string(key), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         msg,
	})
	if err != nil {
		return fmt.Errorf("could not publish message: %w", err)
	}

	return nil
}

// PublishJSON marshals v and publishes it.
func PublishJSON(ctx context.Context, p MessageProducer, v any, key BindingKey, exchange Exchange) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return p.Publish(ctx, body, key, exchange)
}

func (mb *MessageBroker) Consume(key BindingKey, exchange Exchange, queue Queue) (<-chan amqp.Delivery, error) {
	msgs, err := mb.ch.Consume(string(queue), string(key), false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("could not consume message: %w", err)
	}

	return msgs, nil
}
