package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"employee-portal/internal/auth-service/core/domain/dto"
	"employee-portal/internal/config"
	"employee-portal/internal/mylogger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	exchange       = "auth_topic"
	routingKey     = "auth.email.verification"
	queueName      = "email_verification"
	reconnInterval = 10
)

// Queue is the RabbitMQ adapter carrying verification mail jobs from
// the registration path to the mail worker.
type Queue struct {
	ctx          context.Context
	cfg          config.RabbitMqconfig
	mylog        mylogger.Logger
	conn         *amqp.Connection
	ch           *amqp.Channel
	reconnecting bool
	mu           *sync.Mutex
}

func New(ctx context.Context, rabbitmqCfg config.RabbitMqconfig, mylog mylogger.Logger) (*Queue, error) {
	q := &Queue{
		ctx:          ctx,
		cfg:          rabbitmqCfg,
		mylog:        mylog,
		mu:           &sync.Mutex{},
		reconnecting: false,
	}
	if err := q.connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	return q, nil
}

func (q *Queue) PublishVerificationEmail(ctx context.Context, msg dto.VerificationEmail) error {
	mylog := q.mylog.Action("publishVerificationEmail")

	if q.conn.IsClosed() {
		mylog.Error("connection to rabbitmq is closed", errors.New("closed conn"))
		go q.reconnect(q.ctx)
		return errors.New("connection is closed")
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return q.ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// ConsumeVerificationEmails declares and binds the worker queue and
// returns a channel of decoded messages. Undecodable payloads are
// rejected without requeue.
func (q *Queue) ConsumeVerificationEmails(ctx context.Context) (<-chan dto.VerificationEmail, error) {
	if _, err := q.ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := q.ch.QueueBind(queueName, routingKey, exchange, false, nil); err != nil {
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	deliveries, err := q.ch.ConsumeWithContext(ctx, queueName, "mail-worker", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start consumer: %w", err)
	}

	out := make(chan dto.VerificationEmail)
	go func() {
		defer close(out)
		for d := range deliveries {
			var msg dto.VerificationEmail
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				q.mylog.Action("consumeVerificationEmails").Warn("Dropping undecodable mail job", "err", err.Error())
				_ = d.Reject(false)
				continue
			}
			_ = d.Ack(false)

			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (q *Queue) IsAlive() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.conn == nil || q.conn.IsClosed() {
		return false
	}
	if q.ch == nil || q.ch.IsClosed() {
		return false
	}

	return true
}

func (q *Queue) Close() error {
	if q.ch != nil && !q.ch.IsClosed() {
		if err := q.ch.Close(); err != nil {
			return fmt.Errorf("close rabbitmq channel: %w", err)
		}
	}

	if q.conn != nil && !q.conn.IsClosed() {
		if err := q.conn.Close(); err != nil {
			return fmt.Errorf("close rabbitmq connection: %w", err)
		}
	}
	return nil
}

func (q *Queue) connect() error {
	conn, err := amqp.Dial(fmt.Sprintf("amqp://%v:%v@%v:%v/%v",
		q.cfg.User,
		q.cfg.Password,
		q.cfg.Host,
		q.cfg.Port,
		q.cfg.VHost,
	))
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		return err
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}

	q.conn = conn
	q.ch = ch
	return nil
}

func (q *Queue) reconnect(ctx context.Context) {
	q.mu.Lock()
	if q.reconnecting {
		q.mu.Unlock()
		return
	}
	q.reconnecting = true
	q.mu.Unlock()

	t := time.NewTicker(time.Second * reconnInterval)
	mylog := q.mylog.Action("mb_reconnecting")

	for {
		select {
		case <-t.C:
			if err := q.connect(); err == nil {
				t.Stop()
				mylog.Info("Successfully reconnected!")
				q.mu.Lock()
				q.reconnecting = false
				q.mu.Unlock()
				return
			}
			mylog.Info("rabbitmq failed to reconnect")

		case <-ctx.Done():
			t.Stop()
			return
		}
	}
}
