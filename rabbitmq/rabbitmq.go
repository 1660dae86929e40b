package rabbitmq

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"self-checkout/config"
	"self-checkout/models"
)

const PaymentCheckEvent = "payment_check"

// ErrDelayUnsupported is returned when the broker has no delayed message exchange.
var ErrDelayUnsupported = errors.New("delayed message exchange not available")

type RabbitMQ struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
	Cfg     *config.Config

	mu      sync.Mutex
	delayed bool
}

func NewRabbitMQ(cfg *config.Config) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	return &RabbitMQ{
		Conn:    conn,
		Channel: ch,
		Cfg:     cfg,
	}, nil
}

func (r *RabbitMQ) SetupQueues() error {
	// 死信交换机和队列
	if err := r.Channel.ExchangeDeclare(
		DeadLetterExchange(r.Cfg),
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return err
	}

	if _, err := r.Channel.QueueDeclare(
		r.Cfg.DeadLetterQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{"x-queue-type": "classic"},
	); err != nil {
		return err
	}

	if err := r.Channel.QueueBind(
		r.Cfg.DeadLetterQueue,
		r.Cfg.DeadLetterQueue,
		DeadLetterExchange(r.Cfg),
		false,
		nil,
	); err != nil {
		return err
	}

	// 通知交换机: 购物车 / 支付事件广播给其他服务
	if err := r.Channel.ExchangeDeclare(
		r.Cfg.EventExchange,
		"fanout",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return err
	}

	// 延迟交换机（需要RabbitMQ安装延迟插件）
	delayed := true
	if err := r.Channel.ExchangeDeclare(
		r.Cfg.DelayExchange,
		"x-delayed-message",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		amqp.Table{"x-delayed-type": "direct"},
	); err != nil {
		// a failed declare closes the channel
		log.Printf("Warning: Delayed exchange not supported: %v", err)
		delayed = false
		if r.Channel, err = r.Conn.Channel(); err != nil {
			return fmt.Errorf("reopen channel: %w", err)
		}
	}

	// 支付检查队列（带优先级和死信）
	if _, err := r.Channel.QueueDeclare(
		r.Cfg.PaymentQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-max-priority":            r.Cfg.MaxPriority,
			"x-dead-letter-exchange":    DeadLetterExchange(r.Cfg),
			"x-dead-letter-routing-key": r.Cfg.DeadLetterQueue,
		},
	); err != nil {
		return err
	}

	if !delayed {
		return nil
	}
	if err := r.Channel.QueueBind(
		r.Cfg.PaymentQueue,
		r.Cfg.PaymentQueue,
		r.Cfg.DelayExchange,
		false,
		nil,
	); err != nil {
		return err
	}
	r.delayed = true
	return nil
}

// DelaySupported reports whether SetupQueues declared the delayed exchange.
func (r *RabbitMQ) DelaySupported() bool {
	return r.delayed
}

func DeadLetterExchange(cfg *config.Config) string {
	return cfg.DeadLetterQueue + "_exchange"
}

// EventPriority ranks payment lifecycle events above cart churn.
func EventPriority(eventType string) uint8 {
	switch eventType {
	case models.EventSaleCompleted, models.EventPaymentCreated, models.EventPaymentCancelled:
		return 8
	case models.EventStockUpdate:
		return 5
	default:
		return 1
	}
}

// Publish sends the event to the events exchange. Failures are logged only.
func (r *RabbitMQ) Publish(event models.Event) {
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", event.Type, err)
		return
	}

	msg := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		ContentType:  "application/json",
		Type:         event.Type,
		Body:         body,
		Priority:     EventPriority(event.Type),
	}

	if err := r.publish(r.Cfg.EventExchange, "", msg); err != nil {
		log.Printf("Failed to publish %s event: %v", event.Type, err)
	}
}

// SchedulePaymentCheck asks the broker to deliver a payment_check for the
// payment after the given delay.
func (r *RabbitMQ) SchedulePaymentCheck(paymentID string, after time.Duration) error {
	// 未声明的交换机会导致 broker 关闭共享 channel
	if !r.delayed {
		return ErrDelayUnsupported
	}
	msg := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		ContentType:  "text/plain",
		Body:         EncodeCheck(paymentID, PaymentCheckEvent),
		Priority:     EventPriority(models.EventPaymentCancelled),
		Headers: amqp.Table{
			"x-delay": after.Milliseconds(), // 延迟时间（毫秒）
		},
	}
	return r.publish(r.Cfg.DelayExchange, r.Cfg.PaymentQueue, msg)
}

func (r *RabbitMQ) publish(exchange, key string, msg amqp.Publishing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.Channel.Publish(
		exchange,
		key,
		false, // mandatory
		false, // immediate
		msg,
	)
}

// EncodeCheck builds the "<payment id>|<event>" body used on the payment queue.
func EncodeCheck(paymentID, eventType string) []byte {
	return []byte(paymentID + "|" + eventType)
}

func (r *RabbitMQ) Close() {
	if r.Channel != nil {
		if err := r.Channel.Close(); err != nil {
			log.Printf("Failed to close channel: %v", err)
		}
	}
	if r.Conn != nil {
		if err := r.Conn.Close(); err != nil {
			log.Printf("Failed to close connection: %v", err)
		}
	}
}
