package consumers

import (
	"fmt"
	"log"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"self-checkout/config"
	"self-checkout/rabbitmq"
)

// PaymentExpirer cancels a payment if it is still pending.
type PaymentExpirer interface {
	Expire(paymentID string) (bool, error)
}

func StartPaymentConsumer(ch *amqp.Channel, cfg *config.Config, expirer PaymentExpirer) error {
	// 消费支付检查队列
	msgs, err := ch.Consume(
		cfg.PaymentQueue,
		"checkout-service", // consumer tag
		false,              // auto-ack
		false,              // exclusive
		false,              // no-local
		false,              // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register payment consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			processPaymentMessage(msg, expirer)
		}
		log.Printf("[consumer] payment queue closed")
	}()

	// 消费死信队列
	dlqMsgs, err := ch.Consume(
		cfg.DeadLetterQueue,
		"checkout-service-dlq", // consumer tag
		false,                  // auto-ack
		false,                  // exclusive
		false,                  // no-local
		false,                  // no-wait
		nil,
	)
	if err != nil {
		log.Printf("[consumer] Failed to register DLQ consumer: %v", err)
		return nil
	}

	go func() {
		for msg := range dlqMsgs {
			processDeadLetterMessage(msg)
		}
	}()
	return nil
}

func processPaymentMessage(msg amqp.Delivery, expirer PaymentExpirer) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[consumer] Recovered from panic in message processing: %v", r)
			_ = msg.Nack(false, false)
		}
	}()

	paymentID, eventType, ok := strings.Cut(string(msg.Body), "|")
	if !ok || paymentID == "" {
		log.Printf("[consumer] Invalid message format: %s", msg.Body)
		// 拒绝消息，不重新入队
		_ = msg.Nack(false, false)
		return
	}

	switch eventType {
	case rabbitmq.PaymentCheckEvent:
		expired, err := expirer.Expire(paymentID)
		if err != nil {
			log.Printf("[consumer] Failed to expire payment %s: %v", paymentID, err)
			_ = msg.Nack(false, false)
			return
		}
		if expired {
			log.Printf("[consumer] Auto-cancelled payment %s due to non-payment", paymentID)
		}
	default:
		log.Printf("[consumer] Unknown event type: %s", eventType)
	}

	if err := msg.Ack(false); err != nil {
		log.Printf("[consumer] Failed to ack message: %v", err)
	}
}

func processDeadLetterMessage(msg amqp.Delivery) {
	log.Printf("[consumer] Received dead letter: %s", msg.Body)
	if err := msg.Ack(false); err != nil {
		log.Printf("[consumer] Failed to ack dead letter: %v", err)
	}
}
