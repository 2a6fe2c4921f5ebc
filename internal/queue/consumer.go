package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartEventConsumer connects to RabbitMQ, declares the confirmed and
// cancelled queues (durable), and consumes both, appending each event
// to logs/booking.log in a single-line format. It runs a reconnect
// loop with exponential backoff and never returns under normal
// operation; malformed messages are rejected without requeue so the
// consumer keeps draining.
func StartEventConsumer() error {
	url := brokerURL()
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("booking-consumer: dial failed: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(conn); err != nil {
			log.Printf("booking-consumer: consume loop ended: %v; reconnecting", err)
			_ = conn.Close()
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("booking-consumer: set QoS failed: %v", err)
	}
	for _, name := range []string{ConfirmedQueue, CancelledQueue} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
	}

	confirmed, err := ch.Consume(ConfirmedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", ConfirmedQueue, err)
	}
	cancelled, err := ch.Consume(CancelledQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", CancelledQueue, err)
	}

	for confirmed != nil || cancelled != nil {
		select {
		case d, ok := <-confirmed:
			if !ok {
				confirmed = nil
				continue
			}
			ackOrReject(d, handleConfirmed(d.Body))
		case d, ok := <-cancelled:
			if !ok {
				cancelled = nil
				continue
			}
			ackOrReject(d, handleCancelled(d.Body))
		}
	}
	return errors.New("deliveries channel closed")
}

func ackOrReject(d amqp.Delivery, err error) {
	if err != nil {
		log.Printf("booking-consumer: handle message failed: %v", err)
		_ = d.Nack(false, false) // no requeue, avoids tight redelivery loops
		return
	}
	_ = d.Ack(false)
}

func handleConfirmed(body []byte) error {
	var ev BookingConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	line := fmt.Sprintf("[%s] Booking confirmed | reference=%s | user_id=%d | movie=%q | theater=%q | screen=%d | starts_at=%s | seats=%v | total=%d cents\n",
		ev.ConfirmedAt, ev.Reference, ev.UserID, ev.MovieName, ev.TheaterName,
		ev.ScreenNumber, ev.StartsAt, ev.SeatNumbers, ev.TotalAmountCents)
	return appendBookingLog(line)
}

func handleCancelled(body []byte) error {
	var ev BookingCancelledEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	line := fmt.Sprintf("[%s] Booking cancelled | reference=%s | user_id=%d | show_time_id=%d | seats_released=%v | refund=%d cents\n",
		ev.CancelledAt, ev.Reference, ev.UserID, ev.ShowTimeID, ev.SeatNumbers, ev.RefundCents)
	return appendBookingLog(line)
}

func appendBookingLog(line string) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join("logs", "booking.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
